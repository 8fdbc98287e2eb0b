package bot

import (
	"context"
	"testing"
	"time"

	"akane/pkg/memory"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaintain_PrunesTurnsAndUsage(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, func(c *HandlerConfig) {
		c.ConversationRetention = 30 * 24 * time.Hour
		c.UsageRetention = 7 * 24 * time.Hour
	})
	ctx := context.Background()
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, env.h.cfg.Location)
	env.h.now = func() time.Time { return now }

	require.NoError(t, env.db.AppendTurn(ctx, memory.Turn{UserID: "u1", Input: "old", Output: "x", CreatedAt: now.AddDate(0, 0, -45)}))
	require.NoError(t, env.db.AppendTurn(ctx, memory.Turn{UserID: "u1", Input: "new", Output: "y", CreatedAt: now.AddDate(0, 0, -1)}))

	for _, day := range []string{"2026-05-01", "2026-05-13", "2026-05-20"} {
		_, ok, err := env.db.ConsumeQuota(ctx, "u1", day, 100)
		require.NoError(t, err)
		require.True(t, ok)
	}

	env.h.maintain(ctx)

	turns, err := env.db.CountTurns(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), turns)

	for day, want := range map[string]int{"2026-05-01": 0, "2026-05-13": 1, "2026-05-20": 1} {
		got, err := env.db.Usage(ctx, "u1", day)
		require.NoError(t, err)
		assert.Equal(t, want, got, day)
	}
}

func TestRunMaintenance_StopsWithContext(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, func(c *HandlerConfig) { c.MaintenanceInterval = time.Hour })
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		env.h.RunMaintenance(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("maintenance loop did not stop")
	}
}

func TestStatusForHour(t *testing.T) {
	tests := []struct {
		hour int
		kind discordgo.ActivityType
	}{
		{7, discordgo.ActivityTypeCustom},
		{12, discordgo.ActivityTypeCustom},
		{19, discordgo.ActivityTypeWatching},
		{2, discordgo.ActivityTypeCustom},
	}
	for _, tt := range tests {
		st := statusForHour(tt.hour)
		assert.Equal(t, tt.kind, st.kind, "hour %d", tt.hour)
		assert.NotEmpty(t, st.text)
		assert.NotEmpty(t, st.emoji)
	}
}

func TestUpdateStatus_UsesConfiguredZone(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, nil)
	env.h.SetSession(env.session)
	// 10:00 UTC is 19:00 in JST
	env.h.now = func() time.Time { return time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC) }

	env.h.updateStatus()

	require.Len(t, env.session.Statuses, 1)
	activity := env.session.Statuses[0].Activities[0]
	assert.Equal(t, discordgo.ActivityTypeWatching, activity.Type)
}
