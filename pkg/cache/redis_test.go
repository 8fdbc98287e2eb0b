package cache

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		parts  []string
		want   string
	}{
		{"with prefix", "akane", []string{"quota", "2025-01-01", "u1"}, "akane:quota:2025-01-01:u1"},
		{"without prefix", "", []string{"quota", "u1"}, "quota:u1"},
		{"single part", "akane", []string{"x"}, "akane:x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Cache{prefix: tt.prefix}
			assert.Equal(t, tt.want, c.Key(tt.parts...))
		})
	}
}

func TestQuotaKeyIsPerUserAndDay(t *testing.T) {
	q := NewQuota(&Cache{prefix: "akane"})

	assert.Equal(t, "akane:quota:2025-01-01:u1", q.key("u1", "2025-01-01"))
	assert.NotEqual(t, q.key("u1", "2025-01-01"), q.key("u1", "2025-01-02"))
	assert.NotEqual(t, q.key("u1", "2025-01-01"), q.key("u2", "2025-01-01"))
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache("not-a-redis-url", "akane")
	assert.Error(t, err)
}

func TestQuota_NonPositiveLimitSkipsRedis(t *testing.T) {
	// A nil client would panic if the script ran.
	q := NewQuota(&Cache{prefix: "akane"})

	_, ok, err := q.ConsumeQuota(context.Background(), "u1", "2025-01-01", 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestQuota_Integration runs against a real server when REDIS_URL is set.
func TestQuota_Integration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis integration test: REDIS_URL not set")
	}

	c, err := NewRedisCache(url, "akane_test")
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	q := NewQuota(c)
	key := q.key("tester", "1999-01-01")
	require.NoError(t, c.Delete(ctx, key))
	defer c.Delete(ctx, key)

	for i := 1; i <= 3; i++ {
		count, ok, err := q.ConsumeQuota(ctx, "tester", "1999-01-01", 3)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, i, count)
	}

	_, ok, err := q.ConsumeQuota(ctx, "tester", "1999-01-01", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	usage, err := q.Usage(ctx, "tester", "1999-01-01")
	require.NoError(t, err)
	assert.Equal(t, 3, usage)
}
