package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type routineStatus struct {
	text  string
	kind  discordgo.ActivityType
	emoji string
}

// statusForHour maps an hour in Akane's time zone to her presence.
func statusForHour(hour int) routineStatus {
	switch {
	case hour >= 7 && hour < 8:
		return routineStatus{"遅刻しそうや！ 🍞", discordgo.ActivityTypeCustom, "🍞"}
	case hour >= 8 && hour < 15:
		return routineStatus{"授業中…眠いわ 🏫", discordgo.ActivityTypeCustom, "🏫"}
	case hour >= 15 && hour < 18:
		return routineStatus{"放課後に表現規制のニュースチェック中 📰", discordgo.ActivityTypeCustom, "📰"}
	case hour >= 18 && hour < 20:
		return routineStatus{"アニメ見てる！ 📺", discordgo.ActivityTypeWatching, "📺"}
	case hour >= 20 && hour < 23:
		return routineStatus{"みんなとおしゃべり中 💬", discordgo.ActivityTypeCustom, "💬"}
	default: // 23 - 07
		return routineStatus{"寝てる… 😴", discordgo.ActivityTypeCustom, "😴"}
	}
}

func (h *Handler) updateStatus() {
	if h.session == nil {
		return
	}

	st := statusForHour(h.now().In(h.cfg.Location).Hour())
	err := h.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name:  "Daily Routine",
				Type:  st.kind,
				State: st.text,
				Emoji: discordgo.Emoji{Name: st.emoji},
			},
		},
		Status: "online",
		AFK:    false,
	})
	if err != nil {
		log.WithField("component", "status").Warnf("Error updating status: %v", err)
	}
}

// RunDailyRoutine refreshes the presence every 15 minutes until ctx ends.
func (h *Handler) RunDailyRoutine(ctx context.Context) {
	h.updateStatus()

	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.updateStatus()
		}
	}
}
