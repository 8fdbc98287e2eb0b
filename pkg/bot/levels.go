package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// awardXP grants the per-message xp and, on a level-up, announces it and hands
// out every reward role up to the new level that the member is missing.
func (h *Handler) awardXP(ctx context.Context, s Session, m *discordgo.MessageCreate) {
	if h.levels == nil || h.cfg.XPPerMessage <= 0 {
		return
	}
	logger := log.WithFields(log.Fields{"user_id": m.Author.ID, "guild_id": m.GuildID})

	lvl, leveledUp, err := h.levels.AddXP(ctx, m.GuildID, m.Author.ID, h.cfg.XPPerMessage)
	if err != nil {
		logger.Errorf("Error adding xp: %v", err)
		return
	}
	if !leveledUp {
		return
	}

	logger.Infof("Level up to %d", lvl.Level)
	if _, err := s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("🎉 %s レベルアップしたで！", m.Author.Mention())); err != nil {
		logger.Warnf("Error announcing level up: %v", err)
	}

	rewards, err := h.levels.LevelRewards(ctx, m.GuildID, lvl.Level)
	if err != nil {
		logger.Errorf("Error reading level rewards: %v", err)
		return
	}

	held := make(map[string]bool)
	if m.Member != nil {
		for _, roleID := range m.Member.Roles {
			held[roleID] = true
		}
	}
	for _, roleID := range rewards {
		if held[roleID] {
			continue
		}
		if err := s.GuildMemberRoleAdd(m.GuildID, m.Author.ID, roleID); err != nil {
			logger.WithField("role_id", roleID).Warnf("Error granting reward role: %v", err)
			continue
		}
		held[roleID] = true
	}
}
