package bot

import (
	"context"
	"errors"
	"fmt"

	"akane/pkg/database"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const welcomeTemplate = "%s 表現の自由界隈サーバーへようこそ。このサーバーのマスコットキャラクターの表自派茜（ひょうじは あかね）やで！ ゆっくりしていってな！"

func (h *Handler) GuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	h.HandleMemberJoin(&DiscordSession{s}, m)
}

// HandleMemberJoin greets a new member in the guild's welcome channel, if one is set.
func (h *Handler) HandleMemberJoin(s Session, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil || h.settings == nil {
		return
	}

	channelID, err := h.settings.ChannelSetting(context.Background(), m.GuildID, database.WelcomeChannel)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.WithField("guild_id", m.GuildID).Warnf("Error reading welcome channel: %v", err)
		}
		return
	}

	if _, err := s.ChannelMessageSend(channelID, fmt.Sprintf(welcomeTemplate, m.User.Mention())); err != nil {
		log.WithField("guild_id", m.GuildID).Warnf("Error sending welcome: %v", err)
	}
}
