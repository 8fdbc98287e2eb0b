package bot

import (
	"context"
	"fmt"
	"time"

	"akane/pkg/llm"
	"akane/pkg/persona"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	translateSourceLimit = 500
	translateResultLimit = 1024
	translateColor       = 0x3498DB
)

// Translate renders text in language. Translations do not spend the daily quota.
func (h *Handler) Translate(ctx context.Context, text, language string) (string, error) {
	h.stats.translations.Add(1)
	return h.generator.Generate(ctx, llm.Request{
		System:    persona.TranslationPrompt(language),
		User:      text,
		MaxTokens: h.cfg.TranslateMaxTokens,
	})
}

func (h *Handler) MessageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	h.HandleReaction(&DiscordSession{s}, r)
}

// HandleReaction translates a message when someone reacts with a mapped flag
// and DMs the result to the reacting user.
func (h *Handler) HandleReaction(s Session, r *discordgo.MessageReactionAdd) {
	if r.UserID == h.botID || (r.Member != nil && r.Member.User != nil && r.Member.User.Bot) {
		return
	}
	language, ok := h.cfg.Flags[r.Emoji.Name]
	if !ok {
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.translateReaction(context.Background(), s, r, language)
	}()
}

func (h *Handler) translateReaction(ctx context.Context, s Session, r *discordgo.MessageReactionAdd, language string) {
	logger := log.WithFields(log.Fields{"user_id": r.UserID, "message_id": r.MessageID, "language": language})

	msg, err := s.ChannelMessage(r.ChannelID, r.MessageID)
	if err != nil {
		logger.Warnf("Error fetching reacted message: %v", err)
		return
	}
	if msg.Content == "" {
		return
	}

	translated, err := h.Translate(ctx, msg.Content, language)
	if err != nil {
		h.stats.errors.Add(1)
		logger.WithError(err).Error("Failed to translate")
		if h.reporter != nil {
			h.reporter.CaptureException(err, map[string]string{"user_id": r.UserID, "mode": "translate"})
		}
		translated = ApologyMessage
	}

	embed := TranslationEmbed(language, msg.Content, translated)
	if err := h.sendDMEmbed(s, r.UserID, embed); err != nil {
		logger.Warnf("Error sending translation DM: %v", err)
		h.postTransientNotice(s, r.ChannelID, fmt.Sprintf("<@%s> DM送れへんかったわ💦", r.UserID))
	}
}

func TranslationEmbed(language, source, translated string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🌐 翻訳結果 (%s)", language),
		Color: translateColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "原文", Value: truncateRunes(source, translateSourceLimit)},
			{Name: "翻訳", Value: truncateRunes(translated, translateResultLimit)},
		},
	}
}

func (h *Handler) sendDMEmbed(s Session, userID string, embed *discordgo.MessageEmbed) error {
	channel, err := s.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = s.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}})
	return err
}

// postTransientNotice posts content publicly and deletes it after noticeTTL.
func (h *Handler) postTransientNotice(s Session, channelID, content string) {
	notice, err := s.ChannelMessageSend(channelID, content)
	if err != nil {
		log.WithField("channel_id", channelID).Warnf("Error posting notice: %v", err)
		return
	}
	time.AfterFunc(h.noticeTTL, func() {
		if err := s.ChannelMessageDelete(channelID, notice.ID); err != nil {
			log.WithField("channel_id", channelID).Debugf("Error deleting notice: %v", err)
		}
	})
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
