package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const (
	analysisTitle = "📊 規制分析: "
	analysisColor = 0xE67E22
)

// sentenceTerminators end a sentence for the purpose of message splitting.
const sentenceTerminators = "。！？!?.\n…"

// SplitMessage cuts text into chunks of at most limit runes, preferring to cut
// right after a sentence terminator. A chunk with no terminator in range is cut
// hard at limit. Joining the chunks reproduces text exactly and no chunk is empty.
func SplitMessage(text string, limit int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if limit < 1 || len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := lastTerminator(runes[:limit])
		if cut == 0 {
			cut = limit
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// lastTerminator returns the index just past the last terminator in window, or 0.
func lastTerminator(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if strings.ContainsRune(sentenceTerminators, window[i]) {
			return i + 1
		}
	}
	return 0
}

func (h *Handler) sendSplitMessage(s Session, channelID, content string, reference *discordgo.MessageReference) {
	isFirstPart := true
	for _, part := range SplitMessage(content, h.cfg.MessageLimit) {
		if strings.TrimSpace(part) == "" {
			continue
		}

		var err error
		if reference == nil {
			_, err = s.ChannelMessageSend(channelID, part)
		} else if isFirstPart {
			// The first part of a reply pings the user by default
			_, err = s.ChannelMessageSendReply(channelID, part, reference)
			isFirstPart = false
		} else {
			_, err = s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
				Content:   part,
				Reference: reference,
				AllowedMentions: &discordgo.MessageAllowedMentions{
					RepliedUser: false,
				},
			})
		}

		if err != nil {
			log.WithField("channel_id", channelID).Errorf("Error sending message part: %v", err)
		}
	}
}

// AnalysisEmbeds lays an analysis out as one embed per embedLimit-rune chunk.
// Parts after the first carry a continuation title.
func AnalysisEmbeds(target, text string, embedLimit int) []*discordgo.MessageEmbed {
	parts := SplitMessage(text, embedLimit)
	embeds := make([]*discordgo.MessageEmbed, 0, len(parts))
	for i, part := range parts {
		title := analysisTitle + target
		if i > 0 {
			title = fmt.Sprintf("%s (続き %d/%d)", title, i+1, len(parts))
		}
		embeds = append(embeds, &discordgo.MessageEmbed{
			Title:       title,
			Description: part,
			Color:       analysisColor,
		})
	}
	return embeds
}

func (h *Handler) sendAnalysis(s Session, channelID, target, text string, reference *discordgo.MessageReference) {
	for i, embed := range AnalysisEmbeds(target, text, h.cfg.EmbedLimit) {
		msg := &discordgo.MessageSend{
			Embeds:    []*discordgo.MessageEmbed{embed},
			Reference: reference,
		}
		if i > 0 {
			msg.AllowedMentions = &discordgo.MessageAllowedMentions{RepliedUser: false}
		}
		if _, err := s.ChannelMessageSendComplex(channelID, msg); err != nil {
			log.WithField("channel_id", channelID).Errorf("Error sending analysis embed: %v", err)
		}
	}
}
