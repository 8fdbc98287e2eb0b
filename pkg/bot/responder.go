package bot

import (
	"context"
	"errors"
	"fmt"

	"akane/pkg/llm"
	"akane/pkg/memory"
	"akane/pkg/persona"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// respond classifies text, generates a reply and delivers it. Every failure,
// panics included, ends in the apology reply and never escapes.
func (h *Handler) respond(ctx context.Context, s Session, m *discordgo.MessageCreate, text string) {
	result := h.classifier.Classify(text)
	fields := log.Fields{
		"user_id":  m.Author.ID,
		"guild_id": m.GuildID,
		"mode":     result.Mode.String(),
	}

	defer func() {
		if r := recover(); r != nil {
			h.fail(s, m, fmt.Errorf("responder panic: %v", r), fields)
		}
	}()

	stopTyping := h.keepTyping(s, m.ChannelID)
	defer stopTyping()

	reply, err := h.generator.Generate(ctx, h.buildRequest(result, displayName(m), text))
	if err != nil {
		var attempts *llm.AttemptsError
		if errors.As(err, &attempts) {
			fields["attempt"] = attempts.Attempts
		}
		h.fail(s, m, err, fields)
		return
	}
	stopTyping()

	if result.Mode == persona.Analysis {
		h.sendAnalysis(s, m.ChannelID, result.Target, reply, m.Reference())
	} else {
		h.sendSplitMessage(s, m.ChannelID, reply, m.Reference())
	}
	h.stats.responses.Add(1)

	if h.turns != nil {
		turn := memory.Turn{
			UserID:    m.Author.ID,
			GuildID:   m.GuildID,
			Input:     text,
			Output:    reply,
			Analysis:  result.Mode == persona.Analysis,
			CreatedAt: h.now(),
		}
		if err := h.turns.AppendTurn(ctx, turn); err != nil {
			log.WithFields(fields).Warnf("Error appending conversation turn: %v", err)
		}
	}
}

func (h *Handler) buildRequest(result persona.Result, name, text string) llm.Request {
	if result.Mode == persona.Analysis {
		return llm.Request{
			System:    persona.AnalysisPrompt(name, result.Target),
			User:      text,
			MaxTokens: h.cfg.AnalysisMaxTokens,
		}
	}
	return llm.Request{
		System:    persona.CasualPrompt(name),
		User:      text,
		MaxTokens: h.cfg.CasualMaxTokens,
	}
}

// fail records err and answers with the in-persona apology.
func (h *Handler) fail(s Session, m *discordgo.MessageCreate, err error, fields log.Fields) {
	h.stats.errors.Add(1)
	log.WithFields(fields).WithError(err).Error("Failed to respond")

	if h.reporter != nil {
		tags := make(map[string]string, len(fields))
		for k, v := range fields {
			tags[k] = fmt.Sprint(v)
		}
		h.reporter.CaptureException(err, tags)
	}

	if _, sendErr := s.ChannelMessageSendReply(m.ChannelID, ApologyMessage, m.Reference()); sendErr != nil {
		log.WithFields(fields).Warnf("Error sending apology: %v", sendErr)
	}
}
