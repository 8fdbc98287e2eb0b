package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"akane/pkg/persona"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flagReaction(emoji string) *discordgo.MessageReactionAdd {
	return &discordgo.MessageReactionAdd{
		MessageReaction: &discordgo.MessageReaction{
			UserID:    "u2",
			MessageID: "m9",
			ChannelID: "c1",
			GuildID:   "g1",
			Emoji:     discordgo.Emoji{Name: emoji},
		},
		Member: &discordgo.Member{User: &discordgo.User{ID: "u2"}},
	}
}

func TestHandleReaction_SendsTranslationDM(t *testing.T) {
	gen := &stubGenerator{reply: "Freedom of expression matters."}
	env := newTestEnv(t, gen, nil)
	env.session.Messages["m9"] = &discordgo.Message{ID: "m9", Content: "表現の自由は大事や"}

	env.h.HandleReaction(env.session, flagReaction("🇺🇸"))
	env.h.WaitForReady()

	calls := gen.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, persona.TranslationPrompt("English"), calls[0].System)
	assert.Equal(t, "表現の自由は大事や", calls[0].User)
	assert.Equal(t, 600, calls[0].MaxTokens)

	sent := env.session.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "dm_channel", sent[0].ChannelID)
	embed := sent[0].Data.Embeds[0]
	assert.Equal(t, "🌐 翻訳結果 (English)", embed.Title)
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "原文", embed.Fields[0].Name)
	assert.Equal(t, "表現の自由は大事や", embed.Fields[0].Value)
	assert.Equal(t, "Freedom of expression matters.", embed.Fields[1].Value)

	assert.Equal(t, 0, env.usage(t, "u2"), "translation does not spend quota")
}

func TestHandleReaction_IgnoredReactions(t *testing.T) {
	gen := &stubGenerator{reply: "x"}
	env := newTestEnv(t, gen, nil)
	env.session.Messages["m9"] = &discordgo.Message{ID: "m9", Content: "hi"}

	env.h.HandleReaction(env.session, flagReaction("👍"))

	bot := flagReaction("🇺🇸")
	bot.Member.User.Bot = true
	env.h.HandleReaction(env.session, bot)

	empty := flagReaction("🇺🇸")
	empty.MessageID = "m-empty"
	env.session.Messages["m-empty"] = &discordgo.Message{ID: "m-empty"}
	env.h.HandleReaction(env.session, empty)

	env.h.WaitForReady()
	assert.Empty(t, gen.calls())
	assert.Empty(t, env.session.sent())
}

func TestHandleReaction_DMFailurePostsTransientNotice(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{reply: "hello"}, nil)
	env.session.Messages["m9"] = &discordgo.Message{ID: "m9", Content: "こんにちは"}
	env.session.FailDM = true

	env.h.HandleReaction(env.session, flagReaction("🇺🇸"))
	env.h.WaitForReady()

	sent := env.session.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "c1", sent[0].ChannelID)
	assert.Equal(t, "<@u2> DM送れへんかったわ💦", sent[0].Content)

	assert.Eventually(t, func() bool {
		return len(env.session.deleted()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestHandleReaction_GenerationFailureStillAnswers(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{err: errors.New("rate limited")}, nil)
	env.session.Messages["m9"] = &discordgo.Message{ID: "m9", Content: "こんにちは"}

	env.h.HandleReaction(env.session, flagReaction("🇺🇸"))
	env.h.WaitForReady()

	sent := env.session.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, ApologyMessage, sent[0].Data.Embeds[0].Fields[1].Value)
	assert.Equal(t, int64(1), env.h.Stats().Errors())
}

func TestTranslationEmbed_Truncates(t *testing.T) {
	embed := TranslationEmbed("Korean", strings.Repeat("あ", 800), strings.Repeat("b", 3000))

	assert.Equal(t, 500, utf8.RuneCountInString(embed.Fields[0].Value))
	assert.Equal(t, 1024, utf8.RuneCountInString(embed.Fields[1].Value))
}

func TestTranslate_CountsTranslations(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{reply: "Bonjour"}, nil)

	got, err := env.h.Translate(context.Background(), "こんにちは", "French")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", got)
	assert.Equal(t, int64(1), env.h.StatsSnapshot()["translations"])
}
