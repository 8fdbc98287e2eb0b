package bot

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertChunks(t *testing.T, text string, limit int, chunks []string) {
	t.Helper()
	for i, c := range chunks {
		assert.NotEmpty(t, c, "chunk %d is empty", i)
		assert.LessOrEqual(t, utf8.RuneCountInString(c), limit, "chunk %d too long", i)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplitMessage_RoundTrip5000(t *testing.T) {
	var b strings.Builder
	sentences := []string{"表現の自由は大事やで。", "ほんまに？", "Really!", "改行もある\n", "せやな…"}
	for i := 0; utf8.RuneCountInString(b.String()) < 5000; i++ {
		b.WriteString(sentences[i%len(sentences)])
	}
	text := string([]rune(b.String())[:5000])

	chunks := SplitMessage(text, 2000)
	require.GreaterOrEqual(t, len(chunks), 3)
	assertChunks(t, text, 2000, chunks)

	for _, c := range chunks[:len(chunks)-1] {
		last, _ := utf8.DecodeLastRuneInString(c)
		assert.True(t, strings.ContainsRune(sentenceTerminators, last), "chunk should end on a terminator, got %q", last)
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"empty", "", 10, nil},
		{"fits", "短い。", 10, []string{"短い。"}},
		{"exact limit", "12345", 5, []string{"12345"}},
		{"cuts after terminator", "あいう。えおか", 5, []string{"あいう。", "えおか"}},
		{"hard cut without boundary", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"newline is a boundary", "ab\ncdef", 4, []string{"ab\n", "cdef"}},
		{"ellipsis is a boundary", "まあ…そうやな", 4, []string{"まあ…", "そうやな"}},
		{"zero limit returns whole text", "abc", 0, []string{"abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitMessage(tt.text, tt.limit)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitMessage_CountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("茜", 2000)
	assert.Equal(t, []string{text}, SplitMessage(text, 2000))

	chunks := SplitMessage(text+"！", 2000)
	assertChunks(t, text+"！", 2000, chunks)
	assert.Len(t, chunks, 2)
}

func TestSendSplitMessage_SkipsBlankChunks(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, func(c *HandlerConfig) { c.MessageLimit = 4 })
	ref := &discordgo.MessageReference{MessageID: "m1", ChannelID: "c1"}

	env.h.sendSplitMessage(env.session, "c1", "abc.\n\n\n\nxyz", ref)

	sent := env.session.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "abc.", sent[0].Content)
	assert.True(t, sent[0].Reply)
	assert.Equal(t, "xyz", sent[1].Content)
	assert.Equal(t, ref, sent[1].Data.Reference)
}

func TestSendSplitMessage_WithoutReference(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, nil)

	env.h.sendSplitMessage(env.session, "c1", "hello", nil)

	sent := env.session.sent()
	require.Len(t, sent, 1)
	assert.False(t, sent[0].Reply)
	assert.Nil(t, sent[0].Data)
}

func TestAnalysisEmbeds(t *testing.T) {
	text := strings.Repeat("分析。", 10)

	embeds := AnalysisEmbeds("表現規制", text, 12)
	require.Len(t, embeds, 3)
	assert.Equal(t, "📊 規制分析: 表現規制", embeds[0].Title)
	assert.Equal(t, "📊 規制分析: 表現規制 (続き 2/3)", embeds[1].Title)
	assert.Equal(t, "📊 規制分析: 表現規制 (続き 3/3)", embeds[2].Title)

	var joined strings.Builder
	for _, e := range embeds {
		assert.LessOrEqual(t, utf8.RuneCountInString(e.Description), 12)
		joined.WriteString(e.Description)
	}
	assert.Equal(t, text, joined.String())
}

func TestSendAnalysis_OneEmbedPerMessage(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{}, func(c *HandlerConfig) { c.EmbedLimit = 6 })
	ref := &discordgo.MessageReference{MessageID: "m1"}

	env.h.sendAnalysis(env.session, "c1", "検閲", "一二三。四五六。", ref)

	sent := env.session.sent()
	require.Len(t, sent, 2)
	for _, s := range sent {
		require.NotNil(t, s.Data)
		assert.Len(t, s.Data.Embeds, 1)
	}
	assert.Nil(t, sent[0].Data.AllowedMentions)
	require.NotNil(t, sent[1].Data.AllowedMentions)
	assert.False(t, sent[1].Data.AllowedMentions.RepliedUser)
}
