package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"akane/pkg/config"
	"akane/pkg/database"
	"akane/pkg/llm"
	"akane/pkg/memory"
	"akane/pkg/persona"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// User-visible fixed replies.
const (
	QuotaExhaustedMessage = "今日の会話回数は終わりや。また明日な！"
	ApologyMessage        = "あかん、調子悪いわ..."
)

// HandlerConfig is the immutable tuning the handler is built with.
type HandlerConfig struct {
	DailyLimit         int
	Location           *time.Location
	CasualMaxTokens    int
	AnalysisMaxTokens  int
	TranslateMaxTokens int
	MessageLimit       int
	EmbedLimit         int
	XPPerMessage       int
	Flags              map[string]string

	ConversationRetention time.Duration
	UsageRetention        time.Duration
	MaintenanceInterval   time.Duration
}

// NewHandlerConfig derives the handler tuning from the loaded config file.
func NewHandlerConfig(cfg *config.Config) HandlerConfig {
	day := 24 * time.Hour
	return HandlerConfig{
		DailyLimit:            cfg.Responder.DailyLimit,
		Location:              cfg.Location(),
		CasualMaxTokens:       cfg.Responder.CasualMaxTokens,
		AnalysisMaxTokens:     cfg.Responder.AnalysisMaxTokens,
		TranslateMaxTokens:    cfg.Responder.TranslateMaxTokens,
		MessageLimit:          cfg.Responder.MessageLimit,
		EmbedLimit:            cfg.Responder.EmbedLimit,
		XPPerMessage:          cfg.Leveling.XPPerMessage,
		Flags:                 cfg.Translation.Flags,
		ConversationRetention: time.Duration(cfg.Maintenance.ConversationRetentionDays) * day,
		UsageRetention:        time.Duration(cfg.Maintenance.UsageRetentionDays) * day,
		MaintenanceInterval:   cfg.MaintenanceInterval(),
	}
}

// Dependencies are the collaborators the handler talks to. Turns, Pruner and
// Reporter are optional.
type Dependencies struct {
	Generator  llm.Generator
	Classifier *persona.Classifier
	Quota      QuotaStore
	Settings   SettingsStore
	Levels     LevelStore
	Turns      memory.Log
	Pruner     UsagePruner
	Reporter   Reporter
}

type Handler struct {
	cfg        HandlerConfig
	generator  llm.Generator
	classifier *persona.Classifier
	quota      QuotaStore
	settings   SettingsStore
	levels     LevelStore
	turns      memory.Log
	pruner     UsagePruner
	reporter   Reporter
	stats      *Stats

	botID   string
	session Session
	wg      sync.WaitGroup

	now            func() time.Time
	typingInterval time.Duration
	noticeTTL      time.Duration
}

func NewHandler(cfg HandlerConfig, deps Dependencies) *Handler {
	if cfg.Location == nil {
		cfg.Location = time.FixedZone("Asia/Tokyo", 9*60*60)
	}
	return &Handler{
		cfg:            cfg,
		generator:      deps.Generator,
		classifier:     deps.Classifier,
		quota:          deps.Quota,
		settings:       deps.Settings,
		levels:         deps.Levels,
		turns:          deps.Turns,
		pruner:         deps.Pruner,
		reporter:       deps.Reporter,
		stats:          NewStats(time.Now()),
		now:            time.Now,
		typingInterval: 8 * time.Second,
		noticeTTL:      5 * time.Second,
	}
}

func (h *Handler) SetBotID(id string) {
	h.botID = id
}

// SetSession hands the background routines a session to post with.
func (h *Handler) SetSession(s Session) {
	h.session = s
}

func (h *Handler) Stats() *Stats {
	return h.stats
}

// StatsSnapshot serves the diagnostics endpoint.
func (h *Handler) StatsSnapshot() map[string]int64 {
	return h.stats.Snapshot(h.now())
}

func (h *Handler) MessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.HandleMessage(&DiscordSession{s}, m)
}

// HandleMessage runs the responder for one inbound message. Generation runs on
// a tracked goroutine so the gateway event loop is never held by the provider.
func (h *Handler) HandleMessage(s Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == h.botID {
		return
	}
	h.stats.messagesSeen.Add(1)

	ctx := context.Background()

	if m.GuildID != "" {
		h.awardXP(ctx, s, m)
	}

	if !h.shouldRespond(ctx, m) {
		return
	}

	text := h.stripMention(m.Content)
	if text == "" {
		return
	}

	day := h.dayKey()
	_, ok, err := h.quota.ConsumeQuota(ctx, m.Author.ID, day, h.cfg.DailyLimit)
	if err != nil {
		h.fail(s, m, err, log.Fields{"user_id": m.Author.ID, "guild_id": m.GuildID, "stage": "quota"})
		return
	}
	if !ok {
		h.stats.quotaRejections.Add(1)
		if _, err := s.ChannelMessageSendReply(m.ChannelID, QuotaExhaustedMessage, m.Reference()); err != nil {
			log.WithField("user_id", m.Author.ID).Warnf("Error sending quota notice: %v", err)
		}
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.respond(ctx, s, m, text)
	}()
}

// shouldRespond reports whether the message is a DM, mentions the bot, or was
// posted in the guild's auto-chat channel.
func (h *Handler) shouldRespond(ctx context.Context, m *discordgo.MessageCreate) bool {
	if m.GuildID == "" {
		return true
	}
	if h.mentionsBot(m) {
		return true
	}
	if h.settings == nil {
		return false
	}

	channelID, err := h.settings.ChannelSetting(ctx, m.GuildID, database.AutoChatChannel)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.WithField("guild_id", m.GuildID).Warnf("Error reading auto-chat channel: %v", err)
		}
		return false
	}
	return channelID == m.ChannelID
}

func (h *Handler) mentionsBot(m *discordgo.MessageCreate) bool {
	if h.botID == "" {
		return false
	}
	for _, user := range m.Mentions {
		if user != nil && user.ID == h.botID {
			return true
		}
	}
	return strings.Contains(m.Content, "<@"+h.botID+">") || strings.Contains(m.Content, "<@!"+h.botID+">")
}

func (h *Handler) stripMention(content string) string {
	if h.botID != "" {
		content = strings.ReplaceAll(content, "<@"+h.botID+">", "")
		content = strings.ReplaceAll(content, "<@!"+h.botID+">", "")
	}
	return strings.TrimSpace(content)
}

// dayKey is the quota bucket for the current instant in the configured zone.
func (h *Handler) dayKey() string {
	return h.now().In(h.cfg.Location).Format("2006-01-02")
}

func displayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}

func (h *Handler) WaitForReady() {
	h.wg.Wait()
}
