package bot

import (
	"context"
	"fmt"
	"time"

	"akane/pkg/database"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

var adminPermission int64 = discordgo.PermissionAdministrator

// SlashCommands defines all available slash commands
var SlashCommands = []*discordgo.ApplicationCommand{
	{
		Name:                     "setup_autochat",
		Description:              "[管理者] 自動会話チャンネル設定",
		DefaultMemberPermissions: &adminPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "茜が自由にしゃべるチャンネル", Required: true},
		},
	},
	{
		Name:                     "setup_welcome",
		Description:              "[管理者] 挨拶チャンネル設定",
		DefaultMemberPermissions: &adminPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "挨拶を送るチャンネル", Required: true},
		},
	},
	{
		Name:                     "level_reward",
		Description:              "[管理者] レベル報酬ロール設定",
		DefaultMemberPermissions: &adminPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "level", Description: "到達レベル", Required: true},
			{Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "付与するロール", Required: true},
		},
	},
	{
		Name:        "rank",
		Description: "レベルとXPを表示",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "見たいメンバー"},
		},
	},
	{
		Name:        "usage",
		Description: "今日の会話回数を表示",
	},
	{
		Name:        "stats",
		Description: "茜の稼働状況",
	},
	{
		Name:        "translate",
		Description: "AI翻訳",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "text", Description: "翻訳する文章", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "language", Description: "翻訳先の言語 (既定: Japanese)"},
		},
	},
}

// SlashCommandHandlers maps command names to their handler functions
var SlashCommandHandlers = map[string]func(h *Handler, s Session, i *discordgo.InteractionCreate){
	"setup_autochat": handleSetupAutoChatCommand,
	"setup_welcome":  handleSetupWelcomeCommand,
	"level_reward":   handleLevelRewardCommand,
	"rank":           handleRankCommand,
	"usage":          handleUsageCommand,
	"stats":          handleStatsCommand,
	"translate":      handleTranslateCommand,
}

func handleSetupAutoChatCommand(h *Handler, s Session, i *discordgo.InteractionCreate) {
	h.setupChannel(s, i, database.AutoChatChannel, "自動会話を <#%s> にしたで！")
}

func handleSetupWelcomeCommand(h *Handler, s Session, i *discordgo.InteractionCreate) {
	h.setupChannel(s, i, database.WelcomeChannel, "挨拶を <#%s> にしたで！")
}

func (h *Handler) setupChannel(s Session, i *discordgo.InteractionCreate, name, confirmation string) {
	if i.GuildID == "" || !isAdmin(i) {
		respondEphemeral(s, i, "管理者だけが使えるコマンドやで。")
		return
	}

	channelID := optionsOf(i).String("channel")
	if channelID == "" {
		respondEphemeral(s, i, "チャンネルを指定してな。")
		return
	}

	if err := h.settings.SetChannelSetting(context.Background(), i.GuildID, name, channelID); err != nil {
		log.WithField("guild_id", i.GuildID).Errorf("Error saving %s: %v", name, err)
		respondEphemeral(s, i, "保存に失敗したわ…もう一回試してな。")
		return
	}

	interactionRespond(s, i, &discordgo.InteractionResponseData{Content: fmt.Sprintf(confirmation, channelID)})
}

func handleLevelRewardCommand(h *Handler, s Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" || !isAdmin(i) {
		respondEphemeral(s, i, "管理者だけが使えるコマンドやで。")
		return
	}

	opts := optionsOf(i)
	level, ok := opts.Int("level")
	roleID := opts.String("role")
	if !ok || level < 1 || roleID == "" {
		respondEphemeral(s, i, "レベルは1以上、ロールも指定してな。")
		return
	}

	if err := h.levels.SetLevelReward(context.Background(), i.GuildID, level, roleID); err != nil {
		log.WithField("guild_id", i.GuildID).Errorf("Error saving level reward: %v", err)
		respondEphemeral(s, i, "失敗。IDか権限を確認してな。")
		return
	}

	interactionRespond(s, i, &discordgo.InteractionResponseData{
		Content:         fmt.Sprintf("Lv.%d で <@&%s> をあげるで！", level, roleID),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
}

func handleRankCommand(h *Handler, s Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		respondEphemeral(s, i, "ランクはサーバーの中で見てな。")
		return
	}

	userID := optionsOf(i).String("user")
	if userID == "" {
		var err error
		userID, _, err = getUserFromInteraction(i)
		if err != nil {
			log.Errorf("Error: Could not determine user ID for rank command")
			return
		}
	}

	lvl, err := h.levels.UserLevel(context.Background(), i.GuildID, userID)
	if err != nil {
		log.WithField("user_id", userID).Errorf("Error reading level: %v", err)
		respondEphemeral(s, i, "レベルが読まれへんかったわ…")
		return
	}

	interactionRespond(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "📈 ランク",
			Description: fmt.Sprintf("<@%s>\nLv.%d (XP %d/%d)", userID, lvl.Level, lvl.XP, database.XPToNext(lvl.Level)),
			Color:       translateColor,
		}},
	})
}

func handleUsageCommand(h *Handler, s Session, i *discordgo.InteractionCreate) {
	userID, _, err := getUserFromInteraction(i)
	if err != nil {
		log.Errorf("Error: Could not determine user ID for usage command")
		return
	}

	used, err := h.quota.Usage(context.Background(), userID, h.dayKey())
	if err != nil {
		log.WithField("user_id", userID).Errorf("Error reading usage: %v", err)
		respondEphemeral(s, i, "回数が読まれへんかったわ…")
		return
	}

	remaining := h.cfg.DailyLimit - used
	if remaining < 0 {
		remaining = 0
	}
	respondEphemeral(s, i, fmt.Sprintf("今日の会話回数: %d/%d (残り%d回)", used, h.cfg.DailyLimit, remaining))
}

func handleStatsCommand(h *Handler, s Session, i *discordgo.InteractionCreate) {
	snap := h.stats.Snapshot(h.now())
	uptime := time.Duration(snap["uptime_seconds"]) * time.Second

	interactionRespond(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title: "📊 茜ステータス",
			Color: analysisColor,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "受信", Value: fmt.Sprint(snap["messages_seen"]), Inline: true},
				{Name: "応答", Value: fmt.Sprint(snap["responses"]), Inline: true},
				{Name: "回数切れ", Value: fmt.Sprint(snap["quota_rejections"]), Inline: true},
				{Name: "翻訳", Value: fmt.Sprint(snap["translations"]), Inline: true},
				{Name: "エラー", Value: fmt.Sprint(snap["errors"]), Inline: true},
				{Name: "稼働時間", Value: uptime.String(), Inline: true},
			},
		}},
		Flags: discordgo.MessageFlagsEphemeral,
	})
}

func handleTranslateCommand(h *Handler, s Session, i *discordgo.InteractionCreate) {
	opts := optionsOf(i)
	text := opts.String("text")
	language := opts.String("language")
	if language == "" {
		language = "Japanese"
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Errorf("Error deferring translate command: %v", err)
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		content := ApologyMessage
		translated, err := h.Translate(context.Background(), text, language)
		if err != nil {
			h.stats.errors.Add(1)
			log.WithField("language", language).WithError(err).Error("Failed to translate")
			if h.reporter != nil {
				h.reporter.CaptureException(err, map[string]string{"mode": "translate"})
			}
		} else {
			content = truncateRunes("**翻訳:** "+translated, h.cfg.MessageLimit)
		}

		if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: content}); err != nil {
			log.Errorf("Error sending translate follow-up: %v", err)
		}
	}()
}

func (h *Handler) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.HandleInteraction(&DiscordSession{s}, i)
}

// HandleInteraction dispatches slash command interactions
func (h *Handler) HandleInteraction(s Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	commandName := i.ApplicationCommandData().Name

	if handler, ok := SlashCommandHandlers[commandName]; ok {
		handler(h, s, i)
	} else {
		log.Warnf("Unknown slash command: %s", commandName)
	}
}

// RegisterSlashCommands registers all slash commands with Discord
func RegisterSlashCommands(s *discordgo.Session, guildID string) ([]*discordgo.ApplicationCommand, error) {
	log.Info("Registering slash commands...")

	registeredCommands := make([]*discordgo.ApplicationCommand, len(SlashCommands))

	for i, cmd := range SlashCommands {
		// Register globally (guildID = "") or for a specific guild
		registeredCmd, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, cmd)
		if err != nil {
			log.Errorf("Cannot create '%s' command: %v", cmd.Name, err)
			return nil, err
		}
		registeredCommands[i] = registeredCmd
		log.Debugf("Registered command: %s", cmd.Name)
	}

	return registeredCommands, nil
}

// UnregisterSlashCommands removes all registered slash commands
func UnregisterSlashCommands(s *discordgo.Session, guildID string, commands []*discordgo.ApplicationCommand) error {
	log.Info("Unregistering slash commands...")

	for _, cmd := range commands {
		if cmd == nil {
			continue
		}
		err := s.ApplicationCommandDelete(s.State.User.ID, guildID, cmd.ID)
		if err != nil {
			log.Errorf("Cannot delete '%s' command: %v", cmd.Name, err)
			return err
		}
	}

	return nil
}
