package bot

import (
	"context"

	"akane/pkg/database"

	"github.com/bwmarrin/discordgo"
)

// Session interface abstracts discordgo.Session for testing
type Session interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelTyping(channelID string, options ...discordgo.RequestOption) (err error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	UpdateStatusComplex(usd discordgo.UpdateStatusData) error
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordSession adapts discordgo.Session to the Session interface
type DiscordSession struct {
	*discordgo.Session
}

// QuotaStore spends the per-user daily allowance. Implemented by the sqlite
// database and the Redis quota.
type QuotaStore interface {
	ConsumeQuota(ctx context.Context, userID, day string, limit int) (int, bool, error)
	Usage(ctx context.Context, userID, day string) (int, error)
}

type SettingsStore interface {
	ChannelSetting(ctx context.Context, guildID, name string) (string, error)
	SetChannelSetting(ctx context.Context, guildID, name, channelID string) error
}

type LevelStore interface {
	AddXP(ctx context.Context, guildID, userID string, amount int) (database.Level, bool, error)
	UserLevel(ctx context.Context, guildID, userID string) (database.Level, error)
	SetLevelReward(ctx context.Context, guildID string, level int, roleID string) error
	LevelRewards(ctx context.Context, guildID string, upTo int) ([]string, error)
}

// UsagePruner drops quota rows older than a day key.
type UsagePruner interface {
	PruneUsage(ctx context.Context, beforeDay string) (int64, error)
}

type Reporter interface {
	CaptureException(err error, tags map[string]string)
}
