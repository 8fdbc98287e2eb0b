package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// getUserFromInteraction extracts the user ID and name from an interaction
// It handles both guild (Member) and DM (User) contexts
func getUserFromInteraction(i *discordgo.InteractionCreate) (string, string, error) {
	if i.Member != nil && i.Member.User != nil {
		userName := i.Member.User.Username
		if i.Member.Nick != "" {
			userName = i.Member.Nick
		} else if i.Member.User.GlobalName != "" {
			userName = i.Member.User.GlobalName
		}
		return i.Member.User.ID, userName, nil
	}

	if i.User != nil {
		userName := i.User.Username
		if i.User.GlobalName != "" {
			userName = i.User.GlobalName
		}
		return i.User.ID, userName, nil
	}

	return "", "", fmt.Errorf("could not determine user from interaction")
}

// isAdmin reports whether the invoking member holds Administrator in the guild.
func isAdmin(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

type commandOptions map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionsOf(i *discordgo.InteractionCreate) commandOptions {
	opts := make(commandOptions)
	for _, opt := range i.ApplicationCommandData().Options {
		opts[opt.Name] = opt
	}
	return opts
}

// String returns string, channel, user and role option values, which all
// arrive as strings (snowflakes for the latter three).
func (o commandOptions) String(name string) string {
	opt, ok := o[name]
	if !ok {
		return ""
	}
	v, _ := opt.Value.(string)
	return v
}

func (o commandOptions) Int(name string) (int, bool) {
	opt, ok := o[name]
	if !ok {
		return 0, false
	}
	switch v := opt.Value.(type) {
	case float64:
		return int(v), true
	case int64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func respondEphemeral(s Session, i *discordgo.InteractionCreate, content string) {
	interactionRespond(s, i, &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func interactionRespond(s Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Errorf("Error responding to %s command: %v", i.ApplicationCommandData().Name, err)
	}
}
