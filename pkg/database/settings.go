package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ChannelSetting returns the channel stored under name for the guild, or ErrNotFound.
func (d *Database) ChannelSetting(ctx context.Context, guildID, name string) (string, error) {
	var channelID string
	err := d.db.QueryRowContext(ctx,
		`SELECT channel_id FROM guild_settings WHERE guild_id = ? AND name = ?`,
		guildID, name).Scan(&channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s for guild %s: %w", name, guildID, err)
	}
	return channelID, nil
}

func (d *Database) SetChannelSetting(ctx context.Context, guildID, name, channelID string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO guild_settings (guild_id, name, channel_id) VALUES (?, ?, ?)
		ON CONFLICT (guild_id, name) DO UPDATE SET channel_id = excluded.channel_id`,
		guildID, name, channelID)
	if err != nil {
		return fmt.Errorf("failed to save setting %s for guild %s: %w", name, guildID, err)
	}
	return nil
}
