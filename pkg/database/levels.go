package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Level struct {
	XP    int
	Level int
}

// XPToNext is the xp needed to leave level.
func XPToNext(level int) int {
	return level * 100
}

// addXPSQL applies one award atomically. SET expressions read the pre-update
// row, so the level check and the xp reset see the same old values.
const addXPSQL = `
	INSERT INTO users (guild_id, user_id, xp, level) VALUES (?, ?, ?, 1)
	ON CONFLICT (guild_id, user_id) DO UPDATE SET
		level = CASE WHEN users.xp + excluded.xp >= users.level * 100 THEN users.level + 1 ELSE users.level END,
		xp    = CASE WHEN users.xp + excluded.xp >= users.level * 100 THEN 0 ELSE users.xp + excluded.xp END
	RETURNING xp, level`

// AddXP grants amount xp. Reaching level*100 xp moves the member up one level
// and resets xp to zero; leveledUp reports that transition.
func (d *Database) AddXP(ctx context.Context, guildID, userID string, amount int) (Level, bool, error) {
	if amount <= 0 {
		lvl, err := d.UserLevel(ctx, guildID, userID)
		return lvl, false, err
	}

	var lvl Level
	err := d.db.QueryRowContext(ctx, addXPSQL, guildID, userID, amount).Scan(&lvl.XP, &lvl.Level)
	if err != nil {
		return Level{}, false, fmt.Errorf("failed to add xp for %s: %w", userID, err)
	}

	// A positive award only lands on zero xp through a level-up reset.
	return lvl, lvl.XP == 0, nil
}

// UserLevel returns the member's progress; unknown members are level 1 with no xp.
func (d *Database) UserLevel(ctx context.Context, guildID, userID string) (Level, error) {
	var lvl Level
	err := d.db.QueryRowContext(ctx,
		`SELECT xp, level FROM users WHERE guild_id = ? AND user_id = ?`,
		guildID, userID).Scan(&lvl.XP, &lvl.Level)
	if errors.Is(err, sql.ErrNoRows) {
		return Level{XP: 0, Level: 1}, nil
	}
	if err != nil {
		return Level{}, fmt.Errorf("failed to read level for %s: %w", userID, err)
	}
	return lvl, nil
}

func (d *Database) SetLevelReward(ctx context.Context, guildID string, level int, roleID string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO level_rewards (guild_id, level, role_id) VALUES (?, ?, ?)
		ON CONFLICT (guild_id, level) DO UPDATE SET role_id = excluded.role_id`,
		guildID, level, roleID)
	if err != nil {
		return fmt.Errorf("failed to save level reward: %w", err)
	}
	return nil
}

// LevelRewards lists reward roles for every level up to and including upTo.
func (d *Database) LevelRewards(ctx context.Context, guildID string, upTo int) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT role_id FROM level_rewards WHERE guild_id = ? AND level <= ? ORDER BY level`,
		guildID, upTo)
	if err != nil {
		return nil, fmt.Errorf("failed to query level rewards: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var roleID string
		if err := rows.Scan(&roleID); err != nil {
			return nil, fmt.Errorf("failed to scan level reward: %w", err)
		}
		roles = append(roles, roleID)
	}
	return roles, rows.Err()
}
