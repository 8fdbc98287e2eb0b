package database

import (
	"context"
	"fmt"
	"time"

	"akane/pkg/memory"
)

func (d *Database) AppendTurn(ctx context.Context, turn memory.Turn) error {
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO conversation_log (user_id, guild_id, input, output, analysis, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		turn.UserID, turn.GuildID, turn.Input, turn.Output, turn.Analysis, createdAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to append conversation turn: %w", err)
	}
	return nil
}

func (d *Database) PruneTurns(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx, `DELETE FROM conversation_log WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune conversation log: %w", err)
	}
	return res.RowsAffected()
}

// CountTurns reports how many turns the log holds.
func (d *Database) CountTurns(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversation_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count conversation turns: %w", err)
	}
	return n, nil
}
