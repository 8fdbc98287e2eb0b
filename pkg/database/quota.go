package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// consumeQuotaSQL creates the (user, day) row at 1 or bumps it by one, but
// only while the stored count is below the limit. When the guard fails the
// upsert is a no-op and RETURNING yields no row.
const consumeQuotaSQL = `
	INSERT INTO usage_log (user_id, date, count) VALUES (?, ?, 1)
	ON CONFLICT (user_id, date) DO UPDATE SET count = usage_log.count + 1
	WHERE usage_log.count < ?
	RETURNING count`

// ConsumeQuota atomically spends one message from the user's allowance for day.
// ok is false when the user already reached limit; nothing is written then.
func (d *Database) ConsumeQuota(ctx context.Context, userID, day string, limit int) (int, bool, error) {
	if limit < 1 {
		return 0, false, nil
	}

	var count int
	err := d.db.QueryRowContext(ctx, consumeQuotaSQL, userID, day, limit).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return limit, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to consume quota for %s: %w", userID, err)
	}
	return count, true, nil
}

// Usage returns how many messages the user spent on day.
func (d *Database) Usage(ctx context.Context, userID, day string) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		`SELECT count FROM usage_log WHERE user_id = ? AND date = ?`, userID, day).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read usage for %s: %w", userID, err)
	}
	return count, nil
}

// PruneUsage removes usage rows for days before beforeDay ("2006-01-02").
func (d *Database) PruneUsage(ctx context.Context, beforeDay string) (int64, error) {
	res, err := d.db.ExecContext(ctx, `DELETE FROM usage_log WHERE date < ?`, beforeDay)
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage: %w", err)
	}
	return res.RowsAffected()
}
