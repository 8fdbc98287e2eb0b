package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup has no row.
var ErrNotFound = errors.New("not found")

// Channel setting names stored in guild_settings.
const (
	AutoChatChannel = "auto_chat_channel_id"
	WelcomeChannel  = "welcome_channel_id"
)

type Database struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite file at dbPath and applies migrations.
func Open(dbPath string) (*Database, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode so readers don't block the quota writer
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	d := &Database{db: db}
	if err := d.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Infof("Database initialized at %s", dbPath)
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *Database) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS usage_log (
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			UNIQUE (user_id, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_log_date ON usage_log(date)`,
		`CREATE TABLE IF NOT EXISTS guild_settings (
			guild_id TEXT NOT NULL,
			name TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			PRIMARY KEY (guild_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			xp INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (guild_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS level_rewards (
			guild_id TEXT NOT NULL,
			level INTEGER NOT NULL,
			role_id TEXT NOT NULL,
			PRIMARY KEY (guild_id, level)
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			guild_id TEXT NOT NULL DEFAULT '',
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			analysis INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_log_created_at ON conversation_log(created_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}
