package memory

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

const turnTable = "conversation_log"

// SurrealClient is the part of surreal.Client the log needs.
type SurrealClient interface {
	Query(ctx context.Context, sql string, vars map[string]interface{}) (interface{}, error)
	Insert(ctx context.Context, table string, content map[string]interface{}) error
	DeleteBefore(ctx context.Context, table, field string, cutoff int64) (int64, error)
}

// SurrealLog keeps the conversation audit log in SurrealDB.
type SurrealLog struct {
	client SurrealClient
}

func NewSurrealLog(ctx context.Context, client SurrealClient) *SurrealLog {
	l := &SurrealLog{client: client}
	if err := l.Init(ctx); err != nil {
		// Schema may already exist or the server may come back later
		log.Warnf("Failed to initialize SurrealDB schema: %v", err)
	}
	return l
}

func (l *SurrealLog) Init(ctx context.Context) error {
	query := `
		DEFINE TABLE IF NOT EXISTS conversation_log SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS user_id ON conversation_log TYPE string;
		DEFINE FIELD IF NOT EXISTS guild_id ON conversation_log TYPE string;
		DEFINE FIELD IF NOT EXISTS input ON conversation_log TYPE string;
		DEFINE FIELD IF NOT EXISTS output ON conversation_log TYPE string;
		DEFINE FIELD IF NOT EXISTS analysis ON conversation_log TYPE bool;
		DEFINE FIELD IF NOT EXISTS created_at ON conversation_log TYPE int;
		DEFINE INDEX IF NOT EXISTS conversation_log_created_at ON conversation_log FIELDS created_at;
	`
	_, err := l.client.Query(ctx, query, map[string]interface{}{})
	return err
}

func (l *SurrealLog) AppendTurn(ctx context.Context, turn Turn) error {
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err := l.client.Insert(ctx, turnTable, map[string]interface{}{
		"user_id":    turn.UserID,
		"guild_id":   turn.GuildID,
		"input":      turn.Input,
		"output":     turn.Output,
		"analysis":   turn.Analysis,
		"created_at": createdAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to append conversation turn: %w", err)
	}
	return nil
}

func (l *SurrealLog) PruneTurns(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := l.client.DeleteBefore(ctx, turnTable, "created_at", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune conversation log: %w", err)
	}
	return n, nil
}
