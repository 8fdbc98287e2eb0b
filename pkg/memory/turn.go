package memory

import (
	"context"
	"time"
)

// Turn is one answered message. Turns are write-once audit records and are
// never read back by the responder.
type Turn struct {
	UserID    string
	GuildID   string
	Input     string
	Output    string
	Analysis  bool
	CreatedAt time.Time
}

// Log is an append-only conversation audit log.
type Log interface {
	AppendTurn(ctx context.Context, turn Turn) error
	// PruneTurns deletes turns created before cutoff and reports how many went.
	PruneTurns(ctx context.Context, cutoff time.Time) (int64, error)
}
