// Package ledger provides the durable message log and its SQLite implementation.
package ledger

import (
	"context"

	"github.com/rcliao/memoryd/internal/model"
)

// Ledger is the append-only message log with processed-state tracking.
// Messages are created on every chat turn and flipped to processed exactly
// once, atomically with the run record; they are never deleted.
type Ledger interface {
	// Append records a new unprocessed message and returns it with its
	// assigned id.
	Append(ctx context.Context, threadID, role, content string) (*model.Message, error)

	// CountUnprocessed returns the number of messages not yet consolidated.
	CountUnprocessed(ctx context.Context) (int, error)

	// OldestUnprocessed returns up to limit unprocessed messages, oldest first.
	OldestUnprocessed(ctx context.Context, limit int) ([]model.Message, error)

	// Recent returns the last limit messages of a thread in chronological order.
	Recent(ctx context.Context, threadID string, limit int) ([]model.Message, error)

	// CompleteRun marks the given message ids processed and appends one
	// reflection-run record, in a single transaction. A failure rolls back
	// both: no partial processed flags, no dangling run record.
	CompleteRun(ctx context.Context, ids []int64, categories []string) (*model.ReflectionRun, error)

	// LastRun returns the most recent reflection run, or nil if none exists.
	LastRun(ctx context.Context) (*model.ReflectionRun, error)

	// Close closes the ledger.
	Close() error
}
