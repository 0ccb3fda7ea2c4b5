// Package history is the gatekeeper's view of previously accepted
// submissions. The store is externally owned shared state: concurrent CI
// jobs for different users append to it, so every mutation must be a
// single atomic, de-duplicated insert.
package history

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Record is one acceptance of a task for a user.
type Record struct {
	ID        string
	UserID    string
	Task      string
	Branch    string
	Accepted  bool
	CreatedAt time.Time
}

// Store is the query/append interface over the submission history.
// Implementations must de-duplicate appends by (user, task) so re-checking
// an already accepted task never produces a second record.
type Store interface {
	// Accepted reports whether the task has an accepted record for the user.
	Accepted(ctx context.Context, userID, task string) (bool, error)
	// AcceptedTasks returns every task accepted for the user, sorted.
	AcceptedTasks(ctx context.Context, userID string) ([]string, error)
	// Append records an acceptance. Appending an existing (user, task)
	// pair is a no-op.
	Append(ctx context.Context, rec *Record) error
	Close() error
}

// stamp fills in the generated fields of a record before insertion.
func stamp(rec *Record) {
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}
