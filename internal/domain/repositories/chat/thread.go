package chat

import (
	"context"
	"time"

	"maimai/internal/domain/models/chat"
)

// ThreadRepository defines data access for threads
type ThreadRepository interface {
	// Create inserts a thread and fills ID and timestamps
	Create(ctx context.Context, thread *chat.Thread) error

	// GetByID retrieves a thread scoped to its owner (hidden threads included)
	// Returns domain.ErrNotFound if not found
	GetByID(ctx context.Context, threadID, userID string) (*chat.Thread, error)

	// List retrieves the user's threads, most recently updated first
	List(ctx context.Context, userID string, opts chat.ThreadListOptions) ([]chat.Thread, error)

	// Update writes title, project, system prompt and hidden flag
	Update(ctx context.Context, thread *chat.Thread) error

	// Touch bumps updated_at
	Touch(ctx context.Context, threadID string, at time.Time) error

	// AcquireSendLock leases the thread for one in-flight send until the given time.
	// Returns false when another send holds an unexpired lease.
	AcquireSendLock(ctx context.Context, threadID, userID string, until time.Time) (bool, error)

	// ReleaseSendLock clears the lease only while it still expires at until,
	// so a lease taken over by a later send is left alone
	ReleaseSendLock(ctx context.Context, threadID string, until time.Time) error
}
