package storage

import (
	"context"

	"github.com/sgpatel/ai-chat-api-assistant/internal/flow"
)

// StateStore defines the interface for conversation state persistence. One
// record is kept per user; a turn reads the record, mutates it, and writes
// it back.
type StateStore interface {
	// Load retrieves the state for a user. A user with no stored state
	// yields (nil, nil), not an error.
	Load(ctx context.Context, userID string) (*flow.State, error)

	// Save writes the state keyed by its UserID, replacing any previous
	// record.
	Save(ctx context.Context, st *flow.State) error

	// Delete removes a user's state. Deleting an absent state is a no-op.
	Delete(ctx context.Context, userID string) error

	// Close closes the storage connection
	Close() error
}
