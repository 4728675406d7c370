package session

import "context"

// Store defines the interface for session storage operations.
type Store interface {
	// Create stores a new session with Version set to 1, replacing any
	// existing session with the same ID.
	Create(ctx context.Context, data *State) error

	// Get retrieves a session by ID.
	// Returns nil if the session is not found (not an error).
	Get(ctx context.Context, id string) (*State, error)

	// Update updates an existing session with optimistic locking.
	// Verifies the Version matches the stored version, increments Version,
	// updates UpdatedAt timestamp, and persists the State.
	// Returns ErrVersionConflict if the version does not match.
	// Returns ErrNotFound if the session does not exist.
	Update(ctx context.Context, data *State) error

	// Delete deletes a session by ID.
	Delete(ctx context.Context, id string) error

	// Close closes the store and releases any resources.
	Close() error
}
