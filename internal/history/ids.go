package history

import "github.com/google/uuid"

// IDGenerator mints run IDs. Production code uses UUIDGenerator; tests
// substitute a fixed sequence for deterministic history.
type IDGenerator interface {
	NewRunID() string
}

// UUIDGenerator generates time-sortable UUIDv7 run IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, so IDs sort by
// creation time. Combined with the started_at ordering this keeps runs
// listed in a stable, chronological order even within the same nanosecond.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// NewRunID creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDGenerator) NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}
