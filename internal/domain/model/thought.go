package model

import "time"

// Thought is a letter posted to the board, addressed to a named receiver.
// PasswordHash holds the encoded hash of the per-record password; it is only
// populated by store methods that need it for authorization and is never
// serialized to clients.
type Thought struct {
	ID           int64
	Receiver     string
	Content      string
	Username     string
	PasswordHash string
	Date         time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// NewThought is the validated input for creating a Thought. Content and
// Username are already trimmed and Password is already hashed.
type NewThought struct {
	Receiver     string
	Content      string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// InsertResult is the affected-row metadata returned by a create.
type InsertResult struct {
	ID           int64
	RowsAffected int64
}
