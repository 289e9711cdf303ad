package driven

import (
	"context"
	"errors"
	"time"

	"github.com/ericfisherdev/whisperedthoughts/internal/domain/model"
)

// ErrStoreUnavailable is returned when no pooled connection could be acquired
// within the configured wait.
var ErrStoreUnavailable = errors.New("store unavailable: timed out waiting for a connection")

// AuthorizeFunc inspects the stored password hash of a thought and returns a
// non-nil error to veto the mutation. It may be slow (password hashing) and is
// called without any database connection or lock held.
type AuthorizeFunc func(passwordHash string) error

// ThoughtStore defines the driven port for thought persistence.
//
// UpdateContent and Delete only mutate a row whose stored hash is the one
// authorize accepted; a row deleted in between is reported as
// model.ErrThoughtNotFound, never resurrected or half-updated. UpdateContent returns model.ErrThoughtNotFound when the
// thought does not exist. Delete with a nil authorize removes the row
// unconditionally and reports zero affected rows for a missing id; with a
// non-nil authorize a missing id yields model.ErrThoughtNotFound. Errors
// returned by authorize are passed through unchanged.
type ThoughtStore interface {
	Create(ctx context.Context, t model.NewThought) (model.InsertResult, error)
	ListAll(ctx context.Context) ([]model.Thought, error)
	UpdateContent(ctx context.Context, id int64, content string, updatedAt time.Time, authorize AuthorizeFunc) error
	Delete(ctx context.Context, id int64, authorize AuthorizeFunc) (int64, error)
	Ping(ctx context.Context) error
}
