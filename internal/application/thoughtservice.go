// Package application holds the use cases of the letter board. Services
// depend only on domain models and driven ports.
package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ericfisherdev/whisperedthoughts/internal/domain/model"
	"github.com/ericfisherdev/whisperedthoughts/internal/domain/port/driven"
)

// Validation messages returned to clients.
const (
	MsgContentRequired     = "Content is required"
	MsgCredentialsRequired = "Username and password are required"
	MsgDeleteParamsMissing = "ID and password are required"
	MsgInvalidID           = "Invalid thought ID"
)

// CreateThoughtInput is the raw create request. Fields are untrimmed.
type CreateThoughtInput struct {
	Receiver string
	Content  string
	Username string
	Password string
}

// UpdateThoughtInput is the raw update request.
type UpdateThoughtInput struct {
	Content  string
	Password string
}

// ThoughtService implements create, list, update and delete of thoughts,
// including input validation and per-record password authorization.
type ThoughtService struct {
	store       driven.ThoughtStore
	hasher      driven.PasswordHasher
	adminSecret string
	strict      bool
	now         func() time.Time
	logger      *slog.Logger
}

// NewThoughtService creates a ThoughtService. adminSecret authorizes deletion
// of any thought; an empty adminSecret disables that path. strict enables the
// additional length and character rules of ValidateStrictCreate.
func NewThoughtService(
	store driven.ThoughtStore,
	hasher driven.PasswordHasher,
	adminSecret string,
	strict bool,
	logger *slog.Logger,
) *ThoughtService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThoughtService{
		store:       store,
		hasher:      hasher,
		adminSecret: adminSecret,
		strict:      strict,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger,
	}
}

// SetClock replaces the time source. Intended for tests.
func (s *ThoughtService) SetClock(now func() time.Time) {
	s.now = now
}

// Create validates in, hashes the password and stores a new thought.
// Content is checked before username and password.
func (s *ThoughtService) Create(ctx context.Context, in CreateThoughtInput) (model.InsertResult, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return model.InsertResult{}, model.NewValidationError(MsgContentRequired)
	}

	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return model.InsertResult{}, model.NewValidationError(MsgCredentialsRequired)
	}

	if s.strict {
		if err := ValidateStrictCreate(in.Receiver, content, in.Password); err != nil {
			return model.InsertResult{}, err
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.InsertResult{}, fmt.Errorf("hash password: %w", err)
	}

	res, err := s.store.Create(ctx, model.NewThought{
		Receiver:     in.Receiver,
		Content:      content,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return model.InsertResult{}, fmt.Errorf("create thought: %w", err)
	}

	s.logger.Info("thought created", "id", res.ID, "content_length", utf8.RuneCountInString(content))

	return res, nil
}

// List returns all thoughts, most recent first.
func (s *ThoughtService) List(ctx context.Context) ([]model.Thought, error) {
	thoughts, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list thoughts: %w", err)
	}
	return thoughts, nil
}

// Update replaces the content of thought id when in.Password matches the
// thought's password. There is no administrative override for updates.
func (s *ThoughtService) Update(ctx context.Context, id int64, in UpdateThoughtInput) error {
	if id <= 0 {
		return model.NewValidationError(MsgInvalidID)
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return model.NewValidationError(MsgContentRequired)
	}

	if s.strict {
		if err := validateContentLength(content); err != nil {
			return err
		}
	}

	err := s.store.UpdateContent(ctx, id, content, s.now(), s.verifier(in.Password, model.ErrUnauthorized))
	if err != nil {
		return fmt.Errorf("update thought %d: %w", id, err)
	}

	return nil
}

// Delete removes thought id. A password equal to the administrative secret
// deletes unconditionally and succeeds even when id does not exist. Any other
// password must match the thought's password; a missing thought or wrong
// password is ErrForbidden.
func (s *ThoughtService) Delete(ctx context.Context, id int64, password string) error {
	if password == "" {
		return model.NewValidationError(MsgDeleteParamsMissing)
	}
	if id <= 0 {
		return model.NewValidationError(MsgInvalidID)
	}

	if s.isAdminSecret(password) {
		n, err := s.store.Delete(ctx, id, nil)
		if err != nil {
			return fmt.Errorf("delete thought %d: %w", id, err)
		}
		s.logger.Info("thought deleted with administrative secret", "id", id, "rows_affected", n)
		return nil
	}

	_, err := s.store.Delete(ctx, id, s.verifier(password, model.ErrForbidden))
	if errors.Is(err, model.ErrThoughtNotFound) {
		return fmt.Errorf("delete thought %d: %w", id, model.ErrForbidden)
	}
	if err != nil {
		return fmt.Errorf("delete thought %d: %w", id, err)
	}

	return nil
}

// Ping reports whether the store is reachable.
func (s *ThoughtService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// verifier returns an AuthorizeFunc that accepts a stored hash matching
// password and rejects anything else with denied.
func (s *ThoughtService) verifier(password string, denied error) driven.AuthorizeFunc {
	return func(hash string) error {
		err := s.hasher.Verify(hash, password)
		if errors.Is(err, driven.ErrMismatchedHash) {
			return denied
		}
		if err != nil {
			return fmt.Errorf("verify password: %w", err)
		}
		return nil
	}
}

func (s *ThoughtService) isAdminSecret(password string) bool {
	if s.adminSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.adminSecret)) == 1
}

// contentMinLength is the strict-mode minimum, counted in characters.
const contentMinLength = 200

func validateContentLength(content string) error {
	if utf8.RuneCountInString(content) < contentMinLength {
		return model.NewValidationError(fmt.Sprintf("Content must be at least %d characters", contentMinLength))
	}
	return nil
}
