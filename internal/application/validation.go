package application

import (
	"strings"
	"unicode/utf8"

	"github.com/ericfisherdev/whisperedthoughts/internal/domain/model"
)

const (
	receiverMaxLength = 20
	receiverMaxWords  = 2
	passwordMinLength = 6
)

// ValidateStrictCreate applies the form rules the web client enforces:
// content of at least 200 characters, a receiver of at most two words and 20
// characters made of ASCII letters and spaces, and a password of at least 6
// characters. content must already be trimmed.
func ValidateStrictCreate(receiver, content, password string) error {
	if err := validateContentLength(content); err != nil {
		return err
	}
	if err := validateReceiver(receiver); err != nil {
		return err
	}
	if utf8.RuneCountInString(password) < passwordMinLength {
		return model.NewValidationError("Password must be at least 6 characters")
	}
	return nil
}

func validateReceiver(receiver string) error {
	for _, ch := range receiver {
		if !isReceiverChar(ch) {
			return model.NewValidationError("Receiver name may only contain letters and spaces")
		}
	}

	trimmed := strings.TrimSpace(receiver)
	if len(trimmed) > receiverMaxLength || len(strings.Fields(trimmed)) > receiverMaxWords {
		return model.NewValidationError("Receiver name must be at most 2 words and 20 characters")
	}

	return nil
}

func isReceiverChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		ch == ' ' || ch == '\t'
}
