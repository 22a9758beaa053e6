package assistant

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput is returned for requests the transport should reject as a client error
	ErrInvalidInput = errors.New("invalid assistant input")
	// ErrEmptyMessage is returned by ValidateMessage for a blank message
	ErrEmptyMessage = fmt.Errorf("%w: empty message", ErrInvalidInput)
	// ErrCatalogUnavailable is returned when the menu snapshot cannot be read
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrPersistence is returned when committing a finished order fails.
	// The caller must not store the state from that turn.
	ErrPersistence = errors.New("order commit failed")
)

// ValidateMessage trims a chat message and rejects it when nothing is left.
// Transports call it before Handle so blank input never costs a turn.
func ValidateMessage(message string) (string, error) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return "", ErrEmptyMessage
	}
	return msg, nil
}
