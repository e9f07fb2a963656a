package collection

import (
	"errors"
	"strings"

	"github.com/mousetail/mousetail/internal/errcode"
)

// ErrClosed is returned by handle methods after Close.
var ErrClosed = errors.New("collection handle is closed")

// FromMessage turns a collaborator error message into a coded error. The
// message is kept verbatim.
func FromMessage(msg string) error {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = "collection engine returned an empty error"
	}
	return errcode.Wrap(classifyMessage(msg), errors.New(msg))
}

func classifyMessage(msg string) errcode.Code {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "locked"),
		strings.Contains(lower, "database is busy"),
		strings.Contains(lower, "no such file"),
		strings.Contains(lower, "collection not found"):
		return errcode.CollectionUnavailable
	case strings.Contains(lower, "not found"):
		return errcode.NotFound
	default:
		return errcode.Internal
	}
}

// Unavailable returns a CollectionUnavailable error.
func Unavailable(format string, args ...any) error {
	return errcode.New(errcode.CollectionUnavailable, format, args...)
}
