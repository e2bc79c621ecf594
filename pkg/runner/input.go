package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxLineLength bounds one typed command line.
	MaxLineLength = 256
	// MaxIDLength bounds machine, symptom and step ids sent by clients.
	MaxIDLength = 128
	// EnvMaxInputSize overrides MaxLineLength.
	EnvMaxInputSize = "TECHNINJA_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input too long")
	ErrInvalidUTF8   = errors.New("input is not valid UTF-8")
	ErrInvalidID     = errors.New("invalid id")
)

// CleanLine normalizes one line typed at the wizard prompt.
// Control characters are dropped and whitespace runs collapse to a single
// space, so "  2\t" reads as "2" and an ANSI-colored "q" still quits.
func CleanLine(line string) (string, error) {
	if limit := lineLimit(); len(line) > limit {
		return "", fmt.Errorf("%w (%d bytes, limit %d)", ErrInputTooLarge, len(line), limit)
	}
	if !utf8.ValidString(line) {
		return "", ErrInvalidUTF8
	}

	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, line)
	return strings.Join(strings.Fields(mapped), " "), nil
}

// InvalidIDError reports an id that can never name a machine, symptom or step.
type InvalidIDError struct {
	Field  string
	ID     string
	Reason string
}

func (e *InvalidIDError) Error() string {
	id := e.ID
	if len(id) > 32 {
		id = id[:32] + "..."
	}
	return fmt.Sprintf("%s %q %s", e.Field, id, e.Reason)
}

func (e *InvalidIDError) Unwrap() error { return ErrInvalidID }

// CheckID validates an id received from an HTTP or MCP client before it
// reaches the wizard. Graph ids are plain tokens: no whitespace, no control
// characters, at most MaxIDLength bytes.
func CheckID(field, id string) error {
	var reason string
	switch {
	case id == "":
		reason = "is required"
	case len(id) > MaxIDLength:
		reason = fmt.Sprintf("is longer than %d bytes", MaxIDLength)
	case !utf8.ValidString(id):
		reason = "is not valid UTF-8"
	case strings.IndexFunc(id, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0:
		reason = "contains whitespace or control characters"
	default:
		return nil
	}
	return &InvalidIDError{Field: field, ID: id, Reason: reason}
}

func lineLimit() int {
	if n, err := strconv.Atoi(os.Getenv(EnvMaxInputSize)); err == nil && n > 0 {
		return n
	}
	return MaxLineLength
}
