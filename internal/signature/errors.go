package signature

import (
	"errors"
	"fmt"
)

// ErrFormat is matched by every error produced while decoding a rule source.
var ErrFormat = errors.New("signature: malformed rule source")

// FormatError reports a rule source that could not be turned into a RuleSet.
// Index is the position of the offending entry in the source list, or -1 when
// the source as a whole is unreadable.
type FormatError struct {
	Index int
	Label string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("signature: invalid rule source: %v", e.Err)
	}
	if e.Label == "" {
		return fmt.Sprintf("signature: rule %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("signature: rule %d (%s): %v", e.Index, e.Label, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func formatErr(index int, label string, format string, args ...any) error {
	return &FormatError{Index: index, Label: label, Err: fmt.Errorf(format, args...)}
}
