package profile

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrPrefixNotFound means no length within the search window separates a file
// from every other representative.
var ErrPrefixNotFound = errors.New("profile: no unique prefix within search window")

// PrefixNotFoundError names the representative that could not be separated.
type PrefixNotFoundError struct {
	Path   string
	MaxLen int
}

func (e *PrefixNotFoundError) Error() string {
	return fmt.Sprintf("profile: no unique prefix for %s within %d bytes", e.Path, e.MaxLen)
}

func (e *PrefixNotFoundError) Unwrap() error {
	return ErrPrefixNotFound
}

// FindUniquePrefix returns the shortest prefix of target, between startLen and
// maxLen bytes, that no entry in others shares. An other shorter than the
// candidate length can never collide at that length. The scan is linear in
// length and compares against every other at each step, so the first length
// found is always the smallest. It returns ErrPrefixNotFound when target runs
// out or maxLen is reached first.
func FindUniquePrefix(target []byte, others [][]byte, startLen, maxLen int) ([]byte, int, error) {
	if startLen < 1 {
		startLen = 1
	}
	limit := min(maxLen, len(target))
	for l := startLen; l <= limit; l++ {
		prefix := target[:l]
		if !collides(prefix, others) {
			return prefix, l, nil
		}
	}
	return nil, 0, ErrPrefixNotFound
}

func collides(prefix []byte, others [][]byte) bool {
	l := len(prefix)
	for _, other := range others {
		if len(other) >= l && bytes.Equal(other[:l], prefix) {
			return true
		}
	}
	return false
}
