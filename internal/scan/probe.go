// Package scan probes candidate files against a signature set and collects
// per-type counters for a run.
package scan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samcharles93/sigprobe/internal/digest"
	"github.com/samcharles93/sigprobe/internal/signature"
)

// ErrUnreadable is matched by errors for files that could not be opened or
// read. Such files are counted apart from Unknown results.
var ErrUnreadable = errors.New("scan: unreadable file")

type UnreadableError struct {
	Path string
	Err  error
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("scan: read %s: %v", e.Path, e.Err)
}

func (e *UnreadableError) Unwrap() []error {
	return []error{ErrUnreadable, e.Err}
}

// ProbeResult is the outcome of matching one file.
type ProbeResult struct {
	Path    string
	Name    string
	Dir     string
	Label   string
	Prefix  []byte
	Size    int64
	Digests map[digest.Algorithm]string
}

// Known reports whether a rule matched.
func (r ProbeResult) Known() bool {
	return r.Label != signature.Unknown
}

// Probe reads the first prefixLen bytes of path, streams the remainder
// through the requested digests, and matches prefix and size against m.
func Probe(path string, m *signature.Matcher, prefixLen int, algs ...digest.Algorithm) (ProbeResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ProbeResult{}, &UnreadableError{Path: path, Err: err}
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return ProbeResult{}, &UnreadableError{Path: path, Err: err}
	}

	set, err := digest.NewSet(algs...)
	if err != nil {
		return ProbeResult{}, err
	}

	head := make([]byte, prefixLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return ProbeResult{}, &UnreadableError{Path: path, Err: err}
	}
	head = head[:n]
	_, _ = set.Write(head)
	if _, err := set.ReadFrom(f); err != nil {
		return ProbeResult{}, &UnreadableError{Path: path, Err: err}
	}

	return ProbeResult{
		Path:    path,
		Name:    filepath.Base(path),
		Dir:     filepath.Dir(path),
		Label:   m.Detect(head, st.Size()),
		Prefix:  head,
		Size:    st.Size(),
		Digests: set.Sums(),
	}, nil
}
