// Package profile derives per-file signatures from a reference dataset: each
// distinct file gets the shortest leading byte sequence that no other
// distinct file in the dataset starts with.
package profile

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/sigprobe/internal/digest"
	"github.com/samcharles93/sigprobe/internal/logger"
)

const (
	DefaultStartLen  = 4
	DefaultMaxLen    = 1024
	DefaultTolerance = 50
)

// DerivedSignature is the rule computed for one representative. The
// Representative and Hash fields are provenance only.
type DerivedSignature struct {
	SizeMin        int64  `json:"size_min"`
	SizeMax        int64  `json:"size_max"`
	PrefixHex      string `json:"prefix_hex"`
	PrefixLen      int    `json:"prefix_len"`
	Representative string `json:"representative"`
	Hash           string `json:"hash"`
	Prefix         []byte `json:"-"`
}

// Options configures a Profiler. Zero StartLen, MaxLen and Digest take the
// package defaults; Tolerance is used as given, see DefaultOptions.
type Options struct {
	StartLen  int
	MaxLen    int
	Tolerance int64
	Digest    digest.Algorithm
	Workers   int
	Logger    logger.Logger
}

func (o Options) withDefaults() Options {
	if o.StartLen <= 0 {
		o.StartLen = DefaultStartLen
	}
	if o.MaxLen <= 0 {
		o.MaxLen = DefaultMaxLen
	}
	if o.Tolerance < 0 {
		o.Tolerance = 0
	}
	if o.Digest == "" {
		o.Digest = digest.MD5
	}
	return o
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		StartLen:  DefaultStartLen,
		MaxLen:    DefaultMaxLen,
		Tolerance: DefaultTolerance,
		Digest:    digest.MD5,
	}
}

// Failure records a representative that produced no signature.
type Failure struct {
	Path string
	Err  error
}

type Result struct {
	RunID      string
	Files      int
	Classes    int
	Signatures []DerivedSignature
	Failures   []Failure
	Skipped    []string
}

type Profiler struct {
	opts Options
}

func New(opts Options) (*Profiler, error) {
	opts = opts.withDefaults()
	if opts.StartLen > opts.MaxLen {
		return nil, fmt.Errorf("profile: start length %d exceeds max length %d", opts.StartLen, opts.MaxLen)
	}
	if _, err := digest.New(opts.Digest); err != nil {
		return nil, err
	}
	return &Profiler{opts: opts}, nil
}

type sample struct {
	path   string
	digest string
	size   int64
	head   []byte
}

// Profile groups paths by content, then searches a unique prefix for every
// representative against all other representatives. Duplicates must be
// collapsed first or a file would never be unique against its own copies.
// Representatives without a unique prefix are reported in Failures and the
// run carries on.
func (p *Profiler) Profile(ctx context.Context, paths []string) (*Result, error) {
	log := p.opts.Logger
	if log == nil {
		log = logger.FromContext(ctx)
	}

	groups, err := Group(ctx, paths, GroupOptions{
		Digest:  p.opts.Digest,
		Workers: p.opts.Workers,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:   uuid.NewString(),
		Files:   len(paths),
		Classes: len(groups.Classes),
		Skipped: groups.Skipped,
	}

	samples := make([]sample, 0, len(groups.Classes))
	for _, c := range groups.Classes {
		rep := c.Representative()
		head, size, err := readHead(rep, p.opts.MaxLen)
		if err != nil {
			log.Debug("skipping unreadable representative", "path", rep, "error", err)
			res.Skipped = append(res.Skipped, rep)
			continue
		}
		samples = append(samples, sample{path: rep, digest: c.Digest, size: size, head: head})
	}

	sigs := make([]*DerivedSignature, len(samples))
	fails := make([]error, len(samples))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(p.opts.Workers))
	for i := range samples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			others := make([][]byte, 0, len(samples)-1)
			for j := range samples {
				if j != i {
					others = append(others, samples[j].head)
				}
			}
			sigs[i], fails[i] = p.derive(samples[i], others)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, s := range samples {
		if fails[i] != nil {
			log.Warn("could not find unique prefix", "path", s.path, "max_len", p.opts.MaxLen)
			res.Failures = append(res.Failures, Failure{Path: s.path, Err: fails[i]})
			continue
		}
		res.Signatures = append(res.Signatures, *sigs[i])
	}

	log.Debug("profile complete",
		"run_id", res.RunID,
		"files", res.Files,
		"classes", res.Classes,
		"signatures", len(res.Signatures),
		"failures", len(res.Failures),
	)
	return res, nil
}

func (p *Profiler) derive(s sample, others [][]byte) (*DerivedSignature, error) {
	prefix, n, err := FindUniquePrefix(s.head, others, p.opts.StartLen, p.opts.MaxLen)
	if err != nil {
		if errors.Is(err, ErrPrefixNotFound) {
			return nil, &PrefixNotFoundError{Path: s.path, MaxLen: p.opts.MaxLen}
		}
		return nil, err
	}
	return &DerivedSignature{
		SizeMin:        s.size - p.opts.Tolerance,
		SizeMax:        s.size + p.opts.Tolerance,
		PrefixHex:      strings.ToUpper(hex.EncodeToString(prefix)),
		PrefixLen:      n,
		Representative: s.path,
		Hash:           s.digest,
		Prefix:         append([]byte(nil), prefix...),
	}, nil
}

// readHead returns up to n leading bytes of the file and its total size.
func readHead(path string, n int) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}
	buf := make([]byte, n)
	m, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, 0, err
	}
	return buf[:m], st.Size(), nil
}
