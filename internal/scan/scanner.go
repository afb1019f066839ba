package scan

import (
	"context"
	"errors"
	"runtime"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/sigprobe/internal/digest"
	"github.com/samcharles93/sigprobe/internal/logger"
	"github.com/samcharles93/sigprobe/internal/signature"
)

type Options struct {
	PrefixLen int
	Digests   []digest.Algorithm
	// IncludeUnknown keeps Unknown results in Report.Results.
	IncludeUnknown bool
	Order          Order
	Workers        int
	Logger         logger.Logger
}

// Summary holds the end-of-run counters.
type Summary struct {
	RunID      string         `json:"run_id"`
	Total      int            `json:"total"`
	Matched    int            `json:"matched"`
	Unknown    int            `json:"unknown"`
	Unreadable int            `json:"unreadable"`
	Counts     map[string]int `json:"counts"`
}

// Labels returns the matched labels in report order.
func (s Summary) Labels(order Order) []string {
	labels := make([]string, 0, len(s.Counts))
	for l := range s.Counts {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	slices.SortStableFunc(labels, func(a, b string) int {
		return order.Rank(a) - order.Rank(b)
	})
	return labels
}

type Report struct {
	Results []ProbeResult
	Summary Summary
}

type Scanner struct {
	matcher *signature.Matcher
	opts    Options
}

func NewScanner(m *signature.Matcher, opts Options) *Scanner {
	opts.PrefixLen = m.PrefixLen(opts.PrefixLen)
	if opts.Digests == nil {
		opts.Digests = []digest.Algorithm{digest.MD5, digest.SHA1}
	}
	if opts.Order == nil {
		opts.Order = DefaultOrder
	}
	return &Scanner{matcher: m, opts: opts}
}

// PrefixLen is the number of leading bytes read per file. It is never shorter
// than the longest rule magic.
func (s *Scanner) PrefixLen() int {
	return s.opts.PrefixLen
}

// Run probes every path and returns the sorted report. Unreadable files and
// Unknown matches are counted; only cancellation or a bad digest setup stops
// the run.
func (s *Scanner) Run(ctx context.Context, paths []string) (*Report, error) {
	log := s.opts.Logger
	if log == nil {
		log = logger.FromContext(ctx)
	}
	if _, err := digest.NewSet(s.opts.Digests...); err != nil {
		return nil, err
	}

	results := make([]ProbeResult, len(paths))
	errs := make([]error, len(paths))

	workers := s.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = Probe(path, s.matcher, s.opts.PrefixLen, s.opts.Digests...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{Summary: Summary{
		RunID:  uuid.NewString(),
		Total:  len(paths),
		Counts: make(map[string]int),
	}}
	for i, r := range results {
		if errs[i] != nil {
			if !errors.Is(errs[i], ErrUnreadable) {
				return nil, errs[i]
			}
			log.Debug("skipping unreadable file", "error", errs[i])
			rep.Summary.Unreadable++
			continue
		}
		if !r.Known() {
			rep.Summary.Unknown++
			if !s.opts.IncludeUnknown {
				continue
			}
		} else {
			rep.Summary.Matched++
			rep.Summary.Counts[r.Label]++
		}
		rep.Results = append(rep.Results, r)
	}
	SortResults(rep.Results, s.opts.Order)
	return rep, nil
}
