package profile

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/sigprobe/internal/digest"
	"github.com/samcharles93/sigprobe/internal/logger"
)

// ContentClass is a set of paths whose full contents hash to the same digest.
type ContentClass struct {
	Digest string
	Paths  []string
}

// Representative is the first path encountered for the class.
func (c ContentClass) Representative() string {
	return c.Paths[0]
}

// Groups is the result of Group. Classes are in first-encountered order.
type Groups struct {
	Classes []ContentClass
	// Skipped holds paths that could not be read.
	Skipped []string
}

// ByDigest returns the digest to paths mapping.
func (g *Groups) ByDigest() map[string][]string {
	out := make(map[string][]string, len(g.Classes))
	for _, c := range g.Classes {
		out[c.Digest] = c.Paths
	}
	return out
}

// Representatives returns one path per class.
func (g *Groups) Representatives() []string {
	out := make([]string, len(g.Classes))
	for i, c := range g.Classes {
		out[i] = c.Representative()
	}
	return out
}

type GroupOptions struct {
	Digest  digest.Algorithm
	Workers int
	Logger  logger.Logger
}

// Group buckets paths by full-content digest. Files that cannot be read are
// left out of every bucket and listed in Skipped. Hashing runs on up to
// Workers goroutines but the result matches a sequential pass over paths.
func Group(ctx context.Context, paths []string, opts GroupOptions) (*Groups, error) {
	alg := opts.Digest
	if alg == "" {
		alg = digest.MD5
	}
	if _, err := digest.New(alg); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logger.FromContext(ctx)
	}

	sums := make([]string, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(opts.Workers))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sums[i], errs[i] = digest.File(path, alg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Groups{}
	index := make(map[string]int, len(paths))
	for i, path := range paths {
		if errs[i] != nil {
			log.Debug("skipping unreadable file", "path", path, "error", errs[i])
			out.Skipped = append(out.Skipped, path)
			continue
		}
		if j, ok := index[sums[i]]; ok {
			out.Classes[j].Paths = append(out.Classes[j].Paths, path)
			continue
		}
		index[sums[i]] = len(out.Classes)
		out.Classes = append(out.Classes, ContentClass{Digest: sums[i], Paths: []string{path}})
	}
	return out, nil
}

func workerCount(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}
