// Package corpus lists the regular files under a set of roots.
package corpus

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/samcharles93/sigprobe/internal/logger"
)

type Options struct {
	// ExtensionlessOnly keeps only files whose name has no extension. A single
	// leading dot does not start an extension, so ".hidden" is kept.
	ExtensionlessOnly bool
	Logger            logger.Logger
}

// List walks each root in lexical order and returns regular files. A root
// that does not exist is an error; unreadable entries below a root are
// logged and skipped.
func List(ctx context.Context, roots []string, opts Options) ([]string, error) {
	log := opts.Logger
	if log == nil {
		log = logger.FromContext(ctx)
	}

	var paths []string
	for _, root := range roots {
		st, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			if st.Mode().IsRegular() && keep(root, opts) {
				paths = append(paths, root)
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if path == root {
					return err
				}
				log.Debug("skipping unreadable entry", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if keep(path, opts) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return paths, nil
}

func keep(path string, opts Options) bool {
	if !opts.ExtensionlessOnly {
		return true
	}
	name := strings.TrimPrefix(filepath.Base(path), ".")
	return filepath.Ext(name) == ""
}
