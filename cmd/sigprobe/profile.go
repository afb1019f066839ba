package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sigprobe/internal/corpus"
	"github.com/samcharles93/sigprobe/internal/digest"
	"github.com/samcharles93/sigprobe/internal/logger"
	"github.com/samcharles93/sigprobe/internal/profile"
)

func profileCmd() *cli.Command {
	var (
		startLen   int64
		maxLen     int64
		digestName string
		outPath    string
	)

	return &cli.Command{
		Name:      "profile",
		Usage:     "Derive a unique prefix signature for every distinct file in a dataset",
		ArgsUsage: "<dataset>",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "start-len",
				Usage:       "shortest prefix considered",
				Value:       profile.DefaultStartLen,
				Destination: &startLen,
			},
			&cli.Int64Flag{
				Name:        "max-len",
				Usage:       "longest prefix considered",
				Value:       profile.DefaultMaxLen,
				Destination: &maxLen,
			},
			&cli.Int64Flag{
				Name:        "tolerance",
				Usage:       "size slack written around each file's size",
				Value:       profile.DefaultTolerance,
				Destination: &tolerance,
			},
			&cli.StringFlag{
				Name:        "digest",
				Usage:       "content digest used to collapse duplicates (md5, sha1, sha256, blake3)",
				Value:       string(digest.MD5),
				Destination: &digestName,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output path (- for stdout)",
				Value:       "file_signatures.json",
				Destination: &outPath,
			},
			workersFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyProfileConfig(cmd, cfg, &startLen, &maxLen, &digestName)

			if cmd.NArg() != 1 {
				return errors.New("profile: exactly one dataset directory is required")
			}
			dataset, err := filepath.Abs(cmd.Args().First())
			if err != nil {
				return err
			}
			if st, err := os.Stat(dataset); err != nil || !st.IsDir() {
				return fmt.Errorf("%q is not a valid directory", dataset)
			}

			alg, err := digest.ParseAlgorithm(digestName)
			if err != nil {
				return err
			}
			p, err := profile.New(profile.Options{
				StartLen:  int(startLen),
				MaxLen:    int(maxLen),
				Tolerance: tolerance,
				Digest:    alg,
				Workers:   int(workers),
				Logger:    log,
			})
			if err != nil {
				return err
			}

			paths, err := corpus.List(ctx, []string{dataset}, corpus.Options{Logger: log})
			if err != nil {
				return err
			}
			res, err := p.Profile(ctx, paths)
			if err != nil {
				return err
			}

			if err := writeSignatures(outPath, res.Signatures); err != nil {
				return err
			}

			sum := res.Summary()
			log.Info("generated signatures",
				"unique_files", len(res.Signatures),
				"files", res.Files,
				"classes", res.Classes,
				"failed", len(res.Failures),
				"skipped", len(res.Skipped),
				"run_id", res.RunID,
			)
			if sum.Count > 0 {
				log.Info("prefix lengths",
					"min", sum.Min,
					"max", sum.Max,
					"mean", fmt.Sprintf("%.2f", sum.Mean),
					"median", sum.Median,
				)
			}
			if outPath != "-" {
				log.Info("saved signatures", "path", outPath)
			}
			if len(res.Failures) > 0 {
				log.Warn("some files have no unique prefix; raise --max-len or check for near-identical files",
					"count", len(res.Failures))
			}
			return nil
		},
	}
}

func writeSignatures(path string, sigs []profile.DerivedSignature) (err error) {
	if path == "-" {
		return profile.WriteJSON(os.Stdout, sigs)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return profile.WriteJSON(f, sigs)
}
