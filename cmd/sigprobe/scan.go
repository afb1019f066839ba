package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sigprobe/internal/corpus"
	"github.com/samcharles93/sigprobe/internal/logger"
	"github.com/samcharles93/sigprobe/internal/scan"
)

func scanCmd() *cli.Command {
	var (
		outPath        string
		format         string
		all            bool
		includeUnknown bool
		order          []string
	)

	return &cli.Command{
		Name:      "scan",
		Usage:     "Detect the real type of files under one or more directories",
		ArgsUsage: "[root...]",
		Flags: append(rulesFlags(),
			prefixFlag(),
			workersFlag(),
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "report path (- for stdout)",
				Value:       "sigprobe_scan_results.csv",
				Destination: &outPath,
			},
			&cli.StringFlag{
				Name:        "format",
				Usage:       "report format (csv, json)",
				Value:       "csv",
				Destination: &format,
			},
			&cli.BoolFlag{
				Name:        "all",
				Usage:       "scan files that have an extension too",
				Destination: &all,
			},
			&cli.BoolFlag{
				Name:        "include-unknown",
				Usage:       "keep unmatched files in the report",
				Destination: &includeUnknown,
			},
			&cli.StringSliceFlag{
				Name:        "order",
				Usage:       "type labels in report order",
				Destination: &order,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyMatchConfig(cmd, cfg)
			applyScanConfig(cmd, cfg, &order)

			if format != "csv" && format != "json" {
				return fmt.Errorf("unsupported report format %q", format)
			}
			if prefixLen <= 0 {
				return fmt.Errorf("--prefix-len must be positive")
			}

			m, err := loadMatcher(ctx)
			if err != nil {
				return err
			}

			roots := cmd.Args().Slice()
			if len(roots) == 0 {
				roots = []string{"."}
			}
			for _, root := range roots {
				log.Info("scanning", "root", root)
			}
			paths, err := corpus.List(ctx, roots, corpus.Options{ExtensionlessOnly: !all, Logger: log})
			if err != nil {
				return err
			}

			reportOrder := scan.DefaultOrder
			if len(order) > 0 {
				reportOrder = scan.Order(order)
			}
			scanner := scan.NewScanner(m, scan.Options{
				PrefixLen:      int(prefixLen),
				IncludeUnknown: includeUnknown,
				Order:          reportOrder,
				Workers:        int(workers),
				Logger:         log,
			})
			rep, err := scanner.Run(ctx, paths)
			if err != nil {
				return err
			}

			if n := scanner.PrefixLen(); n != int(prefixLen) {
				log.Info("prefix length raised to fit the longest rule", "prefix_len", n)
			}
			if err := writeReport(outPath, format, rep, scanner.PrefixLen()); err != nil {
				return err
			}
			if outPath != "-" {
				log.Info("scan complete", "report", outPath, "run_id", rep.Summary.RunID)
			}
			if err := scan.WriteSummary(os.Stderr, rep.Summary, reportOrder); err != nil {
				return err
			}
			return nil
		},
	}
}

func writeReport(path, format string, rep *scan.Report, prefixLen int) (err error) {
	w := os.Stdout
	if path != "-" {
		f, createErr := os.Create(path)
		if createErr != nil {
			return createErr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	switch strings.ToLower(format) {
	case "json":
		return scan.WriteJSON(w, rep)
	default:
		return scan.WriteCSV(w, rep.Results, prefixLen)
	}
}
