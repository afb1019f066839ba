package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sigprobe/internal/logger"
	"github.com/samcharles93/sigprobe/internal/scan"
)

func detectCmd() *cli.Command {
	return &cli.Command{
		Name:      "detect",
		Usage:     "Print the detected type of individual files",
		ArgsUsage: "<file...>",
		Flags:     append(rulesFlags(), prefixFlag()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyMatchConfig(cmd, cfg)
			if cmd.NArg() == 0 {
				return errors.New("detect: at least one file is required")
			}
			if prefixLen <= 0 {
				return fmt.Errorf("--prefix-len must be positive")
			}
			m, err := loadMatcher(ctx)
			if err != nil {
				return err
			}

			n := m.PrefixLen(int(prefixLen))
			if n != int(prefixLen) {
				log.Info("prefix length raised to fit the longest rule", "prefix_len", n)
			}

			unreadable := 0
			for _, path := range cmd.Args().Slice() {
				r, err := scan.Probe(path, m, n)
				if err != nil {
					if !errors.Is(err, scan.ErrUnreadable) {
						return err
					}
					log.Warn("cannot read file", "path", path, "error", err)
					unreadable++
					continue
				}
				fmt.Printf("%s\t%s\n", path, r.Label)
			}
			if unreadable > 0 {
				log.Info("some files were skipped", "unreadable", unreadable)
			}
			return nil
		},
	}
}
