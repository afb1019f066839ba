package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sigprobe/internal/logger"
	"github.com/samcharles93/sigprobe/internal/signature"
)

const envSigprobeRules = "SIGPROBE_RULES"

// resolveRulesPath returns the rule source to load, or "" for the built-in
// rules. The flag (or config file) wins over the environment.
func resolveRulesPath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(envSigprobeRules))
}

func loadRuleSet(ctx context.Context, flagValue string) (*signature.RuleSet, error) {
	log := logger.FromContext(ctx)
	path := resolveRulesPath(flagValue)
	if path == "" {
		rs := signature.Default()
		log.Debug("using built-in rules", "rules", rs.Len())
		return rs, nil
	}
	rs, err := signature.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rules %s: %w", path, err)
	}
	log.Debug("loaded rules", "path", path, "rules", rs.Len())
	return rs, nil
}

func loadMatcher(ctx context.Context) (*signature.Matcher, error) {
	rs, err := loadRuleSet(ctx, rulesPath)
	if err != nil {
		return nil, err
	}
	return signature.NewMatcher(rs, tolerance), nil
}

func rulesCmd() *cli.Command {
	return &cli.Command{
		Name:  "rules",
		Usage: "Validate a rule source and list rules in evaluation order",
		Flags: rulesFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyMatchConfig(cmd, cfg)
			rs, err := loadRuleSet(ctx, rulesPath)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "TYPE\tMAGIC\tLEN\tSIZE MIN\tSIZE MAX")
			for _, r := range rs.Rules() {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					r.Label, r.MagicHex(), r.MagicLen(), bound(r.SizeMin), bound(r.SizeMax))
			}
			return tw.Flush()
		},
	}
}

func bound(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
