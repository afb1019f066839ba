package main

import (
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sigprobe/internal/signature"
)

var (
	configFile string
	cfg        Config

	rulesPath string
	tolerance int64
	prefixLen int64
	workers   int64

	logLevel  string
	logFormat string
	debug     bool
)

func rulesFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "rules",
			Aliases:     []string{"r"},
			Usage:       "path to a JSON or YAML rule source (default: $" + envSigprobeRules + " or built-in rules)",
			Destination: &rulesPath,
		},
		&cli.Int64Flag{
			Name:        "tolerance",
			Usage:       "size slack in bytes applied to both ends of a rule's size window",
			Value:       signature.DefaultTolerance,
			Destination: &tolerance,
		},
	}
}

func prefixFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:        "prefix-len",
		Aliases:     []string{"n"},
		Usage:       "leading bytes read from each file",
		Value:       signature.DefaultPrefixLen,
		Destination: &prefixLen,
	}
}

func workersFlag() cli.Flag {
	return &cli.Int64Flag{
		Name:        "workers",
		Aliases:     []string{"j"},
		Usage:       "parallel file workers (0 = GOMAXPROCS)",
		Destination: &workers,
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (auto, pretty, json, text)",
			Value:       "auto",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
