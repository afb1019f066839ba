package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sigprobe/internal/logger"
)

func main() {
	_ = godotenv.Load()

	app := &cli.Command{
		Name:  "sigprobe",
		Usage: "Identify files by magic bytes and derive unique prefixes from a dataset",
		Flags: append(loggingFlags(),
			&cli.StringFlag{
				Name:        "config",
				Usage:       "path to config.yaml (default: user config dir)",
				Destination: &configFile,
			},
		),
		Before: setupLogging,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			scanCmd(),
			detectCmd(),
			profileCmd(),
			rulesCmd(),
			serveCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg = LoadConfig(configFile)
	if cfg.LogLevel != "" && !cmd.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !cmd.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	level := logLevel
	if debug {
		level = "debug"
	}
	log := logger.Setup(os.Stderr, logFormat, level, stderrIsTTY())
	return logger.WithContext(ctx, log), nil
}
