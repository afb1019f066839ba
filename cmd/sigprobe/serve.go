package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sigprobe/internal/api"
	"github.com/samcharles93/sigprobe/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		cacheSize   int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve signature detection over HTTP",
		Flags: append(rulesFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "request header read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "cache-size",
				Usage:       "number of probe results kept for lookup",
				Value:       api.DefaultStoreSize,
				Destination: &cacheSize,
			},
			prefixFlag(),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyMatchConfig(cmd, cfg)
			applyServeConfig(cmd, cfg, &addr, &cacheSize)

			matcher, err := loadMatcher(ctx)
			if err != nil {
				return err
			}
			store, err := api.NewProbeStore(int(cacheSize))
			if err != nil {
				return err
			}
			server, err := api.NewServer(matcher, store, int(prefixLen))
			if err != nil {
				return err
			}

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server",
				"address", addr,
				"rules", matcher.Rules().Len(),
				"tolerance", matcher.Tolerance(),
				"cache_size", cacheSize,
			)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
