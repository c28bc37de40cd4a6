package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ifcstep/internal/debugapi"
	"github.com/samcharles93/ifcstep/internal/logger"
	"github.com/samcharles93/ifcstep/pkg/step"
)

func serveCmd() *cli.Command {
	var (
		addr              string
		schemaPath        string
		requestsPerSecond float64
		burst             int64
	)

	return &cli.Command{
		Name:      "serve",
		Usage:     "Open IFC files and serve a read-only debug API over them",
		ArgsUsage: "<path.ifc> [path.ifc...]",
		Flags: []cli.Flag{
			schemaFlag(&schemaPath),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.FloatFlag{
				Name:        "rate",
				Usage:       "requests per second allowed before 429s are returned",
				Value:       20,
				Destination: &requestsPerSecond,
			},
			&cli.Int64Flag{
				Name:        "burst",
				Usage:       "burst size for the rate limiter",
				Value:       40,
				Destination: &burst,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			cfg := LoadConfig()
			applyServeConfig(cmd, cfg, &addr)
			applyLoadConfig(cmd, cfg, &schemaPath)

			settings, err := buildLoaderSettings(schemaPath, log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			paths := cmd.Args().Slice()
			var opened []step.ModelID
			defer func() {
				for _, id := range opened {
					_ = step.CloseModel(id)
				}
			}()
			for _, path := range paths {
				id, err := step.OpenModelFile(path, settings)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error opening %s: %v", path, err), 1)
				}
				opened = append(opened, id)
				log.Info("opened model", "model", id, "path", path)
			}

			srv := debugapi.New(log, requestsPerSecond, int(burst))
			return srv.Start(ctx, addr)
		},
	}
}
