package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ifcstep/internal/logger"
	"github.com/samcharles93/ifcstep/pkg/step"
)

func dumpCmd() *cli.Command {
	var (
		schemaPath string
		outPath    string
	)

	return &cli.Command{
		Name:      "dump",
		Usage:     "Load an IFC file and re-serialize it back to STEP text",
		ArgsUsage: "<path.ifc>",
		Flags: []cli.Flag{
			schemaFlag(&schemaPath),
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output path (defaults to stdout)",
				Destination: &outPath,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			cfg := LoadConfig()
			applyLoadConfig(cmd, cfg, &schemaPath)

			path := cmd.Args().First()
			if path == "" {
				return cli.Exit("error: a file path is required", 1)
			}

			settings, err := buildLoaderSettings(schemaPath, log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			id, err := step.OpenModelFile(path, settings)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer step.CloseModel(id)

			if outPath != "" {
				if err := step.ExportFileAsIFCToPath(id, outPath); err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				log.Info("exported model", "model", id, "path", outPath)
				return nil
			}

			data, err := step.ExportFileAsIFC(id)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
}
