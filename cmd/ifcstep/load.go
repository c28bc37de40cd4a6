package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ifcstep/internal/logger"
	"github.com/samcharles93/ifcstep/pkg/step"
)

func loadCmd() *cli.Command {
	var schemaPath string

	return &cli.Command{
		Name:      "load",
		Usage:     "Open an IFC file and print a summary",
		ArgsUsage: "<path.ifc>",
		Flags:     []cli.Flag{schemaFlag(&schemaPath)},
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

			handles, err := step.GetAllLines(id)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			factor, err := step.LinearScalingFactor(id)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			fmt.Printf("model %d opened from %s\n", id, path)
			fmt.Printf("  lines:                %d\n", len(handles))
			fmt.Printf("  linear scaling factor: %g\n", factor)
			return nil
		},
	}
}

// buildLoaderSettings resolves the schema and wires the command's logger
// through to the loader's diagnostics (relationship-pass skips, unit
// resolution fallback).
func buildLoaderSettings(schemaPath string, log logger.Logger) (step.LoaderSettings, error) {
	settings := step.DefaultLoaderSettings()
	settings.Logger = log
	if schemaPath == "" {
		return settings, nil
	}
	schema, err := step.LoadSchemaJSON(schemaPath)
	if err != nil {
		return step.LoaderSettings{}, err
	}
	settings.Schema = schema
	return settings, nil
}
