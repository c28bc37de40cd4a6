package main

import (
	"context"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ifcstep/internal/logger"
	"github.com/samcharles93/ifcstep/pkg/step"
)

func queryCmd() *cli.Command {
	var (
		schemaPath string
		typeName   string
		handleStr  string
	)

	return &cli.Command{
		Name:      "query",
		Usage:     "Query lines in an IFC file by type or handle",
		ArgsUsage: "<path.ifc>",
		Flags: []cli.Flag{
			schemaFlag(&schemaPath),
			&cli.StringFlag{
				Name:        "type",
				Usage:       "list handles of this entity label (e.g. IFCWALL)",
				Destination: &typeName,
			},
			&cli.StringFlag{
				Name:        "handle",
				Usage:       "print the raw line for this handle",
				Destination: &handleStr,
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

			switch {
			case handleStr != "":
				return queryHandle(id, handleStr)
			case typeName != "":
				return queryType(id, settings, typeName)
			default:
				return cli.Exit("error: one of --type or --handle is required", 1)
			}
		},
	}
}

func queryHandle(id step.ModelID, handleStr string) error {
	h, err := strconv.ParseUint(handleStr, 10, 32)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: bad handle %q", handleStr), 1)
	}
	line, err := step.GetLine(id, step.Handle(h))
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	out, err := json.MarshalIndent(line, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func queryType(id step.ModelID, settings step.LoaderSettings, typeName string) error {
	schema := settings.Schema
	if schema == nil {
		schema = step.DefaultSchema()
	}
	typeCode, ok := schema.Lookup(typeName)
	if !ok {
		return cli.Exit(fmt.Sprintf("error: unknown type %q in schema", typeName), 1)
	}
	handles, err := step.GetLineIDsWithType(id, typeCode)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	for _, h := range handles {
		fmt.Println(h)
	}
	return nil
}
