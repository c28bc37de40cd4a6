package main

import "github.com/urfave/cli/v3"

var (
	logLevel  string
	logFormat string
)

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
			Usage:       "log format (pretty, json)",
			Value:       "pretty",
			Destination: &logFormat,
		},
	}
}

func schemaFlag(dest *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "schema",
		Usage:       "path to a JSON label->code schema table overriding the built-in one",
		Destination: dest,
	}
}
