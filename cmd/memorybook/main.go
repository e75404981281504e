// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "memorybook: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are flags shared by every command
type globalOptions struct {
	configPath string
	dbType     string
	dbPath     string
	dbDSN      string
	port       int
	logLevel   string
}

func (o *globalOptions) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to config file (default ~/.memorybook/configs/config.json)",
			Destination: &o.configPath,
		},
		&cli.StringFlag{
			Name:        "db-type",
			Usage:       "Database type: sqlite or postgres",
			Category:    "Database",
			Destination: &o.dbType,
		},
		&cli.StringFlag{
			Name:        "db-path",
			Usage:       "SQLite database path",
			Category:    "Database",
			Destination: &o.dbPath,
		},
		&cli.StringFlag{
			Name:        "db-dsn",
			Usage:       "PostgreSQL connection string",
			Category:    "Database",
			Destination: &o.dbDSN,
		},
		&cli.IntFlag{
			Name:        "port",
			Usage:       "HTTP server port",
			Destination: &o.port,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level: debug, info, warn, error",
			Destination: &o.logLevel,
		},
	}
}

func newApp() *cli.Command {
	var opts globalOptions

	return &cli.Command{
		Name:    "memorybook",
		Usage:   "Share content and let it accumulate into topic memories",
		Version: version,
		Flags:   opts.flags(),
		Commands: []*cli.Command{
			cmdServe(&opts),
			cmdMCP(&opts),
			cmdMigrate(&opts),
		},
	}
}
