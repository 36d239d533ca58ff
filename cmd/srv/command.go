package main

import "github.com/urfave/cli/v2"

// NewApp creates an app with sane defaults.
func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "ProofQuest"
	app.Usage = ""
	app.Commands = []*cli.Command{
		{
			Action:      server.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Flags:       []cli.Flag{},
			Category:    "Api",
			Description: `Used for start service api, it main service included all apis.`,
		},
		{
			Action:      server.startIndexer,
			Name:        "indexer",
			Usage:       "Start service indexer",
			Flags:       []cli.Flag{},
			Category:    "Worker",
			Description: `Used to start worker that scans the quest factory contract for events.`,
		},
		{
			Action: server.startMigrate,
			Name:   "migrate",
			Usage:  "Run a single versioned migration",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "version", Required: true},
			},
			Category:    "Database",
			Description: `Used to apply one versioned migrator against the database.`,
		},
	}

	s.app = app
}
