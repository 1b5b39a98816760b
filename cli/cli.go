package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "apibench"

type App struct {
	logger zerolog.Logger
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Compare REST and GraphQL access to the same catalog backend",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
				&cli.StringFlag{
					Name:    "config",
					Aliases: []string{"c"},
					Usage:   "YAML file overlaying the default sweep and protocol settings",
					EnvVars: []string{"APIBENCH_CONFIG"},
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "run",
		Usage:  "Run the full two-round comparison sweep",
		Action: app.run,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "iterations",
				Aliases: []string{"i"},
				Usage:   "Override the iterations per configuration",
			},
			&cli.StringFlag{
				Name:  "results-dir",
				Usage: "Override the directory CSV exports are written to",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "quick",
		Usage:  "Run one products call per transport in two rounds and average them",
		Action: app.quick,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "results-dir",
				Usage: "Override the directory CSV exports are written to",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "complexity",
		Usage:  "Export the structural complexity comparison of both client integrations",
		Action: app.complexityAnalysis,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "results-dir",
				Usage: "Override the directory CSV exports are written to",
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "check",
		Usage:  "Check that both transports can load products, packages and resellers",
		Action: app.check,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "list",
		Usage:  "List previous runs",
		Action: app.list,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Filter by run type (run, quick, complexity, check)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Limit number of results (default: 20)",
				Value:   20,
			},
		},
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:            "view",
		Usage:           "View a run from history",
		ArgsUsage:       "[ID|INDEX]",
		Action:          app.view,
		SkipFlagParsing: true,
		Description: `View a run from history.

Arguments:
  0           View last run (default)
  -1          View 2nd last run
  -2          View 3rd last run
  <id>        View run matching the ID prefix

Examples:
  apibench view              # View last run
  apibench view -1           # View 2nd last run
  apibench view 0 -top       # Pass -top to go tool pprof
  apibench view 3f2a -- -http=:8080

Display Priority:
  1. Latency profile (latency.pb.gz), opened with go tool pprof
  2. Statistics CSV
  3. Text report`,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:   "serve",
		Usage:  "Serve the reference catalog over REST and GraphQL",
		Action: app.serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: ":4000",
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "PostgreSQL DSN; the built-in fixtures are served when empty",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:  "fixtures",
				Usage: "YAML fixtures file to serve instead of the built-in catalog",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "Seed for the reseller map sampling (default: time based)",
			},
		},
	})
	return app
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && len(commit) >= 8 {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}
