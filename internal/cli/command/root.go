package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/vibesync/vibebridge/internal/cli/connection"
	"github.com/vibesync/vibebridge/internal/cli/output"
	"github.com/vibesync/vibebridge/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "vibebridge-cli",
		Usage:   "Orchestrator client for the vibebridge host bridge",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			HealthCommand(),
			HandshakeCommand(),
			SendCommand(),
			MetricsCommand(),
			LockCommand(),
			PanicCommand(),
			StateCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "bridge address",
			EnvVars: []string{"VIBEBRIDGE_SERVER"},
			Value:   "127.0.0.1:8085",
		},
		&cli.StringFlag{
			Name:    "token",
			Aliases: []string{"t"},
			Usage:   "session token (bootstrap or rotated)",
			EnvVars: []string{"VIBEBRIDGE_TOKEN"},
		},
		&cli.Int64Flag{
			Name:    "generation",
			Aliases: []string{"g"},
			Usage:   "session generation to send; omitted when unset",
			EnvVars: []string{"VIBEBRIDGE_GENERATION"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
			Value:   "table",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "request timeout",
			Value: 10 * time.Second,
		},
	}
}

// GlobalFlags holds the parsed global flags.
type GlobalFlags struct {
	Server        string
	Token         string
	Generation    int64
	HasGeneration bool
	Output        output.Format
	Timeout       time.Duration
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	format, _ := output.ParseFormat(c.String("output"))
	return &GlobalFlags{
		Server:        c.String("server"),
		Token:         c.String("token"),
		Generation:    c.Int64("generation"),
		HasGeneration: c.IsSet("generation"),
		Output:        format,
		Timeout:       c.Duration("timeout"),
	}
}

// NewClient builds a signed client from the global flags.
func NewClient(c *cli.Context) *connection.HTTPClient {
	flags := ParseGlobalFlags(c)
	opts := []connection.Option{connection.WithTimeout(flags.Timeout)}
	if flags.HasGeneration {
		opts = append(opts, connection.WithGeneration(flags.Generation))
	}
	return connection.NewHTTPClient(flags.Server, flags.Token, opts...)
}

func requireToken(c *cli.Context) error {
	if c.String("token") == "" {
		return fmt.Errorf("--token (or VIBEBRIDGE_TOKEN) is required")
	}
	return nil
}

func printResult(c *cli.Context, data any) error {
	return output.NewFormatter(ParseGlobalFlags(c).Output).Format(c.App.Writer, data)
}
