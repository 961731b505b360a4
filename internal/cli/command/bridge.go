package command

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/vibesync/vibebridge/internal/cli/connection"
	"github.com/vibesync/vibebridge/internal/core/domain"
	"github.com/vibesync/vibebridge/pkg/token"
)

// HealthCommand queries /health.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Show bridge liveness, busy state and generation",
		Action: func(c *cli.Context) error {
			res, err := NewClient(c).Health(c.Context)
			if err != nil {
				return err
			}
			return printResult(c, res)
		},
	}
}

type handshakeOutput struct {
	Status        string   `json:"status"`
	EngineVersion string   `json:"engine_version"`
	Capabilities  []string `json:"capabilities"`
	Generation    int64    `json:"generation"`
	Token         string   `json:"token,omitempty"`
	ProofVerified bool     `json:"proof_verified"`
}

// HandshakeCommand advances the session and optionally rotates the token.
func HandshakeCommand() *cli.Command {
	return &cli.Command{
		Name:  "handshake",
		Usage: "Advance the session generation, optionally rotating the token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "new-token", Usage: "token to rotate to"},
			&cli.BoolFlag{Name: "rotate", Usage: "rotate to a freshly generated token"},
			&cli.StringFlag{Name: "challenge", Usage: "challenge for the bridge proof; random when empty"},
		},
		Action: func(c *cli.Context) error {
			if err := requireToken(c); err != nil {
				return err
			}

			newToken := c.String("new-token")
			if newToken == "" && c.Bool("rotate") {
				generated, err := token.GenerateSession()
				if err != nil {
					return fmt.Errorf("generate token: %w", err)
				}
				newToken = generated
			}
			challenge := c.String("challenge")
			if challenge == "" {
				generated, err := token.Generate()
				if err != nil {
					return fmt.Errorf("generate challenge: %w", err)
				}
				challenge = generated
			}

			client := NewClient(c)
			ack, err := client.Handshake(c.Context, newToken, challenge)
			if err != nil {
				return err
			}
			return printResult(c, handshakeOutput{
				Status:        ack.Status,
				EngineVersion: ack.EngineVersion,
				Capabilities:  ack.Capabilities,
				Generation:    ack.Generation,
				Token:         newToken,
				ProofVerified: true,
			})
		},
	}
}

// SendCommand sends a signed request to any whitelisted path.
func SendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send a signed request to a bridge endpoint",
		ArgsUsage: "PATH [JSON]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "request body"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "read the body from a file, - for stdin"},
			&cli.StringFlag{Name: "method", Aliases: []string{"X"}, Usage: "HTTP method", Value: http.MethodPost},
		},
		Action: func(c *cli.Context) error {
			if err := requireToken(c); err != nil {
				return err
			}
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("PATH is required")
			}
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			if _, ok := domain.LookupEndpoint(path); !ok {
				return fmt.Errorf("%s is not a bridge endpoint", path)
			}

			body, err := readBody(c)
			if err != nil {
				return err
			}
			return call(c, strings.ToUpper(c.String("method")), path, body)
		},
	}
}

// MetricsCommand queries /metrics.
func MetricsCommand() *cli.Command {
	return &cli.Command{
		Name:  "metrics",
		Usage: "Show host memory and busy state",
		Action: func(c *cli.Context) error {
			return authedCall(c, http.MethodGet, "/metrics", nil)
		},
	}
}

// LockCommand toggles the host object lock.
func LockCommand() *cli.Command {
	return &cli.Command{
		Name:  "lock",
		Usage: "Lock (or with --release unlock) host objects",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "release", Usage: "release the lock"},
		},
		Action: func(c *cli.Context) error {
			body := fmt.Sprintf(`{"locked":%t}`, !c.Bool("release"))
			return authedCall(c, http.MethodPost, "/object/lock", []byte(body))
		},
	}
}

// PanicCommand pauses the host.
func PanicCommand() *cli.Command {
	return &cli.Command{
		Name:  "panic",
		Usage: "Pause the host; mutations fail until it restarts",
		Action: func(c *cli.Context) error {
			return authedCall(c, http.MethodPost, "/panic", nil)
		},
	}
}

// StateCommand groups the scene state endpoints.
func StateCommand() *cli.Command {
	sub := func(name, path, usage string) *cli.Command {
		return &cli.Command{
			Name:  name,
			Usage: usage,
			Action: func(c *cli.Context) error {
				return authedCall(c, http.MethodPost, path, nil)
			},
		}
	}
	return &cli.Command{
		Name:  "state",
		Usage: "Inspect, validate, commit or roll back host state",
		Subcommands: []*cli.Command{
			sub("get", "/state/get", "Show the current state hash"),
			sub("validate", "/validate", "Validate the scene and show its hash"),
			sub("commit", "/commit", "Checkpoint the current state"),
			sub("rollback", "/rollback", "Restore the last checkpoint"),
		},
	}
}

func authedCall(c *cli.Context, method, path string, body []byte) error {
	if err := requireToken(c); err != nil {
		return err
	}
	return call(c, method, path, body)
}

func call(c *cli.Context, method, path string, body []byte) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := NewClient(c).Do(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	var result map[string]any
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}
	return printResult(c, result)
}

func readBody(c *cli.Context) ([]byte, error) {
	if data := c.String("data"); data != "" {
		return []byte(data), nil
	}
	if c.Args().Len() > 1 {
		return []byte(c.Args().Get(1)), nil
	}
	switch file := c.String("file"); file {
	case "":
		return nil, nil
	case "-":
		return io.ReadAll(c.App.Reader)
	default:
		return os.ReadFile(file)
	}
}
