package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/ryazanov-dist/quorumlock/pkg/distributed/xdlock"
	"github.com/ryazanov-dist/quorumlock/pkg/observability/xlog"
)

const defaultTimeout = 5 * time.Second

// usageError signals a CLI argument mistake; the caller maps it to exit
// code 2, matching the documented contract in main.go's doc comment.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

// exitError carries an already-reported failure's exit code; Error() is
// empty because the command has already written its own message to stderr.
type exitError struct{ code int }

func (e *exitError) Error() string { return "" }

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "quorumlockctl",
		Usage: "exercise the xdlock distributed lock against one or more Redis addresses",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "addr",
				Usage:    "Redis address (host:port); repeat for a quorum of stores",
				Required: true,
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "lease duration",
				Value: xdlock.DefaultTTL,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "per-command deadline",
				Value: defaultTimeout,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "diagnostic log level (debug, info, warn, error); empty disables logging",
			},
		},
		Commands: []*cli.Command{
			acquireCommand(),
			releaseCommand(),
			extendCommand(),
			inspectCommand(),
		},
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

// buildStore constructs one RedisStore per --addr. A single address yields
// the single-node protocol; two or more select the quorum protocol.
func buildStore(cmd *cli.Command) []xdlock.Store {
	addrs := cmd.StringSlice("addr")
	stores := make([]xdlock.Store, 0, len(addrs))
	for _, addr := range addrs {
		client := redis.NewClient(&redis.Options{Addr: addr})
		stores = append(stores, xdlock.NewRedisStore(client, xdlock.WithStoreName(addr)))
	}
	return stores
}

// buildLogger wires the xlog stack behind the xdlock logger contract when
// --log-level is set. Returns nil (meaning "discard") otherwise.
func buildLogger(cmd *cli.Command) (xdlock.Logger, error) {
	levelStr := cmd.String("log-level")
	if levelStr == "" {
		return nil, nil
	}
	inner, _, err := xlog.New().
		SetOutput(os.Stderr).
		SetLevelString(levelStr).
		Build()
	if err != nil {
		return nil, &usageError{msg: err.Error()}
	}
	return xdlock.NewSlogLogger(inner.With(xlog.Component("quorumlockctl"))), nil
}

func withDeadline(ctx context.Context, cmd *cli.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, cmd.Duration("timeout"))
}

// exitCodeFor maps a command's returned error onto the documented exit
// code contract: 2 for argument mistakes, 1 for any other failure.
func exitCodeFor(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(os.Stderr, "argument error: %v\n", usageErr)
		return 2
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}
