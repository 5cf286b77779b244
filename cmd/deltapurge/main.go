package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dev-tams/deltapurge/internal/app"
	"github.com/dev-tams/deltapurge/internal/config"
	"github.com/dev-tams/deltapurge/internal/logging"
)

const (
	exitFailure = 1
	exitConfig  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := runApp(ctx, os.Stdout, os.Stderr, os.Args)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func runApp(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	a := newApp(stdout, stderr)
	return a.RunContext(ctx, hoistFlags(a.Flags, args))
}

// hoistFlags moves options that follow positional arguments in front of
// them, so "deltapurge <uri> --dry-run" parses like "deltapurge --dry-run <uri>".
// Everything after "--" stays positional.
func hoistFlags(flags []cli.Flag, args []string) []string {
	if len(args) < 2 {
		return args
	}

	takesValue := make(map[string]bool)
	for _, f := range flags {
		_, isBool := f.(*cli.BoolFlag)
		for _, name := range f.Names() {
			takesValue[name] = !isBool
		}
	}

	var opts, positional []string
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		if arg == "--" {
			positional = append(positional, rest[i+1:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			positional = append(positional, arg)
			continue
		}

		opts = append(opts, arg)
		name := strings.TrimLeft(arg, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if takesValue[name] && i+1 < len(rest) {
			i++
			opts = append(opts, rest[i])
		}
	}

	out := append([]string{args[0]}, opts...)
	if len(positional) > 0 {
		out = append(out, "--")
		out = append(out, positional...)
	}
	return out
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "deltapurge",
		Usage:     "delete files no longer referenced by a Delta table",
		ArgsUsage: "<table-uri>",
		Flags:     purgeFlags(),
		Writer:    stdout,
		ErrWriter: stderr,
		// Exit codes are decided in main.
		ExitErrHandler:  func(*cli.Context, error) {},
		HideHelpCommand: true,
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return &config.ConfigurationError{Field: "table", Reason: "expected a single table uri"}
			}

			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return &config.ConfigurationError{Field: "config", Reason: "cannot load", Err: err}
			}
			applyFlags(c, cfg)

			if _, err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.New(logging.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Output: stderr,
			})
			if err != nil {
				return &config.ConfigurationError{Field: "log", Reason: "invalid logger settings", Err: err}
			}

			_, err = app.Run(c.Context, cfg, stdout, logger)
			return err
		},
	}
}

func exitCode(err error) int {
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		return exitConfig
	}
	return exitFailure
}
