// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/nlpd/internal/config"
	"github.com/ManuGH/nlpd/internal/daemon"
	"github.com/ManuGH/nlpd/internal/version"
)

// errUsage marks flag and argument errors.
var errUsage = errors.New("usage")

func isUsageError(err error) bool { return errors.Is(err, errUsage) }

func noArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: unexpected arguments %q", errUsage, args)
	}
	return nil
}

type serveFlags struct {
	configPath  string
	host        string
	port        int
	defaultType string
	timeout     time.Duration
	props       map[string]string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f serveFlags

	root := &cobra.Command{
		Use:           "nlpd",
		Short:         "Annotate text over HTTP",
		Long:          "nlpd answers any HTTP request with an annotation of its body, rendered in the media type negotiated from the Accept header.",
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(f.configPath, overridesFrom(cmd, f))
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, stdout)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	fl := root.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "path to config file (YAML)")
	fl.StringVar(&f.host, "host", config.DefaultHost, "interface to bind")
	fl.IntVar(&f.port, "port", config.DefaultPort, "port to listen on")
	fl.StringVar(&f.defaultType, "default-type", config.DefaultMediaType, "media type used when Accept names nothing renderable")
	fl.DurationVar(&f.timeout, "timeout", config.DefaultTimeout, "per-request pipeline time limit")
	fl.StringToStringVarP(&f.props, "prop", "p", nil, "pipeline property key=value (repeatable)")

	root.AddCommand(newVersionCmd(stdout), newConfigCmd(stdout), newHealthcheckCmd(stdout))
	return root
}

// overridesFrom returns only the flags given on the command line, so that
// defaults never mask file or environment values.
func overridesFrom(cmd *cobra.Command, f serveFlags) config.Overrides {
	var o config.Overrides
	fl := cmd.Flags()
	if fl.Changed("host") {
		o.Host = &f.host
	}
	if fl.Changed("port") {
		o.Port = &f.port
	}
	if fl.Changed("default-type") {
		o.DefaultType = &f.defaultType
	}
	if fl.Changed("timeout") {
		o.Timeout = &f.timeout
	}
	if fl.Changed("prop") {
		o.Properties = f.props
	}
	return o
}

func overridesNone() config.Overrides { return config.Overrides{} }

func loadConfig(path string, o config.Overrides) (config.AppConfig, error) {
	cfg, err := config.NewLoader(strings.TrimSpace(path), version.Version).WithOverrides(o).Load()
	if err != nil {
		return cfg, withCode(1, err)
	}
	return cfg, nil
}

func serve(parent context.Context, cfg config.AppConfig, stdout io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := daemon.Bootstrap(ctx, cfg, daemon.Options{LogOutput: stdout})
	if err != nil {
		return withCode(1, err)
	}
	return app.Run(ctx)
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  noArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(stdout, "%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
