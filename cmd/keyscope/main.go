// Package main is the entry point for the keyscope editor session.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/keyscope/internal/app"
	"github.com/dshills/keyscope/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	cmd := &cobra.Command{
		Use:   "keyscope [flags] [files...]",
		Short: "A modal editing session driven by commands",
		Long: `keyscope runs an editing session that reads commands from its input,
one statement list per line. rc files are sourced at startup and, with
--watch, again whenever they change.

Examples:
  keyscope notes.txt                 Open a file
  keyscope --rc ~/.kakrc -e 'echo hi' Source an rc file and run a command
  keyscope -e 'write out.txt' -e quit Run commands without input`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(*cobra.Command, []string) error {
			switch opts.LogLevel {
			case "", "debug", "info", "warn", "error":
				return nil
			}
			return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", opts.LogLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Files = args
			opts.Input = cmd.InOrStdin()
			opts.Output = cmd.OutOrStdout()
			opts.LogOutput = cmd.ErrOrStderr()

			application, err := app.New(opts)
			if err != nil {
				return err
			}
			defer application.Shutdown()
			return application.Run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default is "+config.DefaultPath()+")")
	flags.StringArrayVar(&opts.RC, "rc", nil, "command file to source at startup (repeatable)")
	flags.StringArrayVarP(&opts.Execute, "execute", "e", nil, "command to run after startup (repeatable)")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.Session, "session", "", "session name")
	flags.BoolVarP(&opts.Watch, "watch", "w", false, "re-source rc files when they change")
	flags.BoolVarP(&opts.Display, "display", "d", false, "print the buffer after each change")
	return cmd
}
