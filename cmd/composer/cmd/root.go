package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/composer-wrapper/internal/config"
	"github.com/oshokin/composer-wrapper/internal/logger"
	"github.com/oshokin/composer-wrapper/internal/service/wrapper"
)

// argsTerminator is put in front of the user's arguments so that cobra treats
// none of them as a subcommand, its hidden completion commands included.
const argsTerminator = "--"

// runFunc receives the user's arguments exactly as they were given.
type runFunc func(ctx context.Context, args []string) error

// rootCmd installs composer.phar on demand and hands every argument over to it.
//
//nolint:gochecknoglobals // Cobra root command.
var rootCmd = newRootCmd(runWrapper)

func newRootCmd(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "composer [args...]",
		Short: "Install, update and run composer.phar.",
		Long: `Bootstrap wrapper around the Composer package manager.

Downloads composer.phar next to this binary (or into COMPOSER_DIR) when it is
missing, verifying the installer against the published SHA-384 checksum.
A PHAR older than seven days is refreshed with "composer self-update".
All arguments are passed to Composer unchanged and its exit code is preserved.

Environment:
  COMPOSER_DIR                directory holding composer.phar
  COMPOSER_WRAPPER_CONFIG     optional YAML settings file
  COMPOSER_WRAPPER_PHP        PHP command line used to run the installer
  COMPOSER_WRAPPER_LOG_LEVEL  wrapper log level (debug, info, warn, error)`,
		Args: cobra.ArbitraryArgs,

		// Flags such as --version or --help belong to Composer.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,

		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},

		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if len(args) > 0 && args[0] == argsTerminator {
				args = args[1:]
			}

			return run(ctx, args)
		},
	}
}

// runWrapper builds the wrapper from the environment and runs it.
func runWrapper(ctx context.Context, args []string) error {
	cfg, err := config.FromEnv(os.LookupEnv)
	if err != nil {
		return err
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	if cfg.DefaultDir, err = wrapper.DefaultDir(); err != nil {
		return err
	}

	w, err := wrapper.New(cfg)
	if err != nil {
		return err
	}

	return w.Run(ctx, args)
}

// execute runs cmd with args kept away from cobra's command routing.
func execute(cmd *cobra.Command, args []string) error {
	cmd.SetArgs(append([]string{argsTerminator}, args...))

	return cmd.Execute()
}

// Execute runs the wrapper and exits with the delegated or failure status.
func Execute() {
	err := execute(rootCmd, os.Args[1:])
	if err == nil {
		return
	}

	var exitErr *wrapper.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}

	logger.ErrorKV(context.Background(), "Composer wrapper failed", "error", err)
	logger.Sync()
	os.Exit(1)
}
