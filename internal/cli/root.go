// Package cli implements the EtherVault command-line interface.
//
// Package-level state holds the per-invocation configuration, logger,
// and formatter. They are initialized in PersistentPreRunE and torn
// down in PersistentPostRun, which is the usual Cobra arrangement.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ethervault/ethervault/internal/config"
	"github.com/ethervault/ethervault/internal/output"
	walleterr "github.com/ethervault/ethervault/pkg/errors"
)

var (
	// Global flags.
	homeDir      string
	outputFormat string
	verbose      bool

	// Global state initialized in PersistentPreRunE.
	cfg       *config.Config
	settings  *config.Settings
	logger    *config.Logger
	formatter *output.Formatter
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ethervault",
	Short: "A single-account custodial Ethereum wallet CLI",
	Long: `EtherVault is a terminal wallet for one Ethereum account.

It keeps an encrypted keystore and wallet record on local disk, talks to a
JSON-RPC node for balances and transfers, and supports ERC-20 tokens through
a local contract registry.

Example:
  ethervault create
  ethervault balance
  ethervault send 0x9858EfFD232B4033E47d90003D41EC34EcaEda94 0.1
  ethervault send 0x9858EfFD232B4033E47d90003D41EC34EcaEda94 25 --token USDC`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initGlobals()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "data directory (default ~/.ethervault)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, or auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newCreateCmd(),
		newRestoreCmd(),
		newImportCmd(),
		newBalanceCmd(),
		newSendCmd(),
		newReceiveCmd(),
		newAddContractCmd(),
		newRemoveContractCmd(),
		newExportCmd(),
		newDecryptCmd(),
		newEraseCmd(),
		newBackupCmd(),
	)
}

// Execute runs the root command, printing any error in the selected
// output format. An interrupt cancels the command context, which in
// particular aborts a pending confirmation wait.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		format := output.FormatText
		if formatter != nil && formatter.IsJSON() {
			format = output.FormatJSON
		}
		_ = output.FormatError(os.Stderr, err, format)
	}
	return err
}

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	return walleterr.ExitCode(err)
}

// home resolves the active data directory.
func home() string {
	if homeDir != "" {
		return homeDir
	}
	return config.DefaultHome()
}

// initGlobals loads configuration and wires the logger and formatter.
func initGlobals() error {
	var err error
	cfg, err = config.Load(home())
	if err != nil {
		return err
	}
	settings, err = config.LoadSettings(home())
	if err != nil {
		return err
	}

	level := config.ParseLogLevel(settings.Logging.Level)
	if verbose {
		level = config.LogLevelDebug
	}
	logger, err = config.NewLogger(level, settings.Logging.File)
	if err != nil {
		// A broken log path must not block wallet operations.
		logger = config.NullLogger()
	}

	format := output.DetectFormat(os.Stdout, output.ParseFormat(outputFormat))
	formatter = output.NewFormatter(format, os.Stdout)
	return nil
}

// cleanup releases per-invocation resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}
