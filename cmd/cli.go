// SPDX-License-Identifier: MIT

// Package cmd wires the arpsd command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"arpsd/internal/config"
	applog "arpsd/internal/log"
	"arpsd/pkg/build"

	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	verbose    bool

	cfg *config.Config // loaded before any command runs
}

// Execute runs the command line with os.Args and stops on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	buildInfo := build.GetBuildFlags()
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Configuration file. Default is "+config.DefaultConfigFile+" when present")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.AddCommand(
		newAnalyzeCmd(opts),
		newCaptureCmd(opts),
		newOrderCmd(opts),
		newGenCmd(),
		newDevicesCmd(),
	)
	return rootCmd
}

// load reads the configuration and sets the log level from it.
func (o *rootOptions) load() error {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return err
	}
	level, _ := applog.ParseLevel(cfg.LogLevel)
	if o.verbose {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)
	o.cfg = cfg
	return nil
}

// requireArgs is cobra.MinimumNArgs with a message naming what is missing.
func requireArgs(n int, what string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return fmt.Errorf("%s: missing %s", cmd.CommandPath(), what)
		}
		return nil
	}
}
