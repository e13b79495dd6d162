// Package commands implements the databind command line.
package commands

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/livefir/databind"
	"github.com/livefir/databind/cmd/databind/internal/config"
)

// Options holds the flags shared by every command
type Options struct {
	ConfigPath string
	Quiet      bool
}

// NewRootCommand assembles the databind command tree
func NewRootCommand(version string) *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:   "databind",
		Short: "Bind YAML or JSON data into HTML templates",
		Long: `databind renders HTML templates annotated with data-* directives
(data-object, data-list, data-map, data-value, data-if, ...) against a YAML
or JSON data file, lints templates, and serves a live-reloading preview.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/databind/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress binding warnings")

	root.AddCommand(newRenderCommand(opts))
	root.AddCommand(newCheckCommand(opts))
	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newConfigCommand(opts))

	return root
}

// logger returns the warning logger for a command
func (o *Options) logger(cmd *cobra.Command) *log.Logger {
	if o.Quiet {
		return log.New(devNull{}, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "databind: ", 0)
}

// binder loads the configuration and builds a binder from it
func (o *Options) binder(cmd *cobra.Command) (*databind.Binder, *config.Config, error) {
	cfg, err := config.LoadConfig(o.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return databind.New(cfg.Options(o.logger(cmd))...), cfg, nil
}

type devNull struct{}

func (devNull) Write(p []byte) (int, error) { return len(p), nil }

// Execute runs the command line and exits on failure
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
