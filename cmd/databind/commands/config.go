package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/livefir/databind/cmd/databind/internal/config"
)

const configKeys = "hidden_class, locale, attribute_directives, minify, addr"

func newConfigCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the databind configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get KEY",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.ConfigPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			value, err := configGet(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE...",
		Short: "Change one configuration value",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.ConfigPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := configSet(cfg, args[0], args[1:]); err != nil {
				return err
			}
			if err := config.SaveConfig(cfg, opts.ConfigPath); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Set %s to: %s\n", args[0], strings.Join(args[1:], " "))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print all configuration values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.ConfigPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration:")
			fmt.Fprintln(out)
			for _, key := range strings.Split(configKeys, ", ") {
				value, _ := configGet(cfg, key)
				fmt.Fprintf(out, "%-22s %s\n", key+":", value)
			}
			fmt.Fprintln(out)

			path := opts.ConfigPath
			if path == "" {
				path, _ = config.GetConfigPath()
			}
			fmt.Fprintf(out, "Config file: %s\n", path)
			return nil
		},
	})

	return cmd
}

func configGet(cfg *config.Config, key string) (string, error) {
	switch key {
	case "hidden_class":
		return cfg.HiddenClass, nil
	case "locale":
		return cfg.Locale, nil
	case "attribute_directives":
		return strings.Join(cfg.AttributeDirectives, " "), nil
	case "minify":
		return strconv.FormatBool(cfg.Minify), nil
	case "addr":
		return cfg.Addr, nil
	}
	return "", fmt.Errorf("unknown key: %s (expected: %s)", key, configKeys)
}

func configSet(cfg *config.Config, key string, values []string) error {
	value := strings.Join(values, " ")
	switch key {
	case "hidden_class":
		cfg.HiddenClass = value
	case "locale":
		cfg.Locale = value
	case "attribute_directives":
		cfg.AttributeDirectives = values
	case "minify":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("minify must be true or false: %w", err)
		}
		cfg.Minify = b
	case "addr":
		cfg.Addr = value
	default:
		return fmt.Errorf("unknown key: %s (expected: %s)", key, configKeys)
	}
	return nil
}
