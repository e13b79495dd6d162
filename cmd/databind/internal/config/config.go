package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/livefir/databind"
)

const (
	// ConfigFileName is the name of the config file
	ConfigFileName = "config.yaml"

	// DefaultConfigDir is the default directory for databind configuration
	// This will be ~/.config/databind/ on Unix systems
	DefaultConfigDir = ".config/databind"
)

// Config represents the databind command line configuration
type Config struct {
	// HiddenClass is added to nodes whose data-if is false
	HiddenClass string `yaml:"hidden_class" validate:"required"`

	// Locale drives the number and percent formats
	Locale string `yaml:"locale" validate:"required,bcp47_language_tag"`

	// AttributeDirectives are the data-<name> attributes copied into <name>
	AttributeDirectives []string `yaml:"attribute_directives,omitempty" validate:"dive,required,lowercase"`

	// Minify renders minified HTML by default
	Minify bool `yaml:"minify"`

	// Addr is the listen address of the preview server
	Addr string `yaml:"addr" validate:"required,hostname_port"`

	// Version tracks the config file version for future migrations
	Version string `yaml:"version,omitempty"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		HiddenClass:         "hidden",
		Locale:              "en",
		AttributeDirectives: append([]string(nil), databind.DefaultAttributeDirectives...),
		Addr:                "localhost:8080",
		Version:             "1.0",
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, DefaultConfigDir, ConfigFileName), nil
}

// LoadConfig loads the configuration from path, or from the default
// location when path is empty. A missing file yields the default config.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Fields missing from the file keep their defaults
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return config, nil
}

// SaveConfig writes the configuration to path, or to the default location
// when path is empty
func SaveConfig(config *Config, path string) error {
	if err := config.Validate(); err != nil {
		return err
	}

	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against its field rules
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	var msgs []string
	for _, e := range validationErrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "bcp47_language_tag":
			msgs = append(msgs, fmt.Sprintf("%s must be a BCP 47 language tag, got %q", field, e.Value()))
		case "hostname_port":
			msgs = append(msgs, fmt.Sprintf("%s must be host:port, got %q", field, e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", e.Namespace(), e.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Options converts the configuration into binder options
func (c *Config) Options(logger *log.Logger) []databind.Option {
	opts := []databind.Option{
		databind.WithHiddenClass(c.HiddenClass),
		databind.WithLocale(c.Locale),
		databind.WithLogger(logger),
	}
	if len(c.AttributeDirectives) > 0 {
		opts = append(opts, databind.WithAttributeDirectives(c.AttributeDirectives...))
	}
	return opts
}
