package databind

import (
	"log"
)

// Directive attribute names. These spellings are the markup contract
// templates are written against.
const (
	AttrObject       = "data-object"
	AttrList         = "data-list"
	AttrMap          = "data-map"
	AttrValue        = "data-value"
	AttrHTML         = "data-html"
	AttrIf           = "data-if"
	AttrBullet       = "data-bullet"
	AttrID           = "data-id"
	AttrFormat       = "data-format"
	AttrClass        = "data-class"
	AttrItemTemplate = "data-item-template"
)

// DefaultAttributeDirectives are the data-<name> attributes copied into <name>
var DefaultAttributeDirectives = []string{"src", "href", "title", "alt", "name", "action", "placeholder"}

// Config holds binder configuration options
type Config struct {
	HiddenClass         string   // class added to nodes whose data-if is false
	Locale              string   // BCP 47 tag for the number and percent formats
	AttributeDirectives []string // data-<name> attributes written to <name>
	Logger              *log.Logger
	Formats             map[string]Formatter
	Elements            map[string]ElementFactory
}

// DefaultConfig returns the configuration used by New without options
func DefaultConfig() Config {
	return Config{
		HiddenClass:         "hidden",
		Locale:              "en",
		AttributeDirectives: append([]string(nil), DefaultAttributeDirectives...),
		Logger:              log.Default(),
	}
}

// Option is a functional option for configuring a Binder
type Option func(*Config)

// WithHiddenClass sets the class used to hide nodes whose data-if is false
func WithHiddenClass(class string) Option {
	return func(c *Config) {
		c.HiddenClass = class
	}
}

// WithLocale sets the locale of the number and percent formats
func WithLocale(locale string) Option {
	return func(c *Config) {
		c.Locale = locale
	}
}

// WithAttributeDirectives replaces the attribute directive names
func WithAttributeDirectives(names ...string) Option {
	return func(c *Config) {
		c.AttributeDirectives = names
	}
}

// WithLogger sets the logger receiving binding warnings. nil silences them.
func WithLogger(logger *log.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithFormat registers a formatter selectable with data-format
func WithFormat(name string, f Formatter) Option {
	return func(c *Config) {
		if c.Formats == nil {
			c.Formats = make(map[string]Formatter)
		}
		c.Formats[name] = f
	}
}

// WithElement registers an element factory selectable with data-class
func WithElement(name string, factory ElementFactory) Option {
	return func(c *Config) {
		if c.Elements == nil {
			c.Elements = make(map[string]ElementFactory)
		}
		c.Elements[name] = factory
	}
}
