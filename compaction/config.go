package compaction

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultMaxConsecutiveAttempts = 5      // Loop guard ceiling
	DefaultMaxTokensForModel      = 200000 // Claude Sonnet 4.5 context window
	DefaultAnnotateUsage          = true
)

// DefaultOverflowPatterns match the phrasing providers use when the input
// exceeds the context window. Matching is case-insensitive.
var DefaultOverflowPatterns = []string{
	`context[ _-]?(length|limit|window)[ _-]?(exceeded|reached)`,
	`exceeds? the (model'?s )?(context|maximum context)[ _-]?(window|length|limit)?`,
	`token[ _-]?limit[ _-]?(exceeded|reached)`,
	`maximum (context length|number of tokens|tokens?)( \w+)? (exceeded|is \d+)`,
	`(input|prompt) (is )?too long`,
	`max_tokens_exceeded`,
	`context_length_exceeded`,
}

// Config holds compaction configuration.
type Config struct {
	// Enabled exposes the compaction tool to the model.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// MaxConsecutiveAttempts is the number of back-to-back assistant turns
	// engaging the compaction tool after which Reduce fails.
	// Default: 5
	MaxConsecutiveAttempts int `yaml:"max_consecutive_attempts"`

	// OverflowPatterns replaces the default overflow patterns when non-empty.
	OverflowPatterns []string `yaml:"overflow_patterns"`

	// ExtraOverflowPatterns are appended to the active overflow patterns.
	ExtraOverflowPatterns []string `yaml:"extra_overflow_patterns"`

	// MaxTokensForModel is the context window used to annotate the retry
	// request with an estimated usage percentage. Zero disables the annotation.
	// Default: 200000
	MaxTokensForModel int `yaml:"max_tokens_for_model"`

	// AnnotateUsage controls the usage percentage in the retry request.
	// Default: true
	AnnotateUsage bool `yaml:"annotate_usage"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxConsecutiveAttempts: DefaultMaxConsecutiveAttempts,
		OverflowPatterns:       append([]string(nil), DefaultOverflowPatterns...),
		MaxTokensForModel:      DefaultMaxTokensForModel,
		AnnotateUsage:          DefaultAnnotateUsage,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.MaxConsecutiveAttempts == 0 {
		c.MaxConsecutiveAttempts = DefaultMaxConsecutiveAttempts
	}
	if len(c.OverflowPatterns) == 0 {
		c.OverflowPatterns = append([]string(nil), DefaultOverflowPatterns...)
	}
	// A zero MaxTokensForModel disables the usage annotation.
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.MaxConsecutiveAttempts <= 0 {
		return fmt.Errorf("%w: max_consecutive_attempts must be positive, got %d",
			ErrInvalidConfig, c.MaxConsecutiveAttempts)
	}

	if c.MaxTokensForModel < 0 {
		return fmt.Errorf("%w: max_tokens_for_model must be non-negative, got %d",
			ErrInvalidConfig, c.MaxTokensForModel)
	}

	for _, p := range c.patterns() {
		if _, err := regexp.Compile("(?i)" + p); err != nil {
			return fmt.Errorf("%w: overflow pattern %q: %v", ErrInvalidConfig, p, err)
		}
	}

	return nil
}

// Classifier compiles the configured overflow patterns.
func (c *Config) Classifier() (*Classifier, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return NewClassifier(c.patterns()...)
}

func (c *Config) patterns() []string {
	patterns := c.OverflowPatterns
	if len(patterns) == 0 {
		patterns = DefaultOverflowPatterns
	}
	out := make([]string, 0, len(patterns)+len(c.ExtraOverflowPatterns))
	out = append(out, patterns...)
	out = append(out, c.ExtraOverflowPatterns...)
	return out
}

// ParseConfig decodes a YAML document on top of DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compaction config: %w", err)
	}
	return ParseConfig(data)
}
