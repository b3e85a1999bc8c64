package ctxcompact

import (
	"go.uber.org/zap"

	"github.com/youssefsiam38/ctxcompact/compaction"
	"github.com/youssefsiam38/ctxcompact/hooks"
	"github.com/youssefsiam38/ctxcompact/tool"
)

// Option is a functional option for configuring a Guard
type Option func(*internalConfig) error

// WithLogger sets the logger used by the reducer and the stream interceptors.
// *slog.Logger satisfies compaction.Logger.
func WithLogger(logger compaction.Logger) Option {
	return func(c *internalConfig) error {
		if logger == nil {
			return NewGuardError("WithLogger", ErrInvalidConfig).
				WithContext("reason", "logger must not be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithZapLogger logs through a zap logger
func WithZapLogger(logger *zap.Logger) Option {
	return func(c *internalConfig) error {
		c.logger = hooks.NewZapLogger(logger)
		return nil
	}
}

// WithHooks installs a hook registry. Without it the Guard creates its own.
func WithHooks(registry *hooks.Registry) Option {
	return func(c *internalConfig) error {
		if registry == nil {
			return NewGuardError("WithHooks", ErrInvalidConfig).
				WithContext("reason", "registry must not be nil")
		}
		c.hookReg = registry
		return nil
	}
}

// WithClassifier overrides the classifier built from the configured patterns
func WithClassifier(classifier *compaction.Classifier) Option {
	return func(c *internalConfig) error {
		c.classifier = classifier
		return nil
	}
}

// WithModel sizes the usage annotation for the model's context window
func WithModel(model string) Option {
	return func(c *internalConfig) error {
		c.model = model
		return nil
	}
}

// WithTools registers additional tools next to the compaction tool
func WithTools(tools ...tool.Tool) Option {
	return func(c *internalConfig) error {
		for _, t := range tools {
			// Validate tool schema
			schema := t.InputSchema()
			if schema.Type != "object" {
				return NewGuardError("WithTools", ErrInvalidToolSchema).
					WithContext("tool", t.Name()).
					WithContext("reason", "schema type must be 'object'")
			}
			if t.Name() == compaction.ToolName || t.Name() == compaction.MarkerToolName {
				return NewGuardError("WithTools", ErrInvalidToolSchema).
					WithContext("tool", t.Name()).
					WithContext("reason", "tool name is reserved")
			}
			c.tools = append(c.tools, t)
		}
		return nil
	}
}
