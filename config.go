package ctxcompact

import (
	"github.com/youssefsiam38/ctxcompact/compaction"
	"github.com/youssefsiam38/ctxcompact/hooks"
	"github.com/youssefsiam38/ctxcompact/tool"
)

// ModelInfo contains model-specific parameters
type ModelInfo struct {
	MaxContextTokens int
}

// KnownModels maps model IDs to their context window
var KnownModels = map[string]ModelInfo{
	// Claude 4 models
	"claude-sonnet-4-5-20250929": {MaxContextTokens: 200000},
	"claude-opus-4-5-20251101":   {MaxContextTokens: 200000},
	"claude-haiku-4-5-20251001":  {MaxContextTokens: 200000},
	// Claude 3.5 models
	"claude-3-5-sonnet-20241022": {MaxContextTokens: 200000},
	"claude-3-5-haiku-20241022":  {MaxContextTokens: 200000},
	// OpenAI models
	"gpt-4o":      {MaxContextTokens: 128000},
	"gpt-4o-mini": {MaxContextTokens: 128000},
	"gpt-4.1":     {MaxContextTokens: 1047576},
	"o3":          {MaxContextTokens: 200000},
}

// GetModelInfo returns model info, using sensible defaults for unknown models
func GetModelInfo(model string) ModelInfo {
	if info, ok := KnownModels[model]; ok {
		return info
	}
	// Sensible defaults for unknown models
	return ModelInfo{MaxContextTokens: compaction.DefaultMaxTokensForModel}
}

// internalConfig holds everything options can change
type internalConfig struct {
	model      string
	logger     compaction.Logger
	classifier *compaction.Classifier
	hookReg    *hooks.Registry
	tools      []tool.Tool
}

// DefaultConfig returns the compaction configuration used when New gets nil:
// the library defaults with the compaction tool enabled.
func DefaultConfig() *compaction.Config {
	cfg := compaction.DefaultConfig()
	cfg.Enabled = true
	return cfg
}
