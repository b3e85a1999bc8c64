package hooks

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/youssefsiam38/ctxcompact/compaction"
	"github.com/youssefsiam38/ctxcompact/streaming"
)

// ZapLogger adapts a zap logger to the compaction.Logger interface.
// Arguments are alternating keys and values, as with slog.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var _ compaction.Logger = (*ZapLogger)(nil)

// NewZapLogger wraps l. A nil logger yields a no-op logger.
func NewZapLogger(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{sugar: l.Sugar()}
}

func (z *ZapLogger) Debug(msg string, args ...any) { z.sugar.Debugw(msg, args...) }
func (z *ZapLogger) Info(msg string, args ...any)  { z.sugar.Infow(msg, args...) }
func (z *ZapLogger) Warn(msg string, args ...any)  { z.sugar.Warnw(msg, args...) }
func (z *ZapLogger) Error(msg string, args ...any) { z.sugar.Errorw(msg, args...) }

// LoggingHooks provides built-in logging hooks for observability
type LoggingHooks struct {
	logger compaction.Logger
}

// NewLoggingHooks creates logging hooks with the provided logger
func NewLoggingHooks(logger compaction.Logger) *LoggingHooks {
	return &LoggingHooks{logger: logger}
}

// DefaultLoggingHooks creates logging hooks backed by zap's production logger
func DefaultLoggingHooks() (*LoggingHooks, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return NewLoggingHooks(NewZapLogger(l)), nil
}

// Register attaches all logging hooks to r
func (h *LoggingHooks) Register(r *Registry) {
	r.OnReduced(h.Reduced)
	r.OnCompactionFailed(h.Failed)
	r.OnMarkerInjected(h.MarkerInjected)
	r.OnToolCall(h.ToolCall)
}

// Reduced logs the outcome of a reduction that changed the history
func (h *LoggingHooks) Reduced(result *compaction.Result) {
	if result.Outcome == compaction.OutcomeUnchanged {
		return
	}
	h.logger.Info("history compacted",
		"outcome", result.Outcome,
		"messages", len(result.Messages),
		"restored", result.RestoredMessages,
		"markers", result.MarkerCount,
		"usage_percent", result.UsagePercent,
		"duration", result.Duration,
	)
}

// Failed logs a terminal compaction failure
func (h *LoggingHooks) Failed(err *compaction.CompactionError) {
	h.logger.Error("compaction aborted the turn",
		"op", err.Op,
		"reason", err.Reason,
		"retry_count", err.RetryCount,
	)
}

// MarkerInjected logs an injected marker
func (h *LoggingHooks) MarkerInjected(ctx context.Context, event streaming.MarkerEvent) {
	h.logger.Warn("context window exceeded",
		"mode", event.Mode,
		"tool_call_id", event.ToolCallID,
		"error", event.Cause,
	)
}

// ToolCall logs tool execution
func (h *LoggingHooks) ToolCall(ctx context.Context, toolName string, input json.RawMessage, output string, err error) error {
	if err != nil {
		h.logger.Warn("tool failed", "tool", toolName, "error", err)
		return nil
	}

	outputPreview := output
	if len(outputPreview) > 100 {
		outputPreview = outputPreview[:100] + "..."
	}
	h.logger.Debug("tool succeeded", "tool", toolName, "output", outputPreview)
	return nil
}

// MetricsHooks collects metrics for monitoring
type MetricsHooks struct {
	OnMetric func(name string, value float64, tags map[string]string)
}

// NewMetricsHooks creates metrics collection hooks
func NewMetricsHooks(onMetric func(string, float64, map[string]string)) *MetricsHooks {
	return &MetricsHooks{OnMetric: onMetric}
}

// Register attaches all metrics hooks to r
func (h *MetricsHooks) Register(r *Registry) {
	r.OnReduced(h.Reduced)
	r.OnCompactionFailed(h.Failed)
	r.OnMarkerInjected(h.MarkerInjected)
	r.OnToolCall(h.ToolCall)
}

// Reduced records reduction metrics
func (h *MetricsHooks) Reduced(result *compaction.Result) {
	tags := map[string]string{"outcome": string(result.Outcome)}

	h.OnMetric("ctxcompact.reduce.count", 1, tags)
	h.OnMetric("ctxcompact.reduce.duration_ms", float64(result.Duration.Microseconds())/1000, tags)

	switch result.Outcome {
	case compaction.OutcomeSummaryApplied:
		h.OnMetric("ctxcompact.summary.restored_messages", float64(result.RestoredMessages), tags)
	case compaction.OutcomeRetryRequested:
		h.OnMetric("ctxcompact.retry.markers", float64(result.MarkerCount), tags)
		if result.UsagePercent > 0 {
			h.OnMetric("ctxcompact.retry.usage_pct", float64(result.UsagePercent), tags)
		}
	}
}

// Failed records compaction failures
func (h *MetricsHooks) Failed(err *compaction.CompactionError) {
	tags := map[string]string{"op": err.Op}

	h.OnMetric("ctxcompact.failure.count", 1, tags)
	h.OnMetric("ctxcompact.failure.retry_count", float64(err.RetryCount), tags)
}

// MarkerInjected records injected markers
func (h *MetricsHooks) MarkerInjected(ctx context.Context, event streaming.MarkerEvent) {
	h.OnMetric("ctxcompact.marker.injected", 1, map[string]string{"mode": string(event.Mode)})
}

// ToolCall records tool execution metrics
func (h *MetricsHooks) ToolCall(ctx context.Context, toolName string, input json.RawMessage, output string, err error) error {
	tags := map[string]string{"tool": toolName}

	if err != nil {
		h.OnMetric("ctxcompact.tool.error", 1, tags)
	} else {
		h.OnMetric("ctxcompact.tool.success", 1, tags)
	}

	return nil
}
