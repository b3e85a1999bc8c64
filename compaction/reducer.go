package compaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/youssefsiam38/ctxcompact/types"
)

// Logger interface for compaction logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a no-op implementation of Logger.
type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// Outcome describes what Reduce did to the history.
type Outcome string

const (
	// OutcomeUnchanged means no summary or marker required action.
	OutcomeUnchanged Outcome = "unchanged"

	// OutcomeSummaryApplied means a summary replaced earlier history.
	OutcomeSummaryApplied Outcome = "summary_applied"

	// OutcomeRetryRequested means history was truncated and the model is
	// asked to call the compaction tool.
	OutcomeRetryRequested Outcome = "retry_requested"
)

// Result contains the outcome of a Reduce call.
type Result struct {
	// Messages is the history to submit to the model.
	Messages []*types.Message

	// Outcome is the last step that changed the history.
	Outcome Outcome

	// SummaryApplied indicates a summary was spliced in, possibly followed by a retry.
	SummaryApplied bool

	// SummaryIndex is the index of the applied summary in the input, or -1.
	SummaryIndex int

	// RestoredMessages is the number of messages restored after the summary.
	RestoredMessages int

	// MarkerCount is the number of trailing markers that triggered a retry.
	MarkerCount int

	// UsagePercent is the estimated context usage annotated on the retry request.
	UsagePercent int

	// Duration is how long the reduction took.
	Duration time.Duration
}

// Observer receives every successful Result and every failure of a Reducer.
type Observer interface {
	Reduced(result *Result)
	Failed(err *CompactionError)
}

// Reducer turns the persisted history of a chat into the history submitted
// to the model on the next turn. It holds no per-chat state and is safe for
// concurrent use across chats.
type Reducer struct {
	config   *Config
	logger   Logger
	observer Observer
	now      func() time.Time
}

// NewReducer creates a Reducer. If config is nil, default configuration is used.
func NewReducer(config *Config, logger Logger) *Reducer {
	if config == nil {
		config = DefaultConfig()
	} else {
		config.ApplyDefaults()
	}

	if logger == nil {
		logger = noopLogger{}
	}

	return &Reducer{
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// SetObserver installs an observer notified after every reduction.
func (r *Reducer) SetObserver(o Observer) {
	r.observer = o
}

// Config returns the reducer's configuration.
func (r *Reducer) Config() *Config {
	return r.config
}

var defaultReducer = NewReducer(nil, nil)

// Reduce reduces history with the default configuration.
func Reduce(history []*types.Message) ([]*types.Message, error) {
	return defaultReducer.Reduce(history)
}

// Reduce returns the messages to submit to the model. The input slice and
// its messages are never modified. A *CompactionError means the turn must
// be aborted.
func (r *Reducer) Reduce(history []*types.Message) ([]*types.Message, error) {
	result, err := r.ReduceDetailed(history)
	if err != nil {
		return nil, err
	}
	return result.Messages, nil
}

// ReduceDetailed is Reduce with a description of what was done.
func (r *Reducer) ReduceDetailed(history []*types.Message) (*Result, error) {
	start := r.now()

	if cerr := checkLoop(history, r.config.MaxConsecutiveAttempts); cerr != nil {
		return nil, r.fail(cerr)
	}

	result := &Result{
		Outcome:      OutcomeUnchanged,
		SummaryIndex: -1,
	}

	messages, err := r.applySummary(history, result)
	if err != nil {
		return nil, err
	}

	messages, cerr := r.truncateForRetry(history, messages, result)
	if cerr != nil {
		return nil, r.fail(cerr)
	}

	result.Messages = StripMarkers(messages)
	result.Duration = r.now().Sub(start)

	r.logger.Debug("history reduced",
		"outcome", result.Outcome,
		"input_messages", len(history),
		"output_messages", len(result.Messages),
		"summary_index", result.SummaryIndex,
		"restored", result.RestoredMessages,
		"markers", result.MarkerCount,
	)

	if r.observer != nil {
		r.observer.Reduced(result)
	}

	return result, nil
}

// applySummary splices the most recent summary into history. The turns that
// were set aside while the model wrote the summary are restored unchanged.
func (r *Reducer) applySummary(history []*types.Message, result *Result) ([]*types.Message, error) {
	summaryIdx := -1
	for i := len(history) - 1; i >= 0; i-- {
		if IsSummaryMessage(history[i]) {
			summaryIdx = i
			break
		}
	}
	if summaryIdx < 0 {
		return history, nil
	}

	summary, err := SummaryOf(history[summaryIdx])
	if err != nil {
		r.logger.Error("failed to read compaction summary", "message_id", history[summaryIdx].ID, "error", err)
		return nil, err
	}

	before := history[:summaryIdx]
	markers := CountCompactionMarkers(history, summaryIdx)

	// A cut at the very start restores nothing: no retry sets aside the first turn.
	cut := summaryIdx
	if markers > 0 {
		if idx := TurnStartIndex(before, markers); idx > 0 {
			cut = idx
		}
	}

	restored := make([]*types.Message, 0, summaryIdx-cut)
	for _, m := range before[cut:] {
		if !IsMarkerMessage(m) {
			restored = append(restored, m)
		}
	}

	out := make([]*types.Message, 0, 2+len(restored)+len(history)-summaryIdx-1)
	out = append(out, r.summaryMessages(summary)...)
	out = append(out, restored...)
	out = append(out, history[summaryIdx+1:]...)

	result.Outcome = OutcomeSummaryApplied
	result.SummaryApplied = true
	result.SummaryIndex = summaryIdx
	result.RestoredMessages = len(restored)

	r.logger.Info("applied compaction summary",
		"summary_index", summaryIdx,
		"markers_before", markers,
		"restored", len(restored),
		"dropped", cut,
	)

	return out, nil
}

// truncateForRetry drops the turns that overflowed and asks the model to
// compact the rest.
func (r *Reducer) truncateForRetry(full, messages []*types.Message, result *Result) ([]*types.Message, *CompactionError) {
	markers := CountCompactionMarkers(messages, len(messages))
	if markers == 0 {
		return messages, nil
	}

	cut := TurnStartIndex(messages, markers)
	if cut <= 0 {
		r.logger.Warn("cannot compact further", "markers", markers, "messages", len(messages))
		return nil, newCannotCompactError(markers - 1)
	}

	pct := 0
	if r.config.AnnotateUsage {
		pct = usagePercent(full, r.config.MaxTokensForModel)
	}

	out := make([]*types.Message, 0, cut+1)
	out = append(out, messages[:cut]...)
	out = append(out, r.syntheticMessage(types.RoleUser, BuildCompactionRequest(pct)))

	result.Outcome = OutcomeRetryRequested
	result.MarkerCount = markers
	result.UsagePercent = pct

	r.logger.Info("requesting compaction",
		"markers", markers,
		"kept", cut,
		"usage_percent", pct,
	)

	return out, nil
}

func (r *Reducer) summaryMessages(summary SummaryOutput) []*types.Message {
	return []*types.Message{
		r.syntheticMessage(types.RoleUser, BuildSummaryPrompt(summary.Summary)),
		r.syntheticMessage(types.RoleAssistant, SummaryAcknowledgement),
	}
}

func (r *Reducer) syntheticMessage(role types.Role, text string) *types.Message {
	return &types.Message{
		ID:        "compaction-" + uuid.New().String(),
		Role:      role,
		Parts:     []types.Part{types.NewTextPart(text)},
		Metadata:  map[string]any{"synthetic": true},
		CreatedAt: r.now(),
	}
}

func (r *Reducer) fail(err *CompactionError) error {
	r.logger.Error("compaction failed",
		"op", err.Op,
		"reason", err.Reason,
		"retry_count", err.RetryCount,
	)
	if r.observer != nil {
		r.observer.Failed(err)
	}
	return err
}
