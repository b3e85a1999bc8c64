package compaction

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssefsiam38/ctxcompact/types"
)

func newTestReducer() *Reducer {
	return NewReducer(&Config{Enabled: true}, nil)
}

var retryRequest = "user:" + BuildCompactionRequest(0)

func TestReduce_Examples(t *testing.T) {
	tests := []struct {
		name    string
		history func(t *testing.T) []*types.Message
		want    []string
	}{
		{
			name: "no compaction state",
			history: func(t *testing.T) []*types.Message {
				return []*types.Message{user("1"), assistant("1a"), user("2")}
			},
			want: []string{"user:1", "assistant:1a", "user:2"},
		},
		{
			name: "one marker sets aside the last turn",
			history: func(t *testing.T) []*types.Message {
				return []*types.Message{user("1"), user("2"), assistant("2a"), assistant("2b"), user("3"), marker()}
			},
			want: []string{"user:1", "user:2", "assistant:2a", "assistant:2b", retryRequest},
		},
		{
			name: "two markers set aside two turns",
			history: func(t *testing.T) []*types.Message {
				return []*types.Message{user("1"), user("2"), assistant("2a"), assistant("2b"), user("3"), marker(), marker()}
			},
			want: []string{"user:1", retryRequest},
		},
		{
			name: "summary at the end restores nothing before the first turn",
			history: func(t *testing.T) []*types.Message {
				return []*types.Message{user("old"), marker(), summaryMessage(t, "S")}
			},
			want: []string{"user:" + BuildSummaryPrompt("S"), "assistant:" + SummaryAcknowledgement},
		},
		{
			name: "summary restores the set-aside turn",
			history: func(t *testing.T) []*types.Message {
				return []*types.Message{user("1"), assistant("1a"), user("2"), marker(), summaryMessage(t, "S"), assistant("after")}
			},
			want: []string{
				"user:" + BuildSummaryPrompt("S"),
				"assistant:" + SummaryAcknowledgement,
				"user:2",
				"assistant:after",
			},
		},
		{
			name: "latest summary supersedes earlier ones",
			history: func(t *testing.T) []*types.Message {
				return []*types.Message{
					user("1"), assistant("1a"), user("2"), marker(), summaryMessage(t, "S1"),
					user("3"), assistant("3a"), user("4"), marker(), summaryMessage(t, "S2"),
					user("5"),
				}
			},
			want: []string{
				"user:" + BuildSummaryPrompt("S2"),
				"assistant:" + SummaryAcknowledgement,
				"user:4",
				"user:5",
			},
		},
		{
			name: "marker after a summary requests another compaction",
			history: func(t *testing.T) []*types.Message {
				return []*types.Message{
					user("1"), marker(), summaryMessage(t, "S"),
					user("2"), assistant("2a"), user("3"), marker(),
				}
			},
			want: []string{
				"user:" + BuildSummaryPrompt("S"),
				"assistant:" + SummaryAcknowledgement,
				"user:2",
				"assistant:2a",
				retryRequest,
			},
		},
		{
			name: "summary in the static encoding",
			history: func(t *testing.T) []*types.Message {
				return []*types.Message{
					user("1"), user("2"), marker(),
					types.NewAssistantMessage(staticPart(t, ToolName, types.ToolStateOutputAvailable, SummaryOutput{Summary: "static"})),
				}
			},
			want: []string{"user:" + BuildSummaryPrompt("static"), "assistant:" + SummaryAcknowledgement, "user:2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestReducer().Reduce(tt.history(t))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, describe(got)); diff != "" {
				t.Errorf("Reduce() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReduce_DropsMixedMarkerMessage(t *testing.T) {
	mixed := types.NewAssistantMessage(types.NewTextPart("partial answer"), NewMarkerPart())

	t.Run("as the only marker", func(t *testing.T) {
		history := []*types.Message{user("u0"), mixed, user("u1"), assistant("a1")}

		got, err := newTestReducer().Reduce(history)
		require.NoError(t, err)
		assert.Equal(t, []string{"user:u0", retryRequest}, describe(got))
		for _, m := range got {
			assert.NotContains(t, m.Text(), "partial answer")
		}
	})

	t.Run("counted with a later marker", func(t *testing.T) {
		history := []*types.Message{
			user("uA"), assistant("aA"), user("u0"), mixed, user("u1"), assistant("a1"), marker(),
		}

		got, err := newTestReducer().Reduce(history)
		require.NoError(t, err)
		assert.Equal(t, []string{"user:uA", "assistant:aA", retryRequest}, describe(got))
	})

	t.Run("restored after a summary", func(t *testing.T) {
		history := []*types.Message{
			user("u0"), assistant("a0"), user("u1"), mixed,
			summaryMessage(t, "S"),
		}

		got, err := newTestReducer().Reduce(history)
		require.NoError(t, err)
		assert.Equal(t, "user:u1", describe(got)[len(got)-1])
		for _, m := range got {
			assert.NotContains(t, m.Text(), "partial answer")
		}
	})
}

func TestReduce_TurnConservation(t *testing.T) {
	histories := [][]*types.Message{
		{user("1"), marker()},
		{user("1"), assistant("1a"), user("2"), marker()},
		{user("1"), user("2"), assistant("2a"), assistant("2b"), assistant("2c"), marker()},
		{user("1"), assistant("1a"), user("2"), assistant("2a"), user("3"), assistant("3a"), marker()},
	}

	for i, history := range histories {
		t.Run(fmt.Sprintf("history_%d", i), func(t *testing.T) {
			lastUser := TurnStartIndex(history, 1)
			got, err := newTestReducer().Reduce(history)
			if lastUser == 0 {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrCannotCompact)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, lastUser+1)
			for j := 0; j < lastUser; j++ {
				assert.Same(t, history[j], got[j])
			}
			assert.Equal(t, retryRequest, describe(got[lastUser:])[0])
		})
	}
}

func TestReduce_RestorationIsByteIdentical(t *testing.T) {
	u2, a2, u3 := user("2"), assistant("2a"), user("3")
	history := []*types.Message{user("1"), assistant("1a"), u2, a2, u3, marker(), marker(), summaryMessage(t, "S")}

	result, err := newTestReducer().ReduceDetailed(history)
	require.NoError(t, err)

	require.Len(t, result.Messages, 5)
	assert.Same(t, u2, result.Messages[2])
	assert.Same(t, a2, result.Messages[3])
	assert.Same(t, u3, result.Messages[4])
	assert.Equal(t, OutcomeSummaryApplied, result.Outcome)
	assert.Equal(t, 7, result.SummaryIndex)
	assert.Equal(t, 3, result.RestoredMessages)
}

func TestReduce_DoesNotModifyInput(t *testing.T) {
	mixed := types.NewAssistantMessage(types.NewTextPart("partial"), NewMarkerPart())
	history := []*types.Message{user("1"), assistant("1a"), user("2"), mixed}
	before := append([]*types.Message(nil), history...)
	partsBefore := len(mixed.Parts)

	got, err := newTestReducer().Reduce(history)
	require.NoError(t, err)

	assert.Equal(t, before, history)
	assert.Len(t, mixed.Parts, partsBefore)
	assert.Equal(t, []string{"user:1", "assistant:1a", retryRequest}, describe(got))
}

func TestReduce_CannotCompact(t *testing.T) {
	tests := []struct {
		name      string
		history   []*types.Message
		wantRetry int
	}{
		{
			name:      "single turn overflowed",
			history:   []*types.Message{user("1"), marker()},
			wantRetry: 0,
		},
		{
			name:      "every turn set aside",
			history:   []*types.Message{user("1"), user("2"), marker(), marker()},
			wantRetry: 1,
		},
		{
			name:      "more markers than turns",
			history:   []*types.Message{user("1"), marker(), marker(), marker()},
			wantRetry: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			r := newTestReducer()
			r.SetObserver(obs)

			got, err := r.Reduce(tt.history)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrCannotCompact)

			ce, ok := IsCompactionError(err)
			require.True(t, ok)
			assert.Equal(t, "Cannot compact: would leave only the compaction request", ce.Error())
			assert.Equal(t, tt.wantRetry, ce.RetryCount)
			require.Len(t, obs.failed, 1)
			assert.Same(t, ce, obs.failed[0])
		})
	}
}

func TestReduce_LoopTermination(t *testing.T) {
	history := []*types.Message{user("1"), assistant("1a"), user("2")}
	for i := 0; i < DefaultMaxConsecutiveAttempts; i++ {
		history = append(history, pendingCompaction(t))
	}

	logger := &recordingLogger{}
	r := NewReducer(&Config{Enabled: true}, logger)
	_, err := r.Reduce(history)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoopDetected))
	assert.EqualError(t, err, "Compaction loop detected after 5 attempts")

	ce, ok := IsCompactionError(err)
	require.True(t, ok)
	assert.Equal(t, 5, ce.RetryCount)
	assert.Contains(t, logger.entries, "error:compaction failed")

	// One attempt fewer is still processed
	_, err = r.Reduce(history[:len(history)-1])
	assert.NoError(t, err)
}

func TestReduce_LoopTerminationWithMarkers(t *testing.T) {
	history := []*types.Message{user("1"), user("2"), user("3"), user("4"), user("5"), user("6")}
	for i := 0; i < 5; i++ {
		history = append(history, marker())
	}

	_, err := newTestReducer().Reduce(history)
	assert.ErrorIs(t, err, ErrLoopDetected)
}

func TestReduce_CustomLoopCeiling(t *testing.T) {
	r := NewReducer(&Config{MaxConsecutiveAttempts: 2}, nil)
	history := []*types.Message{user("1"), user("2"), user("3"), marker(), marker()}

	_, err := r.Reduce(history)
	assert.ErrorIs(t, err, ErrLoopDetected)
}

func TestReduce_UsageAnnotation(t *testing.T) {
	r := NewReducer(&Config{AnnotateUsage: true, MaxTokensForModel: 1000}, nil)
	history := []*types.Message{user(strings.Repeat("a", 3500)), user("2"), marker()}

	result, err := r.ReduceDetailed(history)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRetryRequested, result.Outcome)
	assert.Equal(t, 1, result.MarkerCount)
	assert.Greater(t, result.UsagePercent, 100)

	request := result.Messages[len(result.Messages)-1]
	assert.Equal(t, types.RoleUser, request.Role)
	assert.Contains(t, request.Text(), fmt.Sprintf("~%d%%", result.UsagePercent))
	assert.Equal(t, true, request.Metadata["synthetic"])
}

func TestReduce_InvalidSummary(t *testing.T) {
	part := types.Part{
		Type:       types.PartTypeDynamicTool,
		ToolName:   ToolName,
		ToolCallID: "bad",
		State:      types.ToolStateOutputAvailable,
		Output:     []byte(`"not an object"`),
	}
	history := []*types.Message{user("1"), types.NewAssistantMessage(part)}

	_, err := newTestReducer().Reduce(history)
	assert.ErrorIs(t, err, ErrInvalidHistory)
}

func TestReduce_Observer(t *testing.T) {
	obs := &recordingObserver{}
	r := newTestReducer()
	r.SetObserver(obs)

	_, err := r.Reduce([]*types.Message{user("1"), user("2"), marker()})
	require.NoError(t, err)

	require.Len(t, obs.reduced, 1)
	assert.Equal(t, OutcomeRetryRequested, obs.reduced[0].Outcome)
	assert.Empty(t, obs.failed)
}

func TestReduce_PackageLevel(t *testing.T) {
	got, err := Reduce([]*types.Message{user("1"), user("2"), marker()})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Contains(t, got[1].Text(), ToolName)
}
