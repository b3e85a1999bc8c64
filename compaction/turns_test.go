package compaction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/youssefsiam38/ctxcompact/types"
)

func TestTurnStartIndex(t *testing.T) {
	history := []*types.Message{
		user("1"),      // 0
		assistant("a"), // 1
		user("2"),      // 2
		marker(),       // 3
		user("3"),      // 4
		assistant("b"), // 5
		marker(),       // 6
	}

	tests := []struct {
		name string
		n    int
		want int
	}{
		{"zero turns", 0, len(history)},
		{"negative turns", -1, len(history)},
		{"last turn", 1, 4},
		{"two turns skip markers", 2, 2},
		{"all turns", 3, 0},
		{"more turns than exist", 4, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TurnStartIndex(history, tt.n))
		})
	}

	assert.Equal(t, -1, TurnStartIndex(nil, 1))
}

func TestCountCompactionMarkers(t *testing.T) {
	s := summaryMessage(t, "S")
	history := []*types.Message{
		user("1"), // 0
		marker(),  // 1
		marker(),  // 2
		s,         // 3
		user("2"), // 4
		marker(),  // 5
	}

	tests := []struct {
		name   string
		before int
		want   int
	}{
		{"whole history stops at summary", len(history), 1},
		{"before the summary", 3, 2},
		{"before the first marker", 1, 0},
		{"empty prefix", 0, 0},
		{"beyond the end is clamped", 100, 1},
		{"negative is clamped", -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountCompactionMarkers(history, tt.before))
		})
	}
}

func TestConsecutiveCompactionAttempts(t *testing.T) {
	tests := []struct {
		name    string
		history func(t *testing.T) []*types.Message
		want    int
	}{
		{
			name:    "empty",
			history: func(t *testing.T) []*types.Message { return nil },
			want:    0,
		},
		{
			name: "trailing user breaks the run",
			history: func(t *testing.T) []*types.Message {
				return []*types.Message{pendingCompaction(t), pendingCompaction(t), user("1")}
			},
			want: 0,
		},
		{
			name: "summaries markers and pending calls all count",
			history: func(t *testing.T) []*types.Message {
				return []*types.Message{user("1"), summaryMessage(t, "S"), marker(), pendingCompaction(t)}
			},
			want: 3,
		},
		{
			name: "plain assistant text breaks the run",
			history: func(t *testing.T) []*types.Message {
				return []*types.Message{marker(), assistant("text"), marker(), marker()}
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConsecutiveCompactionAttempts(tt.history(t)))
		})
	}
}

func TestCheckLoop(t *testing.T) {
	history := []*types.Message{user("1"), marker(), marker(), marker()}

	assert.NoError(t, CheckLoop(history, 4))
	assert.ErrorIs(t, CheckLoop(history, 3), ErrLoopDetected)
	assert.NoError(t, CheckLoop(history, 0), "zero ceiling uses the default")
}
