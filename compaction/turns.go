package compaction

import (
	"github.com/youssefsiam38/ctxcompact/types"
)

// TurnStartIndex returns the index of the n-th user message counting back
// from the end of history, ignoring marker messages. That index is the
// inclusive start of the last n turns. It returns len(history) when n <= 0
// and -1 when history has fewer than n user messages.
func TurnStartIndex(history []*types.Message, n int) int {
	if n <= 0 {
		return len(history)
	}

	seen := 0
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if IsMarkerMessage(m) {
			continue
		}
		if m.Role == types.RoleUser {
			seen++
			if seen == n {
				return i
			}
		}
	}
	return -1
}

// CountCompactionMarkers counts marker messages scanning back from
// history[before-1]. The scan stops at the first summary message, so markers
// already answered by a summary are not counted. A before outside
// [0, len(history)] is clamped.
func CountCompactionMarkers(history []*types.Message, before int) int {
	if before > len(history) || before < 0 {
		before = len(history)
	}

	count := 0
	for i := before - 1; i >= 0; i-- {
		m := history[i]
		if IsSummaryMessage(m) {
			break
		}
		if IsMarkerMessage(m) {
			count++
		}
	}
	return count
}

// ConsecutiveCompactionAttempts returns the length of the run of assistant
// messages at the end of history that each engaged the compaction tool.
func ConsecutiveCompactionAttempts(history []*types.Message) int {
	run := 0
	for i := len(history) - 1; i >= 0; i-- {
		if !EngagesCompaction(history[i]) {
			break
		}
		run++
	}
	return run
}

// CheckLoop fails with a CompactionError when the trailing run of compaction
// attempts reaches ceiling. A ceiling <= 0 uses DefaultMaxConsecutiveAttempts.
func CheckLoop(history []*types.Message, ceiling int) error {
	if err := checkLoop(history, ceiling); err != nil {
		return err
	}
	return nil
}

func checkLoop(history []*types.Message, ceiling int) *CompactionError {
	if ceiling <= 0 {
		ceiling = DefaultMaxConsecutiveAttempts
	}
	if n := ConsecutiveCompactionAttempts(history); n >= ceiling {
		return newLoopError(n)
	}
	return nil
}
