// Package convert provides utilities for converting between message formats.
package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/youssefsiam38/ctxcompact/types"
)

// historyEnvelope is the object form of a history document.
type historyEnvelope struct {
	Messages []*types.Message `json:"messages"`
}

// DecodeHistory reads a JSON history document. Both a bare array of messages
// and an object with a "messages" field are accepted. Messages without an id
// get one, messages without a timestamp get now.
func DecodeHistory(r io.Reader) ([]*types.Message, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("decode history: empty document")
	}

	var messages []*types.Message
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
	case '{':
		var env historyEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		messages = env.Messages
	default:
		return nil, fmt.Errorf("decode history: expected a JSON array or object")
	}

	now := time.Now()
	for i, msg := range messages {
		if msg == nil {
			return nil, fmt.Errorf("decode history: message %d is null", i)
		}
		if err := validateRole(msg.Role); err != nil {
			return nil, fmt.Errorf("decode history: message %d: %w", i, err)
		}
		if msg.ID == "" {
			msg.ID = uuid.New().String()
		}
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = now
		}
	}

	return messages, nil
}

// EncodeHistory writes messages as an indented JSON array.
func EncodeHistory(w io.Writer, messages []*types.Message) error {
	if messages == nil {
		messages = []*types.Message{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(messages)
}

func validateRole(role types.Role) error {
	switch role {
	case types.RoleUser, types.RoleAssistant, types.RoleSystem:
		return nil
	default:
		return fmt.Errorf("unknown role %q", role)
	}
}
