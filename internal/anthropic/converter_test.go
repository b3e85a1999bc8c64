package anthropic

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/youssefsiam38/ctxcompact/compaction"
	"github.com/youssefsiam38/ctxcompact/types"
)

func TestConvertToAnthropicMessages(t *testing.T) {
	done, err := types.NewToolPart("read_file", "toolu_1", types.ToolStateOutputAvailable,
		map[string]string{"path": "a.go"}, "package a")
	if err != nil {
		t.Fatal(err)
	}
	failed := types.Part{
		Type:       types.StaticToolType("run"),
		ToolCallID: "toolu_2",
		State:      types.ToolStateOutputError,
		ErrorText:  "exit status 1",
	}

	messages := []*types.Message{
		{Role: types.RoleSystem, Parts: []types.Part{types.NewTextPart("be brief")}},
		types.NewUserMessage("read a.go"),
		types.NewAssistantMessage(types.NewTextPart("Reading"), done, failed),
		compaction.NewMarkerMessage(),
		types.NewAssistantMessage(types.NewTextPart("partial"), compaction.NewMarkerPart()),
	}

	params, err := ConvertToAnthropicMessages(messages)
	if err != nil {
		t.Fatalf("ConvertToAnthropicMessages failed: %v", err)
	}
	if len(params) != 3 {
		t.Fatalf("expected 3 params, got %d", len(params))
	}

	if params[0].Role != anthropic.MessageParamRoleUser {
		t.Errorf("params[0].Role = %s", params[0].Role)
	}

	assistant := params[1]
	if assistant.Role != anthropic.MessageParamRoleAssistant || len(assistant.Content) != 3 {
		t.Fatalf("unexpected assistant param: %+v", assistant)
	}
	use := assistant.Content[1].OfToolUse
	if use == nil || use.ID != "toolu_1" || use.Name != "read_file" {
		t.Errorf("unexpected tool_use block: %+v", use)
	}
	if static := assistant.Content[2].OfToolUse; static == nil || static.Name != "run" {
		t.Errorf("static tool part not converted: %+v", static)
	}

	results := params[2]
	if results.Role != anthropic.MessageParamRoleUser || len(results.Content) != 2 {
		t.Fatalf("unexpected tool_result param: %+v", results)
	}
	if r := results.Content[0].OfToolResult; r == nil || r.ToolUseID != "toolu_1" {
		t.Errorf("unexpected tool_result block: %+v", r)
	}
	if r := results.Content[1].OfToolResult; r == nil || !r.IsError.Value {
		t.Errorf("expected error tool_result: %+v", r)
	}

	// Both marker messages are dropped, including the one holding text
	for _, p := range params {
		for _, block := range p.Content {
			if block.OfText != nil && block.OfText.Text == "partial" {
				t.Errorf("text of a marker message was converted: %+v", p)
			}
		}
	}
}

func TestConvertToAnthropicMessages_ToolResultsLeadNextUserMessage(t *testing.T) {
	done, err := types.NewToolPart("read_file", "toolu_1", types.ToolStateOutputAvailable,
		map[string]string{"path": "a.go"}, "package a")
	if err != nil {
		t.Fatal(err)
	}

	messages := []*types.Message{
		types.NewUserMessage("read a.go"),
		types.NewAssistantMessage(done),
		types.NewUserMessage("now summarize"),
	}

	params, err := ConvertToAnthropicMessages(messages)
	if err != nil {
		t.Fatalf("ConvertToAnthropicMessages failed: %v", err)
	}
	if len(params) != 3 {
		t.Fatalf("expected 3 params, got %d", len(params))
	}

	for i := 1; i < len(params); i++ {
		if params[i].Role == params[i-1].Role {
			t.Errorf("params[%d] and params[%d] share role %s", i-1, i, params[i].Role)
		}
	}

	next := params[2]
	if len(next.Content) != 2 {
		t.Fatalf("expected tool_result and text blocks, got %+v", next.Content)
	}
	if r := next.Content[0].OfToolResult; r == nil || r.ToolUseID != "toolu_1" {
		t.Errorf("expected tool_result first, got %+v", next.Content[0])
	}
	if txt := next.Content[1].OfText; txt == nil || txt.Text != "now summarize" {
		t.Errorf("expected user text second, got %+v", next.Content[1])
	}
}

func TestConvertToAnthropicMessages_MalformedToolInput(t *testing.T) {
	messages := []*types.Message{
		types.NewUserMessage("go"),
		types.NewAssistantMessage(types.Part{
			Type:       types.PartTypeDynamicTool,
			ToolName:   "run",
			ToolCallID: "toolu_bad",
			State:      types.ToolStateOutputAvailable,
			Input:      json.RawMessage(`{"cmd":`),
			Output:     json.RawMessage(`"ok"`),
		}),
	}

	_, err := ConvertToAnthropicMessages(messages)
	if !errors.Is(err, compaction.ErrInvalidHistory) {
		t.Fatalf("expected ErrInvalidHistory, got %v", err)
	}
	if !strings.Contains(err.Error(), "toolu_bad") {
		t.Errorf("error does not name the tool call: %v", err)
	}
}

func TestToolInput(t *testing.T) {
	tests := []struct {
		name string
		raw  json.RawMessage
		want string
	}{
		{"nil input defaults to empty object", nil, `{}`},
		{"null input defaults to empty object", json.RawMessage(`null`), `{}`},
		{"valid input preserved", json.RawMessage(`{"key":"value"}`), `{"key":"value"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := toolInput(tt.raw)
			if err != nil {
				t.Fatalf("toolInput() error = %v", err)
			}
			got, err := json.Marshal(input)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("toolInput() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestToolInput_Errors(t *testing.T) {
	for _, raw := range []string{`{"cmd":`, `[1,2]`, `"text"`} {
		if _, err := toolInput(json.RawMessage(raw)); err == nil {
			t.Errorf("toolInput(%s) expected error", raw)
		}
	}
}

func TestOutputText(t *testing.T) {
	if got := outputText(json.RawMessage(`"plain"`)); got != "plain" {
		t.Errorf("outputText(string) = %q", got)
	}
	if got := outputText(json.RawMessage(`{"summary":"S"}`)); got != `{"summary":"S"}` {
		t.Errorf("outputText(object) = %q", got)
	}
}

func TestConvertResponse(t *testing.T) {
	var resp anthropic.Message
	body := `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5","stop_reason":"tool_use",` +
		`"content":[{"type":"text","text":"Compacting"},{"type":"tool_use","id":"toolu_9","name":"compact_conversation","input":{"summary":"S"}}],` +
		`"usage":{"input_tokens":1,"output_tokens":1}}`
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	msg, err := ConvertResponse(&resp)
	if err != nil {
		t.Fatalf("ConvertResponse failed: %v", err)
	}
	if msg.Role != types.RoleAssistant || len(msg.Parts) != 2 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if !msg.HasToolPart(compaction.ToolName) {
		t.Error("expected compaction tool part")
	}

	calls := ExtractPendingToolCalls(msg)
	if len(calls) != 1 || calls[0].ID != "toolu_9" {
		t.Errorf("unexpected pending calls: %+v", calls)
	}
	if msg.Metadata["stop_reason"] != "tool_use" {
		t.Errorf("stop_reason = %v", msg.Metadata["stop_reason"])
	}
}

func TestSystemPrompt(t *testing.T) {
	messages := []*types.Message{
		{Role: types.RoleSystem, Parts: []types.Part{types.NewTextPart("one")}},
		types.NewUserMessage("hi"),
		{Role: types.RoleSystem, Parts: []types.Part{types.NewTextPart("two")}},
	}
	if got := SystemPrompt(messages); got != "one\n\ntwo" {
		t.Errorf("SystemPrompt() = %q", got)
	}
	if blocks := BuildSystemPrompt("one"); len(blocks) != 1 || blocks[0].Text != "one" {
		t.Errorf("unexpected system blocks: %+v", blocks)
	}
}
