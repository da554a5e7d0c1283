package mcp

import (
	"strings"
	"testing"
)

func TestEnvelope_ExactlyOneVariant(t *testing.T) {
	ok := Success(TextResult("done"))
	if ok.IsError() || ok.Result == nil || ok.Error != nil {
		t.Errorf("success envelope = %+v", ok)
	}

	empty := Success(nil)
	if empty.Result == nil {
		t.Error("Success(nil) should still populate Result")
	}

	bad := Failure(KindNotFound, "no note with ID %s", "note_1")
	if !bad.IsError() || bad.Result != nil {
		t.Errorf("failure envelope = %+v", bad)
	}
	if bad.Error.Kind != KindNotFound {
		t.Errorf("Kind = %q, want %q", bad.Error.Kind, KindNotFound)
	}
}

func TestEnvelope_Text(t *testing.T) {
	if got := Success(TextResult("hello")).Text(); got != "hello" {
		t.Errorf("success text = %q", got)
	}

	got := Failure(KindInternal, "boom").Text()
	if !strings.HasPrefix(got, ErrorPrefix) {
		t.Errorf("failure text %q should start with %q", got, ErrorPrefix)
	}
	if got != ErrorPrefix+"boom" {
		t.Errorf("failure text = %q", got)
	}
}

func TestEnvelope_ToolResult(t *testing.T) {
	res := Failure(KindInvalidArgument, "bad").ToolResult()
	if !res.IsError {
		t.Error("IsError should be true for failure")
	}
	if res.TextContent() != ErrorPrefix+"bad" {
		t.Errorf("text = %q", res.TextContent())
	}

	res = Success(nil).ToolResult()
	if res.IsError {
		t.Error("IsError should be false for success")
	}
	if res.Content == nil {
		t.Error("Content should be an empty slice, not nil")
	}
}

func TestEnvelope_PromptResult(t *testing.T) {
	env := Success(&Result{
		Description: "Code review (go)",
		Content:     []ContentBlock{TextBlock("review me")},
	})

	res := env.PromptResult()
	if res.Description != "Code review (go)" {
		t.Errorf("Description = %q", res.Description)
	}
	if len(res.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1", len(res.Messages))
	}
	if res.Messages[0].Role != "user" || res.Messages[0].Content.Type != "text" {
		t.Errorf("message = %+v", res.Messages[0])
	}
}
