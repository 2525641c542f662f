package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/thoughts/internal/config"
	"github.com/hpungsan/thoughts/internal/db"
	"github.com/hpungsan/thoughts/internal/errors"
	"github.com/hpungsan/thoughts/internal/lifecycle"
	"github.com/hpungsan/thoughts/internal/thought"
)

// testSetup creates a temporary database, session registry, and config.
func testSetup(t *testing.T) (*db.Store, *lifecycle.Registry, *config.Config) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := db.NewStore(database)
	registry := lifecycle.NewRegistry(store, lifecycle.Options{DisableTimer: true})
	t.Cleanup(registry.CloseAll)

	return store, registry, config.DefaultConfig()
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func seedRecord(t *testing.T, store *db.Store, text string, draft bool) int64 {
	t.Helper()
	f := thought.Defaults()
	f.Thought = text
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	id, err := store.Create(context.Background(), &thought.Record{Fields: f, IsDraft: draft, CreatedAt: at, UpdatedAt: at})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return id
}

func TestHandleList(t *testing.T) {
	store, registry, cfg := testSetup(t)
	h := NewHandlers(store, registry, cfg)
	ctx := context.Background()

	seedRecord(t, store, "a draft", true)
	seedRecord(t, store, "a final", false)

	tests := []struct {
		name      string
		args      map[string]any
		wantCount int
		errorCode string
	}{
		{name: "all", args: map[string]any{}, wantCount: 2},
		{name: "drafts", args: map[string]any{"filter": "drafts"}, wantCount: 1},
		{name: "final", args: map[string]any{"filter": "final"}, wantCount: 1},
		{name: "limit", args: map[string]any{"limit": 1}, wantCount: 1},
		{name: "bad filter", args: map[string]any{"filter": "archived"}, errorCode: "INVALID_REQUEST"},
		{name: "bad limit type", args: map[string]any{"limit": "ten"}, errorCode: "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleList(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.errorCode != "" {
				if !result.IsError {
					t.Fatal("expected error result")
				}
				assertErrorCode(t, result, tt.errorCode)
				return
			}
			output := parseOutput(t, result)
			items := output["items"].([]any)
			if len(items) != tt.wantCount {
				t.Errorf("items = %d, want %d", len(items), tt.wantCount)
			}
		})
	}
}

func TestHandleView(t *testing.T) {
	store, registry, cfg := testSetup(t)
	h := NewHandlers(store, registry, cfg)
	ctx := context.Background()

	id := seedRecord(t, store, "I always fail", false)

	result, err := h.HandleView(ctx, makeRequest(map[string]any{"id": float64(id)}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output := parseOutput(t, result)
	if output["title"] != "I always fail" {
		t.Errorf("title = %v", output["title"])
	}
	if output["markdown"] == "" {
		t.Error("expected markdown")
	}

	result, _ = h.HandleView(ctx, makeRequest(map[string]any{"id": 99}))
	assertErrorCode(t, result, "NOT_FOUND")

	result, _ = h.HandleView(ctx, makeRequest(map[string]any{}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestDraftWorkflow(t *testing.T) {
	store, registry, cfg := testSetup(t)
	h := NewHandlers(store, registry, cfg)
	ctx := context.Background()

	result, err := h.HandleOpen(ctx, makeRequest(map[string]any{"ref": "new"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opened := parseOutput(t, result)
	sid := opened["session"].(string)
	if opened["state"] != "new" {
		t.Errorf("state = %v, want new", opened["state"])
	}

	result, _ = h.HandleEdit(ctx, makeRequest(map[string]any{
		"session":        sid,
		"thought":        "I always fail",
		"distressLevel":  7,
		"toggleEmotions": []any{"Fear", "Shame"},
	}))
	edited := parseOutput(t, result)
	fields := edited["fields"].(map[string]any)
	if fields["distressLevel"] != float64(7) {
		t.Errorf("distressLevel = %v, want 7", fields["distressLevel"])
	}
	if len(fields["emotions"].([]any)) != 2 {
		t.Errorf("emotions = %v", fields["emotions"])
	}

	result, _ = h.HandleCheckpoint(ctx, makeRequest(map[string]any{"session": sid}))
	saved := parseOutput(t, result)
	if saved["result"] != "created" || saved["id"] != float64(1) || saved["route"] != "/form/1" {
		t.Errorf("checkpoint = %v", saved)
	}

	result, _ = h.HandleCheckpoint(ctx, makeRequest(map[string]any{"session": sid}))
	if parseOutput(t, result)["result"] != "updated" {
		t.Error("second checkpoint should update")
	}

	result, _ = h.HandleSubmit(ctx, makeRequest(map[string]any{"session": sid}))
	submitted := parseOutput(t, result)
	if submitted["state"] != "submitted" || submitted["route"] != "/view/1" {
		t.Errorf("submit = %v", submitted)
	}
	if submitted["record"].(map[string]any)["isDraft"] != false {
		t.Error("submitted record should be final")
	}

	// Idempotent
	result, _ = h.HandleSubmit(ctx, makeRequest(map[string]any{"session": sid}))
	again := parseOutput(t, result)
	if again["record"].(map[string]any)["id"] != float64(1) {
		t.Errorf("second submit = %v", again)
	}

	result, _ = h.HandleEdit(ctx, makeRequest(map[string]any{"session": sid, "thought": "late"}))
	assertErrorCode(t, result, "SESSION_CLOSED")

	result, _ = h.HandleClose(ctx, makeRequest(map[string]any{"session": sid}))
	parseOutput(t, result)

	result, _ = h.HandleCheckpoint(ctx, makeRequest(map[string]any{"session": sid}))
	assertErrorCode(t, result, "NOT_FOUND")

	n, err := store.Count(ctx, db.ScanFilter{})
	if err != nil || n != 1 {
		t.Errorf("records = %d (%v), want 1", n, err)
	}
}

func TestHandleOpen_Errors(t *testing.T) {
	store, registry, cfg := testSetup(t)
	h := NewHandlers(store, registry, cfg)
	ctx := context.Background()

	result, _ := h.HandleOpen(ctx, makeRequest(map[string]any{"ref": "31"}))
	assertErrorCode(t, result, "NOT_FOUND")

	result, _ = h.HandleOpen(ctx, makeRequest(map[string]any{"ref": "latest"}))
	assertErrorCode(t, result, "INVALID_REQUEST")

	if len(registry.Handles()) != 0 {
		t.Error("failed opens should not register sessions")
	}
}

func TestHandleOpen_ExistingFinal(t *testing.T) {
	store, registry, cfg := testSetup(t)
	h := NewHandlers(store, registry, cfg)
	ctx := context.Background()

	seedRecord(t, store, "done", false)

	result, _ := h.HandleOpen(ctx, makeRequest(map[string]any{"ref": "1"}))
	opened := parseOutput(t, result)
	if opened["state"] != "editing_final" || opened["isDraft"] != false {
		t.Errorf("opened = %v", opened)
	}
}

func TestHandleEdit_Errors(t *testing.T) {
	store, registry, cfg := testSetup(t)
	h := NewHandlers(store, registry, cfg)
	ctx := context.Background()

	result, _ := h.HandleOpen(ctx, makeRequest(map[string]any{}))
	sid := parseOutput(t, result)["session"].(string)

	tests := []struct {
		name      string
		args      map[string]any
		errorCode string
	}{
		{name: "unknown session", args: map[string]any{"session": "x", "thought": "t"}, errorCode: "NOT_FOUND"},
		{name: "no fields", args: map[string]any{"session": sid}, errorCode: "INVALID_REQUEST"},
		{name: "out of range", args: map[string]any{"session": sid, "beliefStrength": 150}, errorCode: "INVALID_REQUEST"},
		{name: "wrong type", args: map[string]any{"session": sid, "emotions": "Fear"}, errorCode: "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleEdit(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertErrorCode(t, result, tt.errorCode)
		})
	}
}

func TestHandleCheckpoint_EmptyIsSkipped(t *testing.T) {
	store, registry, cfg := testSetup(t)
	h := NewHandlers(store, registry, cfg)
	ctx := context.Background()

	result, _ := h.HandleOpen(ctx, makeRequest(map[string]any{}))
	sid := parseOutput(t, result)["session"].(string)

	result, _ = h.HandleCheckpoint(ctx, makeRequest(map[string]any{"session": sid}))
	output := parseOutput(t, result)
	if output["result"] != "skipped" {
		t.Errorf("result = %v, want skipped", output["result"])
	}
	if _, ok := output["id"]; ok {
		t.Error("skipped checkpoint should not assign an id")
	}
}

func TestServerRegistration(t *testing.T) {
	store, registry, cfg := testSetup(t)

	s := NewServer(store, registry, cfg, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"thought_list",
		"thought_view",
		"draft_open",
		"draft_edit",
		"draft_checkpoint",
		"draft_submit",
		"draft_close",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	store, registry, cfg := testSetup(t)

	cfg.DisabledTools = []string{"draft_submit", "draft_submit", "thought_view"}
	s := NewServer(store, registry, cfg, "test")
	tools := s.ListTools()

	if len(tools) != 5 {
		t.Errorf("registered tool count = %d, want 5", len(tools))
	}
	for _, name := range []string{"draft_submit", "thought_view"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	store, registry, cfg := testSetup(t)

	cfg.DisabledTools = AllToolNames()
	s := NewServer(store, registry, cfg, "test")

	if len(s.ListTools()) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(s.ListTools()))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{name: "all valid", input: []string{"draft_close", "thought_list"}, wantLen: 0},
		{name: "one unknown", input: []string{"draft_close", "capsule_store"}, wantLen: 1},
		{name: "empty list", input: []string{}, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 7 {
		t.Errorf("AllToolNames() returned %d names, want 7", len(names))
	}
	if names[0] != "draft_checkpoint" {
		t.Errorf("AllToolNames() not sorted: %v", names)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	for _, err := range []error{
		errors.NewInternal(fmt.Errorf("open /tmp/secret.db: permission denied")),
		errors.NewStoreUnavailable(fmt.Errorf("database is locked")),
		fmt.Errorf("plain error"),
	} {
		r := errorResult(err)
		if !r.IsError {
			t.Fatal("expected IsError=true")
		}
		errObj := errorObject(t, r)
		if _, ok := errObj["details"]; ok {
			t.Errorf("%v: expected details to be omitted", errObj["code"])
		}
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	r := errorResult(errors.NewNotFound(3))
	errObj := errorObject(t, r)

	if errObj["code"] != string(errors.ErrNotFound) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	if errObj["status"] != float64(404) {
		t.Errorf("status=%v, want 404", errObj["status"])
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

// Helper functions

func errorObject(t *testing.T, r *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if !result.IsError {
		t.Errorf("expected error %q, got success: %s", expectedCode, extractErrorMessage(result))
		return
	}
	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}

	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}

	code, ok := errorObj["code"].(string)
	if !ok {
		t.Errorf("no code in error object")
		return
	}

	if code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
