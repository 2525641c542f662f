package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/thoughts/internal/autosave"
	"github.com/hpungsan/thoughts/internal/config"
	"github.com/hpungsan/thoughts/internal/db"
	"github.com/hpungsan/thoughts/internal/errors"
	"github.com/hpungsan/thoughts/internal/lifecycle"
	"github.com/hpungsan/thoughts/internal/ops"
	"github.com/hpungsan/thoughts/internal/thought"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store    *db.Store
	registry *lifecycle.Registry
	cfg      *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store *db.Store, registry *lifecycle.Registry, cfg *config.Config) *Handlers {
	return &Handlers{store: store, registry: registry, cfg: cfg}
}

// Request types for each tool

// ListRequest represents the arguments for thought_list.
type ListRequest struct {
	Filter string `json:"filter,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ViewRequest represents the arguments for thought_view.
type ViewRequest struct {
	ID int64 `json:"id"`
}

// OpenRequest represents the arguments for draft_open.
type OpenRequest struct {
	Ref string `json:"ref,omitempty"`
}

// SessionRequest represents the arguments for tools addressing a session.
type SessionRequest struct {
	Session string `json:"session"`
}

// EditRequest represents the arguments for draft_edit.
type EditRequest struct {
	Session string `json:"session"`
	thought.Patch
}

// SessionOutput is the result of the draft_* tools.
type SessionOutput struct {
	Session string          `json:"session"`
	Result  autosave.Result `json:"result,omitempty"`
	Record  *thought.Record `json:"record,omitempty"`
	lifecycle.Status
}

// Handler implementations

// HandleList handles the thought_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	var drafts *bool
	switch input.Filter {
	case "", "all":
	case "drafts":
		v := true
		drafts = &v
	case "final":
		v := false
		drafts = &v
	default:
		return errorResult(errors.NewInvalidRequest(`filter must be "all", "drafts", or "final"`)), nil
	}

	result, err := ops.List(ctx, h.store, ops.ListInput{
		Drafts: drafts,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleView handles the thought_view tool call.
func (h *Handlers) HandleView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ViewRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.ID <= 0 {
		return errorResult(errors.NewInvalidRequest("id must be a positive integer")), nil
	}

	result, err := ops.View(ctx, h.store, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleOpen handles the draft_open tool call.
func (h *Handlers) HandleOpen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[OpenRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	handle, c, err := h.registry.Open(ctx, input.Ref)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(SessionOutput{Session: handle, Status: c.Status()})
}

// HandleEdit handles the draft_edit tool call.
func (h *Handlers) HandleEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EditRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	c, err := h.registry.Get(input.Session)
	if err != nil {
		return errorResult(err), nil
	}
	if input.Patch.Empty() {
		return errorResult(errors.NewInvalidRequest("no fields to change")), nil
	}

	if err := c.Edit(input.Patch); err != nil {
		return errorResult(err), nil
	}
	return successResult(SessionOutput{Session: input.Session, Status: c.Status()})
}

// HandleCheckpoint handles the draft_checkpoint tool call.
func (h *Handlers) HandleCheckpoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, c, errRes := h.session(req)
	if errRes != nil {
		return errRes, nil
	}

	res, err := c.Checkpoint(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(SessionOutput{Session: input.Session, Result: res, Status: c.Status()})
}

// HandleSubmit handles the draft_submit tool call.
func (h *Handlers) HandleSubmit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, c, errRes := h.session(req)
	if errRes != nil {
		return errRes, nil
	}

	rec, err := c.Finalize(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(SessionOutput{Session: input.Session, Record: rec, Status: c.Status()})
}

// HandleClose handles the draft_close tool call.
func (h *Handlers) HandleClose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if err := h.registry.Close(input.Session); err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"closed": true, "session": input.Session})
}

// session decodes a SessionRequest and resolves its handle.
func (h *Handlers) session(req mcp.CallToolRequest) (SessionRequest, *lifecycle.Coordinator, *mcp.CallToolResult) {
	input, err := decode[SessionRequest](req)
	if err != nil {
		return input, nil, errorResult(err)
	}
	c, err := h.registry.Get(input.Session)
	if err != nil {
		return input, nil, errorResult(err)
	}
	return input, c, nil
}

// errorResult creates an MCP error result with a JSON error payload.
func errorResult(err error) *mcp.CallToolResult {
	tErr := errors.As(err)
	errorObj := map[string]any{
		"code":    tErr.Code,
		"message": tErr.Message,
		"status":  tErr.Status,
	}
	// Only include details for errors that carry no driver or internal
	// messages, to avoid leaking file paths or SQL errors
	if tErr.Code != errors.ErrInternal && tErr.Code != errors.ErrStoreUnavailable && len(tErr.Details) > 0 {
		errorObj["details"] = tErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
