package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/hpungsan/thoughts/internal/autosave"
	"github.com/hpungsan/thoughts/internal/config"
	"github.com/hpungsan/thoughts/internal/db"
	"github.com/hpungsan/thoughts/internal/errors"
	"github.com/hpungsan/thoughts/internal/lifecycle"
	"github.com/hpungsan/thoughts/internal/ops"
	"github.com/hpungsan/thoughts/internal/thought"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Handlers contains HTTP route handlers for the web UI and session API.
type Handlers struct {
	store    *db.Store
	registry *lifecycle.Registry
	cfg      *config.Config
	renderer *Renderer
}

// sessionResponse is the JSON shape of a session in API responses.
type sessionResponse struct {
	Session string `json:"session"`
	lifecycle.Status
}

// HandleList handles GET /: list records, newest first.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	input := ops.ListInput{
		Drafts: parseFilter(filter),
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	}

	result, err := ops.List(r.Context(), h.store, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData: PageData{
			Title:   "Thought Records",
			Version: h.renderer.version,
			Nav:     "thoughts",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
		Filter:     filter,
	})
}

// HandleView handles GET /view/{id}: read-only view of a record.
func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.View(r.Context(), h.store, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "view", ViewPageData{
		PageData: PageData{
			Title:   result.Title,
			Version: h.renderer.version,
			Nav:     "thoughts",
		},
		Record:       result.Record,
		RenderedHTML: renderMarkdown(result.Markdown),
		Problems:     result.Problems,
	})
}

// HandleForm handles GET /form/{ref}: the edit form for a new entry or an
// existing record. The page's script opens an autosave session for ref.
func (h *Handlers) HandleForm(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("ref")
	id, err := thought.ParseRef(ref)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data := FormPageData{
		PageData: PageData{
			Title:   "New Thought",
			Version: h.renderer.version,
			Nav:     "new",
		},
		Ref:      thought.NewRef,
		Fields:   thought.Defaults(),
		IsDraft:  true,
		Emotions: thought.EmotionOptions,
		Interval: h.cfg.AutosaveInterval().Milliseconds(),
	}

	if id != 0 {
		result, err := ops.View(r.Context(), h.store, id)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		data.Title = result.Title
		data.Nav = "thoughts"
		data.Ref = strconv.FormatInt(id, 10)
		data.Fields = result.Record.Fields
		data.IsDraft = result.Record.IsDraft
	}

	h.renderer.renderPage(w, "form", data)
}

// HandleAPIList handles GET /api/thoughts.
func (h *Handlers) HandleAPIList(w http.ResponseWriter, r *http.Request) {
	input := ops.ListInput{
		Drafts: parseFilter(r.URL.Query().Get("filter")),
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	}

	result, err := ops.List(r.Context(), h.store, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleOpenSession handles POST /api/sessions: body {"ref": "new"|"<id>"}.
func (h *Handlers) HandleOpenSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ref string `json:"ref"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	handle, c, err := h.registry.Open(r.Context(), body.Ref)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, sessionResponse{Session: handle, Status: c.Status()})
}

// HandleSessionStatus handles GET /api/sessions/{sid}.
func (h *Handlers) HandleSessionStatus(w http.ResponseWriter, r *http.Request) {
	handle, c, ok := h.session(w, r)
	if !ok {
		return
	}
	renderJSON(w, http.StatusOK, sessionResponse{Session: handle, Status: c.Status()})
}

// HandleEditSession handles PATCH /api/sessions/{sid}: body is a patch.
func (h *Handlers) HandleEditSession(w http.ResponseWriter, r *http.Request) {
	handle, c, ok := h.session(w, r)
	if !ok {
		return
	}

	var p thought.Patch
	if err := decodeBody(w, r, &p); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if err := c.Edit(p); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, sessionResponse{Session: handle, Status: c.Status()})
}

// HandleCheckpoint handles POST /api/sessions/{sid}/checkpoint: an
// immediate autosave tick.
func (h *Handlers) HandleCheckpoint(w http.ResponseWriter, r *http.Request) {
	handle, c, ok := h.session(w, r)
	if !ok {
		return
	}

	res, err := c.Checkpoint(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, struct {
		Result autosave.Result `json:"result"`
		sessionResponse
	}{res, sessionResponse{Session: handle, Status: c.Status()}})
}

// HandleSubmit handles POST /api/sessions/{sid}/submit.
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	handle, c, ok := h.session(w, r)
	if !ok {
		return
	}

	rec, err := c.Finalize(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, struct {
		Record *thought.Record `json:"record"`
		sessionResponse
	}{rec, sessionResponse{Session: handle, Status: c.Status()}})
}

// HandleCloseSession handles DELETE /api/sessions/{sid}.
func (h *Handlers) HandleCloseSession(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("sid")
	if err := h.registry.Close(handle); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"closed": true, "session": handle})
}

// session resolves the {sid} path value, rendering the error if unknown.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (string, *lifecycle.Coordinator, bool) {
	handle := r.PathValue("sid")
	c, err := h.registry.Get(handle)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return "", nil, false
	}
	return handle, c, true
}

// decodeBody decodes a JSON request body into v. An empty body is allowed.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return errors.NewInvalidRequest("invalid request body: " + err.Error())
	}
	return nil
}

// parseID parses a positive record id path value.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest("record id must be a positive integer")
	}
	return id, nil
}

// parseFilter maps the list filter to a draft selector.
func parseFilter(s string) *bool {
	switch s {
	case "drafts":
		v := true
		return &v
	case "final":
		v := false
		return &v
	}
	return nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
