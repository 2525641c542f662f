// Package lifecycle coordinates an edit session of a thought record through
// its states: new, loaded draft or final, not found, and submitted.
package lifecycle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/thoughts/internal/autosave"
	"github.com/hpungsan/thoughts/internal/errors"
	"github.com/hpungsan/thoughts/internal/metrics"
	"github.com/hpungsan/thoughts/internal/thought"
)

// State is a coordinator state.
type State string

const (
	StateLoading      State = "loading"
	StateNew          State = "new"
	StateEditingDraft State = "editing_draft"
	StateEditingFinal State = "editing_final"
	StateNotFound     State = "not_found"
	StateSubmitted    State = "submitted"
)

// Store is the record store as seen by the coordinator.
type Store interface {
	autosave.Store
	Get(ctx context.Context, id int64) (*thought.Stored, error)
}

// Options configures coordinators.
type Options struct {
	// Interval is the autosave cadence. Zero means autosave.DefaultInterval.
	Interval time.Duration

	// DisableTimer leaves autosave to explicit Checkpoint calls.
	DisableTimer bool

	// OnRoute is called whenever the session's address changes: when an id
	// is first assigned (/form/{id}) and after submission (/view/{id}).
	OnRoute func(route string)

	Now     func() time.Time
	Logger  *slog.Logger
	Metrics *metrics.Persistence
}

// Coordinator drives one edit session.
type Coordinator struct {
	store Store
	opts  Options
	log   *slog.Logger

	mu       sync.Mutex
	state    State
	id       int64
	route    string
	session  *autosave.Session
	final    *thought.Record
	problems []*errors.ThoughtsError
	closed   bool
}

// Status is a point-in-time view of a session for presentation.
type Status struct {
	State       State          `json:"state"`
	ID          int64          `json:"id,omitempty"`
	Route       string         `json:"route,omitempty"`
	IsDraft     bool           `json:"isDraft"`
	Saving      bool           `json:"saving"`
	LastSavedAt *time.Time     `json:"lastSavedAt,omitempty"`
	Fields      thought.Fields `json:"fields"`
}

// Open starts a session for ref: "" or "new" for a brand-new entry, or a
// record id. A missing record yields a coordinator in StateNotFound and
// creates nothing. Store failures during load are returned.
func Open(ctx context.Context, store Store, ref string, opts Options) (*Coordinator, error) {
	id, err := thought.ParseRef(ref)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	c := &Coordinator{store: store, opts: opts, log: log}

	if id == 0 {
		c.state = StateNew
		c.route = thought.FormRoute(0)
		c.startSession(autosave.Base{})
		return c, nil
	}

	c.state = StateLoading
	st, err := store.Get(ctx, id)
	if errors.Is(err, errors.ErrNotFound) {
		c.state = StateNotFound
		c.id = id
		return c, nil
	}
	if err != nil {
		return nil, err
	}

	rec, problems := st.Decode()
	for _, p := range problems {
		log.Warn("stored field invalid; using default",
			"id", id,
			"field", p.Details["field"],
			"error", p.Message,
		)
	}
	c.problems = problems

	c.id = rec.ID
	c.route = thought.FormRoute(rec.ID)
	c.state = StateEditingDraft
	if !rec.IsDraft {
		c.state = StateEditingFinal
	}
	c.startSession(autosave.Base{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		Copy:      thought.WorkingCopy{Fields: rec.Fields, IsDraft: rec.IsDraft},
	})
	return c, nil
}

func (c *Coordinator) startSession(base autosave.Base) {
	c.session = autosave.NewSession(c.store, base, autosave.Options{
		Interval:     c.opts.Interval,
		Now:          c.opts.Now,
		OnIDAssigned: c.adoptID,
		Logger:       c.log,
		Metrics:      c.opts.Metrics,
	})
	c.opts.Metrics.SessionOpened()
	if !c.opts.DisableTimer {
		c.session.Start()
	}
}

// adoptID takes the id assigned on first persistence as the session's
// identity without reloading from the store.
func (c *Coordinator) adoptID(id int64) {
	c.mu.Lock()
	c.id = id
	c.route = thought.FormRoute(id)
	if c.state == StateNew {
		c.state = StateEditingDraft
	}
	route := c.route
	c.mu.Unlock()

	c.notifyRoute(route)
}

func (c *Coordinator) notifyRoute(route string) {
	if c.opts.OnRoute != nil {
		c.opts.OnRoute(route)
	}
}

// editable returns the session if edits are allowed in the current state.
func (c *Coordinator) editable() (*autosave.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errors.NewSessionClosed("closed")
	}
	switch c.state {
	case StateNew, StateEditingDraft, StateEditingFinal:
		return c.session, nil
	}
	return nil, errors.NewSessionClosed(string(c.state))
}

// Edit applies a patch to the working copy.
func (c *Coordinator) Edit(p thought.Patch) error {
	s, err := c.editable()
	if err != nil {
		return err
	}
	return s.Apply(p)
}

// Checkpoint runs an autosave tick now.
func (c *Coordinator) Checkpoint(ctx context.Context) (autosave.Result, error) {
	s, err := c.editable()
	if err != nil {
		return autosave.ResultClosed, nil
	}
	return s.Checkpoint(ctx)
}

// Finalize submits the entry. It persists even an empty entry, waits for an
// in-flight checkpoint, and ends autosave. Repeating it after success
// returns the submitted record. On failure the state and working copy are
// unchanged.
func (c *Coordinator) Finalize(ctx context.Context) (*thought.Record, error) {
	c.mu.Lock()
	if c.state == StateSubmitted {
		rec := *c.final
		c.mu.Unlock()
		return &rec, nil
	}
	c.mu.Unlock()

	s, err := c.editable()
	if err != nil {
		return nil, err
	}

	// c.mu must not be held here: the session calls adoptID on create.
	rec, err := s.Finalize(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	first := c.state != StateSubmitted
	c.state = StateSubmitted
	c.id = rec.ID
	c.final = rec
	c.route = thought.ViewRoute(rec.ID)
	route := c.route
	c.mu.Unlock()

	if first {
		c.log.Info("thought record submitted", "id", rec.ID)
		c.notifyRoute(route)
	}

	out := *rec
	return &out, nil
}

// Close ends the session and cancels the autosave timer immediately.
// It is safe to call more than once.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	s := c.session
	c.mu.Unlock()

	if s != nil {
		s.Stop()
		c.opts.Metrics.SessionClosed()
	}
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ID returns the session's record id, or 0 if none has been assigned.
func (c *Coordinator) ID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Route returns the session's current navigation address. It is empty
// for a record that was not found.
func (c *Coordinator) Route() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.route
}

// Problems returns field validation problems found when the record was loaded.
func (c *Coordinator) Problems() []*errors.ThoughtsError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*errors.ThoughtsError(nil), c.problems...)
}

// Status returns a snapshot for presentation.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	st := Status{State: c.state, ID: c.id, Route: c.route}
	s := c.session
	c.mu.Unlock()

	if s == nil {
		return st
	}
	wc := s.Snapshot()
	st.Fields = wc.Fields
	st.IsDraft = wc.IsDraft
	st.Saving = s.Saving()
	if at := s.LastSavedAt(); !at.IsZero() {
		st.LastSavedAt = &at
	}
	return st
}
