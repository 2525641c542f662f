package lifecycle

import (
	"context"
	"crypto/rand"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/thoughts/internal/errors"
)

// Registry holds the open sessions of the web and MCP surfaces, keyed by
// ULID handles so unsaved entries can be addressed before they have an id.
type Registry struct {
	store Store
	opts  Options

	mu       sync.Mutex
	sessions map[string]*Coordinator
}

// NewRegistry creates an empty registry whose sessions share opts.
func NewRegistry(store Store, opts Options) *Registry {
	return &Registry{
		store:    store,
		opts:     opts,
		sessions: make(map[string]*Coordinator),
	}
}

// Open starts a session for ref and registers it. Unlike Open, a missing
// record is reported as NOT_FOUND and nothing is registered.
func (r *Registry) Open(ctx context.Context, ref string) (string, *Coordinator, error) {
	c, err := Open(ctx, r.store, ref, r.opts)
	if err != nil {
		return "", nil, err
	}
	if c.State() == StateNotFound {
		return "", nil, errors.NewNotFound(c.ID())
	}

	handle, err := generateULID()
	if err != nil {
		c.Close()
		return "", nil, errors.NewInternal(err)
	}

	r.mu.Lock()
	r.sessions[handle] = c
	r.mu.Unlock()
	return handle, c, nil
}

// Get returns the session registered under handle.
func (r *Registry) Get(handle string) (*Coordinator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[handle]
	if !ok {
		return nil, errors.NewSessionNotFound(handle)
	}
	return c, nil
}

// Close stops the session under handle and forgets it.
func (r *Registry) Close(handle string) error {
	r.mu.Lock()
	c, ok := r.sessions[handle]
	delete(r.sessions, handle)
	r.mu.Unlock()

	if !ok {
		return errors.NewSessionNotFound(handle)
	}
	c.Close()
	return nil
}

// CloseAll stops every registered session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Coordinator)
	r.mu.Unlock()

	for _, c := range sessions {
		c.Close()
	}
}

// Handles returns the registered handles in creation order.
func (r *Registry) Handles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sessions))
	for h := range r.sessions {
		out = append(out, h)
	}
	// ULIDs sort by creation time to the millisecond.
	sort.Strings(out)
	return out
}

func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
