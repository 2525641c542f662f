// Package autosave checkpoints an in-progress thought record on a fixed
// interval, assigning a store id on the first successful write.
package autosave

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/thoughts/internal/errors"
	"github.com/hpungsan/thoughts/internal/metrics"
	"github.com/hpungsan/thoughts/internal/thought"
)

// DefaultInterval is the checkpoint cadence when Options.Interval is unset.
const DefaultInterval = 5 * time.Second

// Store is the write side of the record store.
type Store interface {
	Create(ctx context.Context, r *thought.Record) (int64, error)
	Update(ctx context.Context, r *thought.Record) error
}

// Result is the outcome of a single checkpoint tick.
type Result string

const (
	ResultCreated Result = "created" // first persistence, id assigned
	ResultUpdated Result = "updated"
	ResultSkipped Result = "skipped" // situation and thought both empty
	ResultBusy    Result = "busy"    // another write in flight; tick dropped
	ResultClosed  Result = "closed"  // session stopped or finalized
)

// Options configures a Session.
type Options struct {
	// Interval between checkpoint ticks. Zero means DefaultInterval.
	Interval time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// OnIDAssigned is called once, after the first successful create.
	OnIDAssigned func(id int64)

	// OnSaved is called after every successful write with its updatedAt.
	OnSaved func(at time.Time)

	Logger  *slog.Logger
	Metrics *metrics.Persistence
}

// Base seeds a session. The zero value starts a brand-new entry.
type Base struct {
	ID        int64
	CreatedAt time.Time
	Copy      thought.WorkingCopy
}

// Session owns the working copy of one open entry and its autosave timer.
type Session struct {
	store Store
	opts  Options
	log   *slog.Logger

	// sem is the in-flight guard: holding it means a store write is pending.
	// Ticks try-acquire and drop on contention; finalize waits for it.
	sem chan struct{}

	mu          sync.Mutex
	wc          thought.WorkingCopy
	id          int64
	createdAt   time.Time
	lastSavedAt time.Time
	closed      bool
	finalizing  bool // finalize has taken its snapshot
	final       *thought.Record
	cancel      context.CancelFunc
}

// NewSession creates a session over base. The timer is not started.
func NewSession(store Store, base Base, opts Options) *Session {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	wc := base.Copy.Clone()
	if base.ID == 0 {
		// Unsaved entries are always drafts until finalized.
		wc.IsDraft = true
	}

	return &Session{
		store:     store,
		opts:      opts,
		log:       log,
		sem:       make(chan struct{}, 1),
		wc:        wc,
		id:        base.ID,
		createdAt: base.CreatedAt,
	}
}

// Start launches the autosave timer. It is a no-op if already running or closed.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)
}

func (s *Session) run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			// Teardown must not abort a write that already started.
			_, _ = s.Checkpoint(context.WithoutCancel(ctx))
		}
	}
}

// Stop cancels the timer and closes the session to further checkpoints.
// It does not wait for a write already in flight.
func (s *Session) Stop() {
	s.mu.Lock()
	s.closed = true
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Apply edits the working copy.
func (s *Session) Apply(p thought.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.NewSessionClosed("closed")
	}
	if s.finalizing {
		return errors.NewSessionClosed("finalizing")
	}

	fields := s.wc.Fields.Clone()
	if err := p.Apply(&fields); err != nil {
		return err
	}
	s.wc.Fields = fields
	return nil
}

// Snapshot returns a copy of the working copy.
func (s *Session) Snapshot() thought.WorkingCopy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wc.Clone()
}

// ID returns the assigned store id, or 0 before the first persistence.
func (s *Session) ID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// LastSavedAt returns the updatedAt of the most recent successful write.
func (s *Session) LastSavedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSavedAt
}

// Saving reports whether a store write is in flight.
func (s *Session) Saving() bool {
	return len(s.sem) > 0
}

// Closed reports whether the session accepts no further checkpoints.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Checkpoint runs one autosave tick. Store failures are logged and returned;
// the working copy is kept and the next tick retries.
func (s *Session) Checkpoint(ctx context.Context) (Result, error) {
	select {
	case s.sem <- struct{}{}:
	default:
		s.opts.Metrics.Checkpoint(metrics.ResultBusy)
		return ResultBusy, nil
	}
	defer func() { <-s.sem }()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ResultClosed, nil
	}
	if !s.wc.Fields.Substantive() {
		s.mu.Unlock()
		s.opts.Metrics.Checkpoint(metrics.ResultSkipped)
		return ResultSkipped, nil
	}
	snap := s.wc.Clone()
	s.mu.Unlock()

	rec, created, err := s.persist(ctx, snap.Fields, snap.IsDraft)
	if err != nil {
		s.opts.Metrics.Checkpoint(metrics.ResultFailed)
		s.log.Warn("checkpoint failed; retrying next tick",
			"id", rec.ID,
			"error", err,
		)
		return "", err
	}

	if created {
		s.opts.Metrics.Checkpoint(metrics.ResultCreated)
		return ResultCreated, nil
	}
	s.opts.Metrics.Checkpoint(metrics.ResultUpdated)
	return ResultUpdated, nil
}

// Finalize waits for any in-flight checkpoint, then persists the working
// copy with isDraft=false. It skips the empty-entry guard. On success the
// timer stops and later calls return the same record without writing.
func (s *Session) Finalize(ctx context.Context) (*thought.Record, error) {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		s.opts.Metrics.Finalize(metrics.ResultFailed)
		return nil, errors.NewStoreUnavailable(ctx.Err())
	}
	defer func() { <-s.sem }()

	s.mu.Lock()
	if s.final != nil {
		rec := *s.final
		s.mu.Unlock()
		return &rec, nil
	}
	if s.closed {
		s.mu.Unlock()
		return nil, errors.NewSessionClosed("closed")
	}
	snap := s.wc.Clone()
	s.finalizing = true
	s.mu.Unlock()

	rec, _, err := s.persist(ctx, snap.Fields, false)
	if err != nil {
		s.mu.Lock()
		s.finalizing = false
		s.mu.Unlock()
		s.opts.Metrics.Finalize(metrics.ResultFailed)
		s.log.Warn("finalize failed; working copy kept",
			"id", rec.ID,
			"error", err,
		)
		return nil, err
	}
	s.opts.Metrics.Finalize(metrics.ResultOK)

	s.mu.Lock()
	s.wc.IsDraft = false
	s.final = rec
	s.mu.Unlock()
	s.Stop()

	out := *rec
	return &out, nil
}

// persist writes fields as the session's record, creating it if no id has
// been assigned. Callers must hold the in-flight guard. The returned record
// is never nil so failures can still be logged with the target id.
func (s *Session) persist(ctx context.Context, fields thought.Fields, isDraft bool) (*thought.Record, bool, error) {
	s.mu.Lock()
	id, createdAt := s.id, s.createdAt
	s.mu.Unlock()

	now := s.opts.Now().UTC().Truncate(time.Millisecond)
	rec := &thought.Record{
		ID:        id,
		Fields:    fields,
		IsDraft:   isDraft,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}

	start := time.Now()
	created := id == 0
	if created {
		rec.CreatedAt = now
		newID, err := s.store.Create(ctx, rec)
		s.opts.Metrics.ObserveWrite("create", time.Since(start).Seconds())
		if err != nil {
			return rec, false, err
		}
		rec.ID = newID
	} else {
		// createdAt <= updatedAt even if the clock stepped backwards
		if now.Before(createdAt) {
			rec.UpdatedAt = createdAt
		}
		err := s.store.Update(ctx, rec)
		s.opts.Metrics.ObserveWrite("update", time.Since(start).Seconds())
		if err != nil {
			return rec, false, err
		}
	}

	s.mu.Lock()
	if created {
		s.id = rec.ID
		s.createdAt = rec.CreatedAt
	}
	s.lastSavedAt = rec.UpdatedAt
	s.mu.Unlock()

	if created {
		s.log.Info("thought record created", "id", rec.ID, "draft", rec.IsDraft)
		if s.opts.OnIDAssigned != nil {
			s.opts.OnIDAssigned(rec.ID)
		}
	}
	if s.opts.OnSaved != nil {
		s.opts.OnSaved(rec.UpdatedAt)
	}

	return rec, created, nil
}
