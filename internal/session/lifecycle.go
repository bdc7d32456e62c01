package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Smailkiller/FOXFOCUS/internal/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Lifecycle owns the working session, its elapsed-time counter and the tick
// schedule. All methods are safe for concurrent use.
type Lifecycle struct {
	mu       sync.Mutex
	cur      Session
	sched    clock.Scheduler
	interval time.Duration
	cancel   clock.Cancel
	gen      uint64
	recorder Recorder
	ticks    chan int

	now   func() time.Time
	newID func() string
	log   zerolog.Logger
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithClock overrides the wall clock used for start and end timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Lifecycle) { l.now = now }
}

// WithIDSource overrides session id generation.
func WithIDSource(newID func() string) Option {
	return func(l *Lifecycle) { l.newID = newID }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Lifecycle) { l.log = log }
}

// WithTickInterval overrides the one-second tick interval.
func WithTickInterval(d time.Duration) Option {
	return func(l *Lifecycle) { l.interval = d }
}

// NewLifecycle returns an idle lifecycle. Completed sessions go to recorder.
func NewLifecycle(sched clock.Scheduler, recorder Recorder, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		sched:    sched,
		interval: time.Second,
		recorder: recorder,
		ticks:    make(chan int, 1),
		now:      time.Now,
		newID:    uuid.NewString,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Ticks delivers the elapsed counter after each increment. Slow readers miss
// intermediate values; Snapshot is always current.
func (l *Lifecycle) Ticks() <-chan int {
	return l.ticks
}

// Snapshot returns a copy of the working session.
func (l *Lifecycle) Snapshot() Session {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.cur
	s.Notes = append([]string(nil), l.cur.Notes...)
	return s
}

// Start begins a new session named name.
func (l *Lifecycle) Start(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyTaskName
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cur.Active() {
		return fmt.Errorf("start %q: %w", name, ErrSessionActive)
	}

	l.cur = Session{
		ID:        l.newID(),
		Name:      name,
		StartedAt: l.now(),
		Status:    StatusRunning,
	}
	l.startTicking()

	l.log.Info().Str("session", l.cur.ID).Str("name", name).Msg("session started")
	return nil
}

// Pause freezes elapsed-time accumulation.
func (l *Lifecycle) Pause() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cur.Status != StatusRunning {
		return fmt.Errorf("pause from %s: %w", l.cur.Status, ErrInvalidTransition)
	}
	l.stopTicking()
	l.cur.Status = StatusPaused

	l.log.Debug().Str("session", l.cur.ID).Int("elapsed", l.cur.Elapsed).Msg("session paused")
	return nil
}

// Resume continues accumulation after a pause.
func (l *Lifecycle) Resume() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cur.Status != StatusPaused {
		return fmt.Errorf("resume from %s: %w", l.cur.Status, ErrInvalidTransition)
	}
	l.cur.Status = StatusRunning
	l.startTicking()

	l.log.Debug().Str("session", l.cur.ID).Int("elapsed", l.cur.Elapsed).Msg("session resumed")
	return nil
}

// Stop ends the session, records it and resets to a fresh idle session.
func (l *Lifecycle) Stop() (Entry, error) {
	l.mu.Lock()

	if !l.cur.Active() {
		l.mu.Unlock()
		return Entry{}, ErrNoSession
	}
	l.stopTicking()

	entry := Entry{
		ID:        l.cur.ID,
		Name:      l.cur.Name,
		StartedAt: l.cur.StartedAt,
		EndedAt:   l.now(),
		Duration:  l.cur.Elapsed,
		Notes:     append([]string{}, l.cur.Notes...),
	}
	l.cur = Session{}
	l.mu.Unlock()

	if l.recorder != nil {
		l.recorder.Record(entry)
	}

	l.log.Info().Str("session", entry.ID).Int("duration", entry.Duration).
		Int("notes", len(entry.Notes)).Msg("session stopped")
	return entry, nil
}

// AddNote appends the trimmed text to the active session. Blank text is
// ignored.
func (l *Lifecycle) AddNote(text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.cur.Active() {
		return ErrNoSession
	}
	l.appendNote(text)
	return nil
}

// AddNoteTo appends the note only while session id is still the active one.
func (l *Lifecycle) AddNoteTo(id, text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.cur.Active() || l.cur.ID != id {
		return ErrNoSession
	}
	l.appendNote(text)
	return nil
}

// ActiveID returns the id of the active session, or "" when idle.
func (l *Lifecycle) ActiveID() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.cur.Active() {
		return ""
	}
	return l.cur.ID
}

// appendNote must be called with mu held.
func (l *Lifecycle) appendNote(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	l.cur.Notes = append(l.cur.Notes, text)
}

// Close cancels the tick schedule. The working session is left as is.
func (l *Lifecycle) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopTicking()
}

// startTicking must be called with mu held.
func (l *Lifecycle) startTicking() {
	l.stopTicking()
	l.gen++
	gen := l.gen
	l.cancel = l.sched.Every(l.interval, func() { l.tick(gen) })
}

// stopTicking must be called with mu held.
func (l *Lifecycle) stopTicking() {
	l.gen++
	if l.cancel != nil {
		cancel := l.cancel
		l.cancel = nil
		// cancel waits for an in-flight tick, and tick takes mu.
		go cancel()
	}
}

func (l *Lifecycle) tick(gen uint64) {
	l.mu.Lock()
	if gen != l.gen || l.cur.Status != StatusRunning {
		l.mu.Unlock()
		return
	}
	l.cur.Elapsed++
	elapsed := l.cur.Elapsed
	l.mu.Unlock()

	select {
	case l.ticks <- elapsed:
	default:
		// drop the stale value and publish the current one
		select {
		case <-l.ticks:
		default:
		}
		select {
		case l.ticks <- elapsed:
		default:
		}
	}
}
