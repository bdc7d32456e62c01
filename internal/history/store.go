// Package history keeps completed sessions for the lifetime of the process.
package history

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Smailkiller/FOXFOCUS/internal/clock"
	"github.com/Smailkiller/FOXFOCUS/internal/session"
	"github.com/rs/zerolog"
)

// Sink receives a copy of every recorded entry, e.g. an archive on disk.
type Sink interface {
	SaveEntry(ctx context.Context, e session.Entry) error
}

// Store is an append-only, newest-first list of completed sessions.
type Store struct {
	mu      sync.RWMutex
	entries []session.Entry
	sink    Sink
	timeout time.Duration
	log     zerolog.Logger
}

var _ session.Recorder = (*Store)(nil)

// NewStore returns an empty store. sink may be nil.
func NewStore(sink Sink, log zerolog.Logger) *Store {
	return &Store{sink: sink, timeout: 5 * time.Second, log: log}
}

// Record inserts e at the front. Sink failures are logged only.
func (s *Store) Record(e session.Entry) {
	e.Notes = append([]string{}, e.Notes...)

	s.mu.Lock()
	s.entries = append([]session.Entry{e}, s.entries...)
	s.mu.Unlock()

	if s.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.sink.SaveEntry(ctx, e); err != nil {
		s.log.Error().Err(err).Str("session", e.ID).Msg("archive entry")
	}
}

// List returns the entries, newest first.
func (s *Store) List() []session.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]session.Entry, len(s.entries))
	for i, e := range s.entries {
		e.Notes = append([]string{}, e.Notes...)
		out[i] = e
	}
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Latest returns the most recent entry.
func (s *Store) Latest() (session.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return session.Entry{}, false
	}
	e := s.entries[0]
	e.Notes = append([]string{}, e.Notes...)
	return e, true
}

// Format renders an entry as plain text.
func Format(e session.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s - %s\n", e.Name, clock.Format(e.Duration),
		e.StartedAt.Format("2006-01-02 15:04:05"), e.EndedAt.Format("15:04:05"))
	for _, n := range e.Notes {
		fmt.Fprintf(&b, "- %s\n", n)
	}
	return b.String()
}
