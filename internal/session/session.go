// Package session implements the task timer lifecycle: Idle, Running, Paused
// and the Stop action that turns the working session into a history entry.
package session

import (
	"errors"
	"time"
)

var (
	ErrEmptyTaskName     = errors.New("task name is empty")
	ErrSessionActive     = errors.New("session already active")
	ErrNoSession         = errors.New("no active session")
	ErrInvalidTransition = errors.New("invalid transition")
)

// Status is the state of the working session.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	default:
		return "idle"
	}
}

// Session is the working (mutable) session.
type Session struct {
	ID        string
	Name      string
	Elapsed   int // seconds spent Running
	Notes     []string
	StartedAt time.Time
	EndedAt   time.Time
	Status    Status
}

// Active reports whether the session has been started and not yet stopped.
func (s Session) Active() bool {
	return s.Status != StatusIdle
}

// Entry is an immutable record of one completed session.
type Entry struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	StartedAt time.Time `json:"startedAt" yaml:"startedAt"`
	EndedAt   time.Time `json:"endedAt" yaml:"endedAt"`
	Duration  int       `json:"duration" yaml:"duration"` // seconds, pauses excluded
	Notes     []string  `json:"notes" yaml:"notes"`
}

// Recorder receives completed sessions.
type Recorder interface {
	Record(Entry)
}
