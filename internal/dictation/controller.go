package dictation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// NoteSink receives dictated text, normally the session lifecycle. AddNoteTo
// must fail when id is no longer the active session.
type NoteSink interface {
	AddNoteTo(id, text string) error
}

// State of the single dictation slot.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateCapturing
	StateTranscribing
)

// Result describes a finished attempt.
type Result struct {
	Mode Mode
	Text string // the note as appended; empty when nothing was appended
}

// Controller runs at most one dictation attempt at a time and merges its text
// into the session notes.
type Controller struct {
	selector *Selector
	notes    NoteSink
	log      zerolog.Logger
	partials chan string

	mu     sync.Mutex
	state  State
	mode   Mode
	active Transcriber
	target string
}

// NewController wires a selector to a note sink.
func NewController(selector *Selector, notes NoteSink, log zerolog.Logger) *Controller {
	c := &Controller{
		selector: selector,
		notes:    notes,
		log:      log,
		partials: make(chan string, 8),
	}
	for _, b := range selector.Backends() {
		if r, ok := b.(PartialReporter); ok {
			r.OnPartial(c.publishPartial)
		}
	}
	return c
}

// Partials streams interim text from backends that support it.
func (c *Controller) Partials() <-chan string {
	return c.partials
}

// State returns the current state and the mode of the attempt, if any.
func (c *Controller) State() (State, Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.mode
}

// Start selects a backend and begins capturing for session id. The transcript
// is only ever appended to that session.
func (c *Controller) Start(ctx context.Context, id string) (Mode, error) {
	if id == "" {
		return 0, ErrNoSession
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return c.mode, ErrAttemptInFlight
	}
	c.state = StateStarting
	c.mu.Unlock()

	mode, tr, err := c.selector.Select(ctx)
	if err == nil {
		err = tr.BeginCapture(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateIdle
		c.log.Warn().Err(err).Str("mode", mode.String()).Msg("dictation start failed")
		return mode, err
	}
	c.state = StateCapturing
	c.mode = mode
	c.active = tr
	c.target = id
	c.log.Info().Str("mode", mode.String()).Str("session", id).Msg("dictation started")
	return mode, nil
}

// Stop ends the capture, waits for the transcript and appends it as one note.
// Nothing is appended on failure.
func (c *Controller) Stop(ctx context.Context) (Result, error) {
	c.mu.Lock()
	if c.state != StateCapturing {
		c.mu.Unlock()
		return Result{}, ErrNotCapturing
	}
	c.state = StateTranscribing
	mode, tr, target := c.mode, c.active, c.target
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = StateIdle
		c.active = nil
		c.target = ""
		c.mu.Unlock()
	}()

	text, err := tr.EndCapture(ctx)
	if err != nil {
		c.log.Warn().Err(err).Str("mode", mode.String()).Msg("dictation failed")
		return Result{Mode: mode}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		if mode == ModeLocal {
			return Result{Mode: mode}, ErrNothingRecognized
		}
		return Result{Mode: mode}, nil
	}

	note := mode.Badge() + " " + text
	if err := c.notes.AddNoteTo(target, note); err != nil {
		return Result{Mode: mode}, fmt.Errorf("append dictated note: %w", err)
	}
	c.log.Info().Str("mode", mode.String()).Int("chars", len(text)).Msg("dictation appended")
	return Result{Mode: mode, Text: note}, nil
}

func (c *Controller) publishPartial(text string) {
	select {
	case c.partials <- text:
	default:
	}
}
