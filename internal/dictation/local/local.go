// Package local streams live speech to the on-device speech engine and keeps
// the finalized segments as the transcript.
package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Smailkiller/FOXFOCUS/internal/daemon"
	"github.com/Smailkiller/FOXFOCUS/internal/dictation"
	"github.com/rs/zerolog"
)

// DefaultLocale is the recognizer language.
const DefaultLocale = "ru_RU"

var errCaptureOpen = errors.New("capture already open")

// Transcriber is the local dictation backend.
type Transcriber struct {
	socketPath  string
	locale      string
	stopTimeout time.Duration
	log         zerolog.Logger

	mu           sync.Mutex
	cmd          *daemon.Client
	events       *daemon.Client
	done         chan struct{}
	segments     []string
	engineErr    string
	stopping     bool
	sawRecording bool
	onPartial    func(string)
}

var (
	_ dictation.LocalEngine     = (*Transcriber)(nil)
	_ dictation.PartialReporter = (*Transcriber)(nil)
)

// New returns a local backend for the engine listening on socketPath.
func New(socketPath, locale string, stopTimeout time.Duration, log zerolog.Logger) *Transcriber {
	if locale == "" {
		locale = DefaultLocale
	}
	return &Transcriber{
		socketPath:  socketPath,
		locale:      locale,
		stopTimeout: stopTimeout,
		log:         log,
	}
}

// OnPartial registers the live preview observer. It receives the finalized
// text so far followed by the current interim hypothesis.
func (t *Transcriber) OnPartial(fn func(string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPartial = fn
}

// Supported reports whether the speech engine is reachable and healthy.
func (t *Transcriber) Supported(ctx context.Context) bool {
	c, err := daemon.ConnectContext(ctx, t.socketPath)
	if err != nil {
		return false
	}
	defer c.Close()

	_, err = c.Status()
	return err == nil
}

// BeginCapture subscribes to engine events and starts continuous recognition.
func (t *Transcriber) BeginCapture(ctx context.Context) error {
	t.mu.Lock()
	busy := t.cmd != nil
	t.mu.Unlock()
	if busy {
		return fmt.Errorf("%w: %w", dictation.ErrRecognitionFailure, errCaptureOpen)
	}

	if !t.Supported(ctx) {
		return dictation.ErrUnsupportedPlatform
	}

	events, err := daemon.ConnectContext(ctx, t.socketPath)
	if err != nil {
		return fmt.Errorf("%w: %w", dictation.ErrUnsupportedPlatform, err)
	}
	err = events.Subscribe(daemon.EventPartial, daemon.EventSegment, daemon.EventStatus, daemon.EventError)
	if err != nil {
		events.Close()
		return fmt.Errorf("%w: %w", dictation.ErrRecognitionFailure, err)
	}

	cmd, err := daemon.ConnectContext(ctx, t.socketPath)
	if err != nil {
		events.Close()
		return fmt.Errorf("%w: %w", dictation.ErrUnsupportedPlatform, err)
	}

	resp, err := cmd.Start(t.locale)
	if err != nil {
		cmd.Close()
		events.Close()
		return fmt.Errorf("%w: start: %w", dictation.ErrRecognitionFailure, err)
	}

	done := make(chan struct{})
	t.mu.Lock()
	t.cmd = cmd
	t.events = events
	t.done = done
	t.segments = nil
	t.engineErr = ""
	t.stopping = false
	t.sawRecording = false
	t.mu.Unlock()

	go t.pump(events, done)

	t.log.Debug().Str("locale", t.locale).Str("session", resp.SessionID).Msg("local recognition started")
	return nil
}

// EndCapture stops recognition and waits for the engine to quiesce before
// returning the trimmed transcript.
func (t *Transcriber) EndCapture(ctx context.Context) (string, error) {
	t.mu.Lock()
	cmd, events, done := t.cmd, t.events, t.done
	t.stopping = true
	t.mu.Unlock()

	if cmd == nil {
		return "", dictation.ErrNotCapturing
	}

	defer func() {
		cmd.Close()
		events.Close()
		<-done
		t.mu.Lock()
		t.cmd, t.events, t.done = nil, nil, nil
		t.mu.Unlock()
	}()

	if err := cmd.Stop(); err != nil {
		t.log.Warn().Err(err).Msg("stop local recognition")
	}

	var timeout <-chan time.Time
	if t.stopTimeout > 0 {
		timer := time.NewTimer(t.stopTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var waitErr error
	select {
	case <-done:
	case <-timeout:
		t.log.Warn().Dur("timeout", t.stopTimeout).Msg("speech engine did not quiesce")
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	t.mu.Lock()
	text := strings.Join(t.segments, " ")
	engineErr := t.engineErr
	t.mu.Unlock()

	if text == "" {
		if engineErr != "" {
			return "", fmt.Errorf("%w: %s", dictation.ErrRecognitionFailure, engineErr)
		}
		if waitErr != nil {
			return "", fmt.Errorf("%w: %w", dictation.ErrRecognitionFailure, waitErr)
		}
	}
	return text, nil
}

// pump consumes engine events until the engine reports it stopped recording
// or the stream closes.
func (t *Transcriber) pump(events *daemon.Client, done chan struct{}) {
	defer close(done)

	for {
		ev, err := events.ReadEvent()
		if err != nil {
			t.mu.Lock()
			stopping := t.stopping
			t.mu.Unlock()
			if !stopping {
				t.log.Warn().Err(err).Msg("speech engine stream ended")
			}
			return
		}

		switch ev.Event {
		case daemon.EventSegment:
			text := strings.TrimSpace(ev.Text)
			t.mu.Lock()
			if text != "" {
				t.segments = append(t.segments, text)
			}
			final := strings.Join(t.segments, " ")
			fn := t.onPartial
			t.mu.Unlock()
			if fn != nil {
				fn(final)
			}

		case daemon.EventPartial:
			t.mu.Lock()
			preview := strings.TrimSpace(strings.Join(append(append([]string{}, t.segments...), ev.Text), " "))
			fn := t.onPartial
			t.mu.Unlock()
			if fn != nil {
				fn(preview)
			}

		case daemon.EventStatus:
			if ev.Recording == nil {
				continue
			}
			// An idle status only counts once this capture has been seen
			// recording; the engine may report idle on subscribe.
			t.mu.Lock()
			if *ev.Recording {
				t.sawRecording = true
			}
			quiesced := !*ev.Recording && t.sawRecording
			t.mu.Unlock()
			if quiesced {
				return
			}

		case daemon.EventError:
			if ev.Transient != nil && *ev.Transient {
				t.log.Debug().Str("message", ev.Message).Msg("speech engine transient error")
				continue
			}
			t.mu.Lock()
			t.engineErr = ev.Message
			t.mu.Unlock()
			t.log.Warn().Str("message", ev.Message).Msg("speech engine error")
		}
	}
}
