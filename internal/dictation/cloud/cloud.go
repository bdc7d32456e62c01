// Package cloud records microphone audio and sends it to a remote
// transcription service in one request.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Smailkiller/FOXFOCUS/internal/audio"
	"github.com/Smailkiller/FOXFOCUS/internal/dictation"
	"github.com/rs/zerolog"
)

// Instruction accompanies every request.
const Instruction = "Please transcribe the audio into text exactly as spoken. " +
	"The language is Russian. Do not add any introductory or concluding phrases, " +
	"just return the transcription."

// Language is the ISO-639-1 code sent with every request.
const Language = "ru"

var (
	errCaptureOpen  = errors.New("capture already open")
	errUnconfigured = errors.New("cloud transcription is not configured")
)

// Request is one transcription call.
type Request struct {
	Audio       []byte
	MimeType    string
	Instruction string
	Language    string
}

// Service performs the remote transcription.
type Service interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}

// Unconfigured is the Service used when no endpoint is set up. Every call
// fails.
type Unconfigured struct{}

func (Unconfigured) Transcribe(context.Context, Request) (string, error) {
	return "", errUnconfigured
}

// Transcriber is the cloud dictation backend.
type Transcriber struct {
	device      audio.Device
	service     Service
	timeout     time.Duration
	language    string
	instruction string
	log         zerolog.Logger

	mu      sync.Mutex
	capture audio.Capture
}

var _ dictation.Transcriber = (*Transcriber)(nil)

// Option configures a Transcriber.
type Option func(*Transcriber)

// WithLanguage overrides the request language. Empty keeps the default.
func WithLanguage(lang string) Option {
	return func(t *Transcriber) {
		if lang != "" {
			t.language = lang
		}
	}
}

// WithInstruction overrides the request instruction. Empty keeps the default.
func WithInstruction(text string) Option {
	return func(t *Transcriber) {
		if text != "" {
			t.instruction = text
		}
	}
}

// New returns a cloud backend. A zero timeout leaves the request unbounded.
func New(device audio.Device, service Service, timeout time.Duration, log zerolog.Logger, opts ...Option) *Transcriber {
	t := &Transcriber{
		device:      device,
		service:     service,
		timeout:     timeout,
		language:    Language,
		instruction: Instruction,
		log:         log,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// BeginCapture acquires the input device and starts buffering audio.
func (t *Transcriber) BeginCapture(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.capture != nil {
		return fmt.Errorf("%w: %w", dictation.ErrDeviceUnavailable, errCaptureOpen)
	}
	c, err := t.device.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", dictation.ErrDeviceUnavailable, err)
	}
	t.capture = c
	return nil
}

// EndCapture releases the device, uploads the recording and returns the
// trimmed transcript.
func (t *Transcriber) EndCapture(ctx context.Context) (string, error) {
	t.mu.Lock()
	c := t.capture
	t.capture = nil
	t.mu.Unlock()

	if c == nil {
		return "", dictation.ErrNotCapturing
	}

	rec, err := c.Stop()
	if err != nil {
		return "", fmt.Errorf("%w: %w", dictation.ErrDeviceUnavailable, err)
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := t.service.Transcribe(ctx, Request{
		Audio:       rec.Data,
		MimeType:    rec.MimeType,
		Instruction: t.instruction,
		Language:    t.language,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", dictation.ErrTranscriptionService, err)
	}

	t.log.Debug().Int("bytes", len(rec.Data)).Dur("took", time.Since(start)).Msg("cloud transcription")
	return strings.TrimSpace(text), nil
}
