// Package dictation turns speech into session notes through one of two
// interchangeable transcription backends, chosen per capture by network
// reachability.
package dictation

import (
	"context"
	"errors"
)

var (
	ErrDeviceUnavailable    = errors.New("audio input device unavailable")
	ErrUnsupportedPlatform  = errors.New("local speech engine not available")
	ErrNoOfflineCapability  = errors.New("offline and no local speech engine")
	ErrTranscriptionService = errors.New("transcription service error")
	ErrRecognitionFailure   = errors.New("speech recognition failed")
	ErrNothingRecognized    = errors.New("nothing recognized")
	ErrAttemptInFlight      = errors.New("dictation already in progress")
	ErrNotCapturing         = errors.New("no capture in progress")
	ErrNoSession            = errors.New("no active session to take the note")
)

// Transcriber is one dictation backend. A capture is one BeginCapture /
// EndCapture pair; EndCapture releases the input whatever its outcome.
type Transcriber interface {
	BeginCapture(ctx context.Context) error
	EndCapture(ctx context.Context) (string, error)
}

// LocalEngine is a Transcriber that may be missing on the current machine.
type LocalEngine interface {
	Transcriber
	Supported(ctx context.Context) bool
}

// PartialReporter is implemented by backends that can stream interim text.
type PartialReporter interface {
	OnPartial(fn func(text string))
}

// Reachability reports whether the network is currently usable.
type Reachability interface {
	Online(ctx context.Context) bool
}

// Mode names the backend used for a capture.
type Mode int

const (
	ModeCloud Mode = iota
	ModeLocal
)

func (m Mode) String() string {
	if m == ModeLocal {
		return "local"
	}
	return "cloud"
}

// Badge prefixes dictated notes so the source stays visible in the log.
func (m Mode) Badge() string {
	if m == ModeLocal {
		return "🏠"
	}
	return "☁️"
}
