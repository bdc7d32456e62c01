package cloud

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Smailkiller/FOXFOCUS/internal/audio"
	"github.com/Smailkiller/FOXFOCUS/internal/dictation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice hands out one capture at a time, like a real microphone.
type fakeDevice struct {
	openErr error
	stopErr error
	held    bool
	opens   int
}

func (d *fakeDevice) Open(context.Context) (audio.Capture, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	if d.held {
		return nil, errors.New("device busy")
	}
	d.held = true
	d.opens++
	return &fakeCapture{dev: d}, nil
}

type fakeCapture struct{ dev *fakeDevice }

func (c *fakeCapture) Stop() (audio.Recording, error) {
	c.dev.held = false
	if c.dev.stopErr != nil {
		return audio.Recording{}, c.dev.stopErr
	}
	return audio.Recording{Data: []byte("RIFF...."), MimeType: audio.MimeWAV}, nil
}

type fakeService struct {
	text  string
	err   error
	got   Request
	calls int
	wait  bool
}

func (s *fakeService) Transcribe(ctx context.Context, req Request) (string, error) {
	s.calls++
	s.got = req
	if s.wait {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.text, s.err
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{}
	svc := &fakeService{text: " готово \n"}
	tr := New(dev, svc, 0, zerolog.Nop())

	require.NoError(t, tr.BeginCapture(context.Background()))
	assert.True(t, dev.held)

	text, err := tr.EndCapture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "готово", text)
	assert.False(t, dev.held)

	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, audio.MimeWAV, svc.got.MimeType)
	assert.Equal(t, Instruction, svc.got.Instruction)
	assert.Equal(t, "ru", svc.got.Language)
	assert.NotEmpty(t, svc.got.Audio)
}

func TestBeginCaptureDeviceUnavailable(t *testing.T) {
	t.Parallel()

	tr := New(&fakeDevice{openErr: errors.New("permission denied")}, &fakeService{}, 0, zerolog.Nop())
	err := tr.BeginCapture(context.Background())
	require.ErrorIs(t, err, dictation.ErrDeviceUnavailable)
}

func TestDoubleBeginRejected(t *testing.T) {
	t.Parallel()

	tr := New(&fakeDevice{}, &fakeService{}, 0, zerolog.Nop())
	require.NoError(t, tr.BeginCapture(context.Background()))
	require.ErrorIs(t, tr.BeginCapture(context.Background()), dictation.ErrDeviceUnavailable)
}

func TestServiceFailureReleasesDevice(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{}
	svc := &fakeService{err: errors.New("503")}
	tr := New(dev, svc, 0, zerolog.Nop())

	require.NoError(t, tr.BeginCapture(context.Background()))
	_, err := tr.EndCapture(context.Background())
	require.ErrorIs(t, err, dictation.ErrTranscriptionService)
	assert.False(t, dev.held)

	// capturable again immediately
	require.NoError(t, tr.BeginCapture(context.Background()))
	assert.Equal(t, 2, dev.opens)
}

func TestStopFailureReleasesDevice(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{stopErr: errors.New("overflow")}
	svc := &fakeService{}
	tr := New(dev, svc, 0, zerolog.Nop())

	require.NoError(t, tr.BeginCapture(context.Background()))
	_, err := tr.EndCapture(context.Background())
	require.ErrorIs(t, err, dictation.ErrDeviceUnavailable)
	assert.Zero(t, svc.calls)
	assert.False(t, dev.held)
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	tr := New(&fakeDevice{}, &fakeService{wait: true}, 10*time.Millisecond, zerolog.Nop())
	require.NoError(t, tr.BeginCapture(context.Background()))

	_, err := tr.EndCapture(context.Background())
	require.ErrorIs(t, err, dictation.ErrTranscriptionService)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEndWithoutBegin(t *testing.T) {
	t.Parallel()

	_, err := New(&fakeDevice{}, &fakeService{}, 0, zerolog.Nop()).EndCapture(context.Background())
	require.ErrorIs(t, err, dictation.ErrNotCapturing)
}

func TestFilenameFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "dictation.wav", filenameFor("audio/wav"))
	assert.Equal(t, "dictation.webm", filenameFor("audio/webm;codecs=opus"))
	assert.Equal(t, "dictation.ogg", filenameFor("audio/ogg"))
	assert.Equal(t, "dictation.webm", filenameFor(""))
}

func TestPromptOptions(t *testing.T) {
	t.Parallel()

	svc := &fakeService{text: "hello"}
	tr := New(&fakeDevice{}, svc, 0, zerolog.Nop(), WithLanguage("en"), WithInstruction("Transcribe."), WithLanguage(""))

	require.NoError(t, tr.BeginCapture(context.Background()))
	_, err := tr.EndCapture(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "en", svc.got.Language)
	assert.Equal(t, "Transcribe.", svc.got.Instruction)
}

func TestUnconfiguredServiceFails(t *testing.T) {
	t.Parallel()

	tr := New(&fakeDevice{}, Unconfigured{}, 0, zerolog.Nop())
	require.NoError(t, tr.BeginCapture(context.Background()))

	_, err := tr.EndCapture(context.Background())
	require.ErrorIs(t, err, dictation.ErrTranscriptionService)
}
