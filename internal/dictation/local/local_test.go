package local

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Smailkiller/FOXFOCUS/internal/daemon"
	"github.com/Smailkiller/FOXFOCUS/internal/dictation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEngine is a scripted speech engine speaking the daemon protocol.
type mockEngine struct {
	statusOK   bool
	startErr   string
	greetIdle  bool
	afterStart []daemon.Event
	afterStop  []daemon.Event
	noQuiesce  bool

	mu          sync.Mutex
	subscribers []net.Conn
	commands    []string
}

func boolPtr(b bool) *bool { return &b }

func idleStatus() daemon.Event {
	return daemon.Event{Event: daemon.EventStatus, Recording: boolPtr(false)}
}

func recordingStatus() daemon.Event {
	return daemon.Event{Event: daemon.EventStatus, Recording: boolPtr(true)}
}

func startMockEngine(t *testing.T, e *mockEngine) string {
	t.Helper()

	sockPath := filepath.Join(t.TempDir(), "speech.sock")
	ln, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go e.handle(conn)
		}
	}()
	return sockPath
}

func (e *mockEngine) write(conn net.Conn, v any) {
	data, _ := json.Marshal(v)
	e.mu.Lock()
	defer e.mu.Unlock()
	conn.Write(append(data, '\n'))
}

func (e *mockEngine) broadcast(events []daemon.Event) {
	e.mu.Lock()
	subs := append([]net.Conn(nil), e.subscribers...)
	e.mu.Unlock()
	for _, conn := range subs {
		for _, ev := range events {
			e.write(conn, ev)
		}
	}
}

func (e *mockEngine) handle(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var cmd daemon.Command
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			return
		}
		e.mu.Lock()
		e.commands = append(e.commands, cmd.Cmd)
		e.mu.Unlock()

		switch cmd.Cmd {
		case daemon.CmdStatus:
			e.write(conn, daemon.Response{OK: e.statusOK, Recording: boolPtr(false)})
		case daemon.CmdSubscribe:
			e.write(conn, daemon.Response{OK: true})
			e.mu.Lock()
			e.subscribers = append(e.subscribers, conn)
			e.mu.Unlock()
			if e.greetIdle {
				e.write(conn, idleStatus())
			}
		case daemon.CmdStart:
			if e.startErr != "" {
				e.write(conn, daemon.Response{OK: false, Error: e.startErr})
				continue
			}
			e.write(conn, daemon.Response{OK: true, SessionID: "rec-1"})
			e.broadcast(append([]daemon.Event{recordingStatus()}, e.afterStart...))
		case daemon.CmdStop:
			e.write(conn, daemon.Response{OK: true})
			if e.noQuiesce {
				e.broadcast(e.afterStop)
				continue
			}
			e.broadcast(append(append([]daemon.Event(nil), e.afterStop...), idleStatus()))
		}
	}
}

func (e *mockEngine) sawCommand(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.commands {
		if c == name {
			return true
		}
	}
	return false
}

type partialLog struct {
	mu   sync.Mutex
	seen []string
}

func (p *partialLog) add(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, s)
}

func (p *partialLog) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.seen...)
}

func TestSupported(t *testing.T) {
	t.Parallel()

	ok := startMockEngine(t, &mockEngine{statusOK: true})
	assert.True(t, New(ok, "", time.Second, zerolog.Nop()).Supported(context.Background()))

	unhealthy := startMockEngine(t, &mockEngine{statusOK: false})
	assert.False(t, New(unhealthy, "", time.Second, zerolog.Nop()).Supported(context.Background()))

	missing := filepath.Join(t.TempDir(), "none.sock")
	assert.False(t, New(missing, "", time.Second, zerolog.Nop()).Supported(context.Background()))
}

func TestBeginCaptureUnsupported(t *testing.T) {
	t.Parallel()

	tr := New(filepath.Join(t.TempDir(), "none.sock"), "", time.Second, zerolog.Nop())
	err := tr.BeginCapture(context.Background())
	require.ErrorIs(t, err, dictation.ErrUnsupportedPlatform)
}

func TestRoundTripKeepsOnlyFinalSegments(t *testing.T) {
	t.Parallel()

	engine := &mockEngine{
		statusOK:  true,
		greetIdle: true,
		afterStart: []daemon.Event{
			{Event: daemon.EventPartial, Text: "при"},
			{Event: daemon.EventSegment, Text: "привет"},
			{Event: daemon.EventPartial, Text: "как"},
			{Event: daemon.EventError, Message: "no-speech", Transient: boolPtr(true)},
			{Event: daemon.EventSegment, Text: " как дела "},
		},
		afterStop: []daemon.Event{
			{Event: daemon.EventPartial, Text: "ещё"},
		},
	}
	sock := startMockEngine(t, engine)

	partials := &partialLog{}
	tr := New(sock, "", 2*time.Second, zerolog.Nop())
	tr.OnPartial(partials.add)

	require.NoError(t, tr.BeginCapture(context.Background()))
	text, err := tr.EndCapture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "привет как дела", text)

	assert.Equal(t, []string{
		"при",
		"привет",
		"привет как",
		"привет как дела",
		"привет как дела ещё",
	}, partials.all())
	assert.True(t, engine.sawCommand(daemon.CmdStop))
}

func TestStartRejected(t *testing.T) {
	t.Parallel()

	sock := startMockEngine(t, &mockEngine{statusOK: true, startErr: "microphone busy"})
	tr := New(sock, "", time.Second, zerolog.Nop())

	err := tr.BeginCapture(context.Background())
	require.ErrorIs(t, err, dictation.ErrRecognitionFailure)
	assert.Contains(t, err.Error(), "microphone busy")
}

func TestEngineErrorWithoutText(t *testing.T) {
	t.Parallel()

	sock := startMockEngine(t, &mockEngine{
		statusOK: true,
		afterStart: []daemon.Event{
			{Event: daemon.EventError, Message: "audio-capture"},
		},
	})
	tr := New(sock, "", 2*time.Second, zerolog.Nop())

	require.NoError(t, tr.BeginCapture(context.Background()))
	_, err := tr.EndCapture(context.Background())
	require.ErrorIs(t, err, dictation.ErrRecognitionFailure)
}

func TestSilenceYieldsEmptyText(t *testing.T) {
	t.Parallel()

	sock := startMockEngine(t, &mockEngine{statusOK: true})
	tr := New(sock, "", 2*time.Second, zerolog.Nop())

	require.NoError(t, tr.BeginCapture(context.Background()))
	text, err := tr.EndCapture(context.Background())
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestStopTimeoutReturnsWhatWasFinalized(t *testing.T) {
	t.Parallel()

	sock := startMockEngine(t, &mockEngine{
		statusOK:   true,
		afterStart: []daemon.Event{{Event: daemon.EventSegment, Text: "готово"}},
		noQuiesce:  true,
	})
	tr := New(sock, "", 50*time.Millisecond, zerolog.Nop())

	require.NoError(t, tr.BeginCapture(context.Background()))
	// let the segment arrive before stopping
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	text, err := tr.EndCapture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "готово", text)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCaptureAgainAfterEnd(t *testing.T) {
	t.Parallel()

	sock := startMockEngine(t, &mockEngine{statusOK: true})
	tr := New(sock, "", 2*time.Second, zerolog.Nop())

	for i := 0; i < 2; i++ {
		require.NoError(t, tr.BeginCapture(context.Background()))
		_, err := tr.EndCapture(context.Background())
		require.NoError(t, err)
	}

	_, err := tr.EndCapture(context.Background())
	require.ErrorIs(t, err, dictation.ErrNotCapturing)
}
