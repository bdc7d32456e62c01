package dictation

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNet bool

func (f fakeNet) Online(context.Context) bool { return bool(f) }

type fakeBackend struct {
	supported  bool
	beginErr   error
	text       string
	endErr     error
	begins     int
	ends       int
	supportQry int
	onPartial  func(string)
}

func (f *fakeBackend) BeginCapture(context.Context) error {
	f.begins++
	return f.beginErr
}

func (f *fakeBackend) EndCapture(context.Context) (string, error) {
	f.ends++
	return f.text, f.endErr
}

func (f *fakeBackend) Supported(context.Context) bool {
	f.supportQry++
	return f.supported
}

func (f *fakeBackend) OnPartial(fn func(string)) { f.onPartial = fn }

// fakeNotes is a session store whose active session is id ("s1" unless set).
type fakeNotes struct {
	id    string
	notes []string
	err   error
}

func (f *fakeNotes) AddNoteTo(id, text string) error {
	if f.err != nil {
		return f.err
	}
	active := f.id
	if active == "" {
		active = "s1"
	}
	if id != active {
		return errStaleSession
	}
	f.notes = append(f.notes, text)
	return nil
}

var errStaleSession = errors.New("stale session")

func TestChoose(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		online    bool
		supported bool
		want      Mode
		wantErr   error
	}{
		{"online with engine", true, true, ModeCloud, nil},
		{"online without engine", true, false, ModeCloud, nil},
		{"offline with engine", false, true, ModeLocal, nil},
		{"offline without engine", false, false, ModeLocal, ErrNoOfflineCapability},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			queried := false
			mode, err := Choose(tc.online, func() bool {
				queried = true
				return tc.supported
			})
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, mode)
			if tc.online {
				assert.False(t, queried, "local capability must not be queried when online")
			}
		})
	}
}

func TestSelectorPicksBackend(t *testing.T) {
	t.Parallel()

	cloud := &fakeBackend{}
	local := &fakeBackend{supported: true}

	mode, tr, err := NewSelector(fakeNet(true), cloud, local).Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ModeCloud, mode)
	assert.Same(t, cloud, tr)
	assert.Zero(t, local.supportQry)

	mode, tr, err = NewSelector(fakeNet(false), cloud, local).Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, mode)
	assert.Same(t, local, tr)
}

func TestStartOfflineWithoutEngineTouchesNoBackend(t *testing.T) {
	t.Parallel()

	cloud := &fakeBackend{}
	local := &fakeBackend{supported: false}
	c := NewController(NewSelector(fakeNet(false), cloud, local), &fakeNotes{}, zerolog.Nop())

	_, err := c.Start(context.Background(), "s1")
	require.ErrorIs(t, err, ErrNoOfflineCapability)
	assert.Zero(t, cloud.begins)
	assert.Zero(t, local.begins)

	state, _ := c.State()
	assert.Equal(t, StateIdle, state)
}

func TestCloudRoundTripAppendsBadgedNote(t *testing.T) {
	t.Parallel()

	cloud := &fakeBackend{text: "  привет мир \n"}
	notes := &fakeNotes{}
	c := NewController(NewSelector(fakeNet(true), cloud, &fakeBackend{}), notes, zerolog.Nop())

	mode, err := c.Start(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, ModeCloud, mode)

	res, err := c.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "☁️ привет мир", res.Text)
	assert.Equal(t, []string{"☁️ привет мир"}, notes.notes)
	assert.Equal(t, 1, cloud.ends)
}

func TestSecondStartRejectedWhileInFlight(t *testing.T) {
	t.Parallel()

	cloud := &fakeBackend{text: "x"}
	c := NewController(NewSelector(fakeNet(true), cloud, &fakeBackend{}), &fakeNotes{}, zerolog.Nop())

	_, err := c.Start(context.Background(), "s1")
	require.NoError(t, err)
	_, err = c.Start(context.Background(), "s1")
	require.ErrorIs(t, err, ErrAttemptInFlight)
	assert.Equal(t, 1, cloud.begins)

	_, err = c.Stop(context.Background())
	require.NoError(t, err)
	_, err = c.Start(context.Background(), "s1")
	require.NoError(t, err, "slot is free again after the attempt resolves")
}

func TestStopWithoutCapture(t *testing.T) {
	t.Parallel()

	c := NewController(NewSelector(fakeNet(true), &fakeBackend{}, &fakeBackend{}), &fakeNotes{}, zerolog.Nop())
	_, err := c.Stop(context.Background())
	require.ErrorIs(t, err, ErrNotCapturing)
}

func TestFailedAttemptLeavesNotesUntouched(t *testing.T) {
	t.Parallel()

	cloud := &fakeBackend{text: "partial", endErr: ErrTranscriptionService}
	notes := &fakeNotes{}
	c := NewController(NewSelector(fakeNet(true), cloud, &fakeBackend{}), notes, zerolog.Nop())

	_, err := c.Start(context.Background(), "s1")
	require.NoError(t, err)
	_, err = c.Stop(context.Background())
	require.ErrorIs(t, err, ErrTranscriptionService)
	assert.Empty(t, notes.notes)

	state, _ := c.State()
	assert.Equal(t, StateIdle, state)
}

func TestBeginFailureResetsSlot(t *testing.T) {
	t.Parallel()

	cloud := &fakeBackend{beginErr: ErrDeviceUnavailable}
	c := NewController(NewSelector(fakeNet(true), cloud, &fakeBackend{}), &fakeNotes{}, zerolog.Nop())

	_, err := c.Start(context.Background(), "s1")
	require.ErrorIs(t, err, ErrDeviceUnavailable)

	cloud.beginErr = nil
	_, err = c.Start(context.Background(), "s1")
	require.NoError(t, err)
}

func TestEmptyResults(t *testing.T) {
	t.Parallel()

	notes := &fakeNotes{}
	cloud := &fakeBackend{text: "   "}
	c := NewController(NewSelector(fakeNet(true), cloud, &fakeBackend{}), notes, zerolog.Nop())
	_, err := c.Start(context.Background(), "s1")
	require.NoError(t, err)
	_, err = c.Stop(context.Background())
	require.NoError(t, err, "empty cloud result is not an error")

	local := &fakeBackend{supported: true, text: ""}
	c = NewController(NewSelector(fakeNet(false), &fakeBackend{}, local), notes, zerolog.Nop())
	_, err = c.Start(context.Background(), "s1")
	require.NoError(t, err)
	_, err = c.Stop(context.Background())
	require.ErrorIs(t, err, ErrNothingRecognized)

	assert.Empty(t, notes.notes)
}

func TestNoteSinkErrorSurfaces(t *testing.T) {
	t.Parallel()

	sinkErr := errors.New("no active session")
	c := NewController(NewSelector(fakeNet(true), &fakeBackend{text: "hi"}, &fakeBackend{}),
		&fakeNotes{err: sinkErr}, zerolog.Nop())

	_, err := c.Start(context.Background(), "s1")
	require.NoError(t, err)
	_, err = c.Stop(context.Background())
	require.ErrorIs(t, err, sinkErr)
}

func TestPartialsForwarded(t *testing.T) {
	t.Parallel()

	local := &fakeBackend{supported: true}
	c := NewController(NewSelector(fakeNet(false), &fakeBackend{}, local), &fakeNotes{}, zerolog.Nop())
	require.NotNil(t, local.onPartial)

	local.onPartial("при")
	assert.Equal(t, "при", <-c.Partials())
}

func TestControllerBindsAttemptToStartingSession(t *testing.T) {
	t.Parallel()

	notes := &fakeNotes{id: "A"}
	c := NewController(NewSelector(fakeNet(true), &fakeBackend{text: "from A"}, &fakeBackend{}), notes, zerolog.Nop())

	_, err := c.Start(context.Background(), "A")
	require.NoError(t, err)

	// A stopped and B started before the transcript resolved
	notes.id = "B"
	_, err = c.Stop(context.Background())
	require.ErrorIs(t, err, errStaleSession)
	assert.Empty(t, notes.notes)

	state, _ := c.State()
	assert.Equal(t, StateIdle, state)
}

func TestControllerStartWithoutSession(t *testing.T) {
	t.Parallel()

	cloud := &fakeBackend{}
	c := NewController(NewSelector(fakeNet(true), cloud, &fakeBackend{}), &fakeNotes{}, zerolog.Nop())

	_, err := c.Start(context.Background(), "")
	require.ErrorIs(t, err, ErrNoSession)
	assert.Zero(t, cloud.begins)

	state, _ := c.State()
	assert.Equal(t, StateIdle, state)
}
