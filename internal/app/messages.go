package app

import "github.com/Smailkiller/FOXFOCUS/internal/dictation"

// TickMsg carries the elapsed seconds after a timer tick.
type TickMsg struct {
	Elapsed int
}

// PartialTextMsg updates the live dictation preview.
type PartialTextMsg struct {
	Text string
}

// NetworkStatusMsg carries the result of a connectivity probe.
type NetworkStatusMsg struct {
	Online bool
}

// NetworkProbeTickMsg triggers the next connectivity probe.
type NetworkProbeTickMsg struct{}

// DictationStartedMsg is sent once capture began, or failed to.
type DictationStartedMsg struct {
	Mode    dictation.Mode
	Session string // session the attempt is bound to
	Err     error
}

// DictationDoneMsg carries the outcome of a finished dictation attempt.
type DictationDoneMsg struct {
	Result dictation.Result
	Err    error
}

// CopiedMsg reports the outcome of copying a history entry.
type CopiedMsg struct {
	Name string
	Err  error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
