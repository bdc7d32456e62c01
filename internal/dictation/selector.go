package dictation

import "context"

// Choose picks the backend for one capture. localSupported is only consulted
// when offline.
func Choose(online bool, localSupported func() bool) (Mode, error) {
	if online {
		return ModeCloud, nil
	}
	if !localSupported() {
		return ModeLocal, ErrNoOfflineCapability
	}
	return ModeLocal, nil
}

// Selector resolves a Mode to its backend.
type Selector struct {
	net   Reachability
	cloud Transcriber
	local LocalEngine
}

// NewSelector wires the two backends behind a reachability check.
func NewSelector(net Reachability, cloud Transcriber, local LocalEngine) *Selector {
	return &Selector{net: net, cloud: cloud, local: local}
}

// Select evaluates connectivity now and returns the backend to capture with.
func (s *Selector) Select(ctx context.Context) (Mode, Transcriber, error) {
	mode, err := Choose(s.net.Online(ctx), func() bool {
		return s.local.Supported(ctx)
	})
	if err != nil {
		return mode, nil, err
	}
	if mode == ModeLocal {
		return mode, s.local, nil
	}
	return mode, s.cloud, nil
}

// Backends returns every distinct backend, for wiring observers.
func (s *Selector) Backends() []Transcriber {
	return []Transcriber{s.cloud, s.local}
}
