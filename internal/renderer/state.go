// SPDX-License-Identifier: MIT

// Package renderer holds RendererState (spec section 3/4.4): the
// authoritative logical state of the MediaRenderer, guarded end to end by
// a single mutex so that every SOAP action observes a consistent
// current_uri/transport_state/volume/mute tuple.
package renderer

import "sync"

// TransportState is the discriminated transport state from spec section 3.
type TransportState int

const (
	StateStopped TransportState = iota
	StatePlaying
	StatePausedPlayback
	StateTransitioning
)

func (s TransportState) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StatePlaying:
		return "PLAYING"
	case StatePausedPlayback:
		return "PAUSED_PLAYBACK"
	case StateTransitioning:
		return "TRANSITIONING"
	default:
		return "STOPPED"
	}
}

// State is the RendererState singleton from spec section 3. Every field
// is mutated only while the caller holds Mu (the single renderer_mutex
// spec section 5 mandates); there is no internal locking, by design — the
// dispatcher always holds Mu across read→decide→player-call→write.
type State struct {
	Mu sync.Mutex

	CurrentURI         string
	CurrentURIMetaData string
	NextURI            string // reserved, always empty
	NextURIMetaData    string // reserved, always empty

	TransportState TransportState
	Speed          string // fixed at "1"

	VolumePercent int
	Muted         bool

	// HWVolumeChangedByController latches true on any SetVolume from a
	// control point and is cleared only at startup (spec section 3); on
	// shutdown, if true, software volume is written back to the hardware
	// mixer.
	HWVolumeChangedByController bool
}

// New returns a State with Speed fixed at "1" and transport_state STOPPED,
// as spec section 3 requires at init.
func New(initialVolumePercent int) *State {
	return &State{
		TransportState: StateStopped,
		Speed:          "1",
		VolumePercent:  initialVolumePercent,
		Muted:          initialVolumePercent == 0,
	}
}

// SetVolume applies the mute side effect spec section 4.4 specifies:
// volume==0 implies muted=true, volume>0 implies muted=false, and latches
// HWVolumeChangedByController. Callers must hold Mu.
func (s *State) SetVolume(percent int) {
	s.VolumePercent = percent
	s.Muted = percent == 0
	s.HWVolumeChangedByController = true
}
