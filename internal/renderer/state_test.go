// SPDX-License-Identifier: MIT

package renderer

import "testing"

func TestNewSeedsExpectedDefaults(t *testing.T) {
	s := New(42)
	if s.TransportState != StateStopped {
		t.Errorf("TransportState = %v, want STOPPED", s.TransportState)
	}
	if s.Speed != "1" {
		t.Errorf("Speed = %q, want 1", s.Speed)
	}
	if s.VolumePercent != 42 {
		t.Errorf("VolumePercent = %d, want 42", s.VolumePercent)
	}
	if s.Muted {
		t.Error("Muted = true for nonzero initial volume, want false")
	}
}

func TestNewZeroVolumeStartsMuted(t *testing.T) {
	s := New(0)
	if !s.Muted {
		t.Error("Muted = false for zero initial volume, want true")
	}
}

func TestSetVolumeMuteSideEffects(t *testing.T) {
	s := New(50)

	s.SetVolume(0)
	if !s.Muted {
		t.Error("SetVolume(0): Muted = false, want true")
	}
	if !s.HWVolumeChangedByController {
		t.Error("SetVolume(0): HWVolumeChangedByController not latched")
	}

	s.SetVolume(75)
	if s.Muted {
		t.Error("SetVolume(75): Muted = true, want false")
	}
	if s.VolumePercent != 75 {
		t.Errorf("VolumePercent = %d, want 75", s.VolumePercent)
	}
}

func TestTransportStateString(t *testing.T) {
	cases := []struct {
		s    TransportState
		want string
	}{
		{StateStopped, "STOPPED"},
		{StatePlaying, "PLAYING"},
		{StatePausedPlayback, "PAUSED_PLAYBACK"},
		{StateTransitioning, "TRANSITIONING"},
	}
	for _, tt := range cases {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("TransportState(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
