// SPDX-License-Identifier: MIT

package player

import "testing"

func TestClampPercent(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{-10, 0},
		{0, 0},
		{50, 50},
		{100, 100},
		{150, 100},
	}
	for _, tt := range cases {
		if got := clampPercent(tt.in); got != tt.want {
			t.Errorf("clampPercent(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEventKindString(t *testing.T) {
	cases := []struct {
		k    EventKind
		want string
	}{
		{EventEndOfStream, "END_OF_STREAM"},
		{EventError, "ERROR"},
		{EventStateChanged, "STATE_CHANGED"},
		{EventBuffering, "BUFFERING"},
		{EventStreamStart, "STREAM_START"},
	}
	for _, tt := range cases {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("EventKind(%d).String() = %q, want %q", tt.k, got, tt.want)
		}
	}
}

func TestNewMPVBackendDefaultsPath(t *testing.T) {
	b := NewMPVBackend("", nil)
	if b.mpvPath != "mpv" {
		t.Errorf("mpvPath = %q, want mpv", b.mpvPath)
	}
}

func TestBackendOperationsBeforeInitReturnErrNotInitialized(t *testing.T) {
	b := NewMPVBackend("mpv", nil)

	if _, err := b.requireProc(); err != ErrNotInitialized {
		t.Errorf("requireProc() error = %v, want ErrNotInitialized", err)
	}
}

// TestEventLoopTranslatesPausedForCache exercises the BUFFERING
// auto-pause/resume wiring directly against a synthetic mpv event stream,
// without spawning a real mpv process.
func TestEventLoopTranslatesPausedForCache(t *testing.T) {
	b := NewMPVBackend("mpv", nil)

	events := make(chan ipcEvent, 4)
	ipc := &ipcClient{events: events}

	done := make(chan struct{})
	go func() {
		b.eventLoop(ipc)
		close(done)
	}()

	events <- ipcEvent{Event: "property-change", Name: "paused-for-cache", Data: []byte("true")}
	ev := <-b.Events()
	if ev.Kind != EventBuffering || ev.Percent != 0 {
		t.Errorf("got %+v, want EventBuffering with Percent=0", ev)
	}

	events <- ipcEvent{Event: "property-change", Name: "paused-for-cache", Data: []byte("false")}
	ev = <-b.Events()
	if ev.Kind != EventBuffering || ev.Percent != 100 {
		t.Errorf("got %+v, want EventBuffering with Percent=100", ev)
	}

	close(events)
	<-done
}
