// SPDX-License-Identifier: MIT

package soap

import (
	"context"
	"testing"

	"grender/internal/player"
	"grender/internal/renderer"
)

// fakeBackend is a minimal player.Backend stub for exercising the
// dispatcher without a real mpv process.
type fakeBackend struct {
	playErr   error
	pauseErr  error
	resumeErr error
	seekErr   error

	playCalls   []string
	resumeCalls int

	playing bool
	paused  bool
	volume  int
	muted   bool
	curSec  float64
	totSec  float64
}

func (f *fakeBackend) Init(ctx context.Context, opts player.Options) error { return nil }

func (f *fakeBackend) Play(ctx context.Context, uri string) error {
	if f.playErr != nil {
		return f.playErr
	}
	f.playCalls = append(f.playCalls, uri)
	f.playing = true
	f.paused = false
	return nil
}

func (f *fakeBackend) Pause(ctx context.Context) error {
	if f.pauseErr != nil {
		return f.pauseErr
	}
	f.paused = true
	return nil
}

func (f *fakeBackend) Resume(ctx context.Context) error {
	if f.resumeErr != nil {
		return f.resumeErr
	}
	f.resumeCalls++
	f.paused = false
	f.playing = true
	return nil
}

func (f *fakeBackend) Stop(ctx context.Context) error {
	f.playing = false
	f.paused = false
	return nil
}

func (f *fakeBackend) Seek(ctx context.Context, seconds float64) error {
	if f.seekErr != nil {
		return f.seekErr
	}
	f.curSec = seconds
	return nil
}

func (f *fakeBackend) GetPosition(ctx context.Context) (float64, float64, error) {
	return f.curSec, f.totSec, nil
}

func (f *fakeBackend) GetVolume() int { return f.volume }

func (f *fakeBackend) SetVolume(ctx context.Context, percent int) error {
	f.volume = percent
	return nil
}

func (f *fakeBackend) GetMute() bool { return f.muted }

func (f *fakeBackend) SetMute(ctx context.Context, muted bool) error {
	f.muted = muted
	return nil
}

func (f *fakeBackend) IsPlaying() bool { return f.playing && !f.paused }
func (f *fakeBackend) IsPaused() bool  { return f.paused }

func (f *fakeBackend) Deinit(ctx context.Context) error { return nil }

func (f *fakeBackend) Events() <-chan player.BusEvent { return nil }

func newTestDispatcher() (*Dispatcher, *fakeBackend) {
	backend := &fakeBackend{totSec: 120}
	state := renderer.New(50)
	return New(state, backend), backend
}

func TestHappyPlayScenario(t *testing.T) {
	d, _ := newTestDispatcher()
	ctx := context.Background()

	_, f := d.Dispatch(ctx, &ActionRequest{ServiceID: "AVTransport", Action: "SetAVTransportURI",
		Args: map[string]string{"CurrentURI": "http://host/song.mp3", "CurrentURIMetaData": ""}})
	if f != nil {
		t.Fatalf("SetAVTransportURI fault = %v", f)
	}

	_, f = d.Dispatch(ctx, &ActionRequest{ServiceID: "AVTransport", Action: "Play", Args: map[string]string{"Speed": "1"}})
	if f != nil {
		t.Fatalf("Play fault = %v", f)
	}

	out, f := d.Dispatch(ctx, &ActionRequest{ServiceID: "AVTransport", Action: "GetTransportInfo"})
	if f != nil {
		t.Fatalf("GetTransportInfo fault = %v", f)
	}
	if out[0].Value != "PLAYING" {
		t.Errorf("CurrentTransportState = %q, want PLAYING", out[0].Value)
	}
}

func TestPauseResumeScenario(t *testing.T) {
	d, backend := newTestDispatcher()
	ctx := context.Background()

	d.state.CurrentURI = "http://host/song.mp3"
	d.state.TransportState = renderer.StatePlaying
	backend.playing = true

	_, f := d.Dispatch(ctx, &ActionRequest{ServiceID: "AVTransport", Action: "Pause"})
	if f != nil {
		t.Fatalf("Pause fault = %v", f)
	}
	if d.state.TransportState != renderer.StatePausedPlayback {
		t.Errorf("TransportState = %v, want PAUSED_PLAYBACK", d.state.TransportState)
	}

	_, f = d.Dispatch(ctx, &ActionRequest{ServiceID: "AVTransport", Action: "Play"})
	if f != nil {
		t.Fatalf("Play (resume) fault = %v", f)
	}
	if d.state.TransportState != renderer.StatePlaying {
		t.Errorf("TransportState = %v, want PLAYING", d.state.TransportState)
	}
	if backend.resumeCalls != 1 {
		t.Errorf("resumeCalls = %d, want 1 (should resume, not re-Play)", backend.resumeCalls)
	}
}

func TestSeekScenario(t *testing.T) {
	d, _ := newTestDispatcher()
	ctx := context.Background()
	d.state.CurrentURI = "http://host/song.mp3"
	d.state.TransportState = renderer.StatePlaying

	_, f := d.Dispatch(ctx, &ActionRequest{ServiceID: "AVTransport", Action: "Seek",
		Args: map[string]string{"Unit": "REL_TIME", "Target": "00:00:30"}})
	if f != nil {
		t.Fatalf("Seek fault = %v", f)
	}

	out, f := d.Dispatch(ctx, &ActionRequest{ServiceID: "AVTransport", Action: "GetPositionInfo"})
	if f != nil {
		t.Fatalf("GetPositionInfo fault = %v", f)
	}
	var relTime string
	for _, a := range out {
		if a.Name == "RelTime" {
			relTime = a.Value
		}
	}
	if relTime != "00:00:30" {
		t.Errorf("RelTime = %q, want 00:00:30", relTime)
	}
}

func TestBadSeekUnitFaults705(t *testing.T) {
	d, _ := newTestDispatcher()
	_, f := d.Dispatch(context.Background(), &ActionRequest{ServiceID: "AVTransport", Action: "Seek",
		Args: map[string]string{"Unit": "ABS_COUNT", "Target": "0"}})
	if f == nil || f.Code != 705 {
		t.Errorf("fault = %v, want code 705", f)
	}
}

func TestVolumeClampFaults712(t *testing.T) {
	d, _ := newTestDispatcher()
	_, f := d.Dispatch(context.Background(), &ActionRequest{ServiceID: "RenderingControl", Action: "SetVolume",
		Args: map[string]string{"Channel": "Master", "DesiredVolume": "150"}})
	if f == nil || f.Code != 712 {
		t.Errorf("fault = %v, want code 712", f)
	}
	if d.state.VolumePercent != 50 {
		t.Errorf("VolumePercent = %d, want unchanged 50", d.state.VolumePercent)
	}
}

func TestUnknownActionFaults709(t *testing.T) {
	d, _ := newTestDispatcher()
	_, f := d.Dispatch(context.Background(), &ActionRequest{ServiceID: "AVTransport", Action: "FooBar"})
	if f == nil || f.Code != 709 {
		t.Errorf("fault = %v, want code 709", f)
	}
}

func TestUnknownServiceFaults700(t *testing.T) {
	d, _ := newTestDispatcher()
	_, f := d.Dispatch(context.Background(), &ActionRequest{ServiceID: "Bogus", Action: "Anything"})
	if f == nil || f.Code != 700 {
		t.Errorf("fault = %v, want code 700", f)
	}
}

func TestSetVolumeMuteSideEffect(t *testing.T) {
	d, backend := newTestDispatcher()
	ctx := context.Background()

	_, f := d.Dispatch(ctx, &ActionRequest{ServiceID: "RenderingControl", Action: "SetVolume",
		Args: map[string]string{"Channel": "Master", "DesiredVolume": "0"}})
	if f != nil {
		t.Fatalf("SetVolume(0) fault = %v", f)
	}
	if !backend.muted {
		t.Error("SetVolume(0) did not mute the backend")
	}

	_, f = d.Dispatch(ctx, &ActionRequest{ServiceID: "RenderingControl", Action: "SetVolume",
		Args: map[string]string{"Channel": "Master", "DesiredVolume": "20"}})
	if f != nil {
		t.Fatalf("SetVolume(20) fault = %v", f)
	}
	if backend.muted {
		t.Error("SetVolume(20) left the backend muted")
	}
}

func TestConnectionManagerStaticActions(t *testing.T) {
	d, _ := newTestDispatcher()
	out, f := d.Dispatch(context.Background(), &ActionRequest{ServiceID: "ConnectionManager", Action: "GetCurrentConnectionIDs"})
	if f != nil {
		t.Fatalf("GetCurrentConnectionIDs fault = %v", f)
	}
	if out[0].Value != "0" {
		t.Errorf("ConnectionIDs = %q, want 0", out[0].Value)
	}
}
