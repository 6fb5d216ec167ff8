package mixer

import (
	"context"
	"strings"
	"testing"
)

const sampleGetOutput = `Simple mixer control 'DAC volume',0
  Capabilities: pvolume pswitch pswitch-joined
  Playback channels: Front Left - Front Right
  Limits: Playback 0 - 151
  Mono:
  Front Left: Playback 118 [78%] [-6.00dB] [on]
  Front Right: Playback 118 [78%] [-6.00dB] [on]
`

const sampleControlsOutput = `numid=1,iface=MIXER,name='Master Playback Volume'
Simple mixer control 'Master',0
Simple mixer control 'DAC volume',0
Simple mixer control 'Mic',0
`

type fakeRunner struct {
	responses map[string]string
	calls     [][]string
}

func (f *fakeRunner) Run(_ context.Context, args ...string) (string, error) {
	f.calls = append(f.calls, args)
	key := strings.Join(args, " ")
	if out, ok := f.responses[key]; ok {
		return out, nil
	}
	return "", nil
}

func newTestMixer(responses map[string]string) (*HardwareMixer, *fakeRunner) {
	r := &fakeRunner{responses: responses}
	m := &HardwareMixer{card: "hw:0", selemName: "DAC volume", runner: r}
	return m, r
}

func TestGetRange(t *testing.T) {
	m, _ := newTestMixer(map[string]string{
		"-c 0 get DAC volume": sampleGetOutput,
	})

	min, max, err := m.GetRange(context.Background())
	if err != nil {
		t.Fatalf("GetRange() error = %v", err)
	}
	if min != 0 || max != 151 {
		t.Errorf("GetRange() = (%d,%d), want (0,151)", min, max)
	}
}

func TestGetVolume(t *testing.T) {
	m, _ := newTestMixer(map[string]string{
		"-c 0 get DAC volume": sampleGetOutput,
	})

	v, err := m.GetVolume(context.Background())
	if err != nil {
		t.Fatalf("GetVolume() error = %v", err)
	}
	if v != 118 {
		t.Errorf("GetVolume() = %d, want 118", v)
	}
}

func TestGetVolumePercent(t *testing.T) {
	m, _ := newTestMixer(map[string]string{
		"-c 0 get DAC volume": sampleGetOutput,
	})

	pct, err := m.GetVolumePercent(context.Background())
	if err != nil {
		t.Fatalf("GetVolumePercent() error = %v", err)
	}
	want := 118 * 100 / 151
	if pct != want {
		t.Errorf("GetVolumePercent() = %d, want %d", pct, want)
	}
}

func TestSetVolumeAll(t *testing.T) {
	m, r := newTestMixer(map[string]string{
		"-c 0 get DAC volume": sampleGetOutput,
	})

	if err := m.SetVolumeAll(context.Background(), 50); err != nil {
		t.Fatalf("SetVolumeAll() error = %v", err)
	}

	found := false
	for _, call := range r.calls {
		if len(call) >= 2 && call[0] == "-c" && call[2] == "set" {
			found = true
		}
	}
	if !found {
		t.Error("SetVolumeAll() did not issue an amixer set call")
	}
}

func TestSetVolumeAllClampsPercent(t *testing.T) {
	m, _ := newTestMixer(map[string]string{
		"-c 0 get DAC volume": sampleGetOutput,
	})

	if err := m.SetVolumeAll(context.Background(), 500); err != nil {
		t.Fatalf("SetVolumeAll(500) error = %v", err)
	}
	if err := m.SetVolumeAll(context.Background(), -10); err != nil {
		t.Fatalf("SetVolumeAll(-10) error = %v", err)
	}
}

func TestListControls(t *testing.T) {
	m, _ := newTestMixer(map[string]string{
		"-c 0 controls": sampleControlsOutput,
	})

	names, err := m.ListControls(context.Background())
	if err != nil {
		t.Fatalf("ListControls() error = %v", err)
	}
	want := []string{"Master", "DAC volume", "Mic"}
	if len(names) != len(want) {
		t.Fatalf("ListControls() = %v, want %v", names, want)
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("names[%d] = %q, want %q", i, names[i], n)
		}
	}
}

func TestGetRangeFailure(t *testing.T) {
	m, _ := newTestMixer(map[string]string{})

	if _, _, err := m.GetRange(context.Background()); err == nil {
		t.Error("GetRange() expected error when output cannot be parsed, got nil")
	}
}

func TestCardArg(t *testing.T) {
	if got := cardArg("hw:0"); got != "0" {
		t.Errorf("cardArg(hw:0) = %q, want 0", got)
	}
	if got := cardArg("1"); got != "1" {
		t.Errorf("cardArg(1) = %q, want 1", got)
	}
}
