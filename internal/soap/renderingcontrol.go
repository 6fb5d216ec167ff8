// SPDX-License-Identifier: MIT

package soap

import (
	"context"
	"strconv"
)

func (d *Dispatcher) dispatchRenderingControl(ctx context.Context, req *ActionRequest) ([]OutArg, *Fault) {
	switch req.Action {
	case "GetVolume":
		return d.rcGetVolume(req)
	case "SetVolume":
		return d.rcSetVolume(ctx, req)
	case "GetMute":
		return d.rcGetMute(req)
	case "SetMute":
		return d.rcSetMute(ctx, req)
	default:
		return nil, FaultUnsupportedAction
	}
}

func channelOrDefault(req *ActionRequest) string {
	if c, ok := req.Args["Channel"]; ok && c != "" {
		return c
	}
	return "Master"
}

func validChannel(channel string) bool {
	return channel == "Master"
}

func (d *Dispatcher) rcGetVolume(req *ActionRequest) ([]OutArg, *Fault) {
	if channel := channelOrDefault(req); !validChannel(channel) {
		return nil, FaultUnsupportedChannel
	}

	d.state.Mu.Lock()
	defer d.state.Mu.Unlock()
	return []OutArg{{Name: "CurrentVolume", Value: strconv.Itoa(d.state.VolumePercent)}}, nil
}

// rcSetVolume applies the mute side effect spec section 4.4 mandates
// (volume==0 implies muted=true) and pushes the new value into the
// pipeline before recording it in RendererState, so a pipeline failure
// never advances state (spec section 7: PlayerFailure leaves
// RendererState unadvanced).
func (d *Dispatcher) rcSetVolume(ctx context.Context, req *ActionRequest) ([]OutArg, *Fault) {
	channel := channelOrDefault(req)
	if !validChannel(channel) {
		return nil, FaultUnsupportedChannelSet
	}

	raw, ok := req.Args["DesiredVolume"]
	if !ok || raw == "" {
		return nil, FaultMissingVolume
	}
	volume, err := strconv.Atoi(raw)
	if err != nil {
		return nil, FaultVolumeOutOfRange
	}
	if volume < 0 || volume > 100 {
		return nil, FaultVolumeOutOfRange
	}

	d.state.Mu.Lock()
	defer d.state.Mu.Unlock()

	if err := d.backend.SetVolume(ctx, volume); err != nil {
		return nil, FaultSetVolumeFailed
	}
	if volume == 0 {
		_ = d.backend.SetMute(ctx, true)
	} else if d.state.Muted {
		_ = d.backend.SetMute(ctx, false)
	}
	d.state.SetVolume(volume)
	return nil, nil
}

func (d *Dispatcher) rcGetMute(req *ActionRequest) ([]OutArg, *Fault) {
	if channel := channelOrDefault(req); !validChannel(channel) {
		return nil, FaultUnsupportedChannel
	}

	d.state.Mu.Lock()
	defer d.state.Mu.Unlock()

	// Read mute from the live pipeline, not a cached flag: spec section 9
	// calls out a known bug in one source draft that reads an
	// uninitialized/throwaway element instead. GetMute here always queries
	// the backend and keeps RendererState's cached copy in sync.
	muted := d.backend.GetMute()
	d.state.Muted = muted

	value := "0"
	if muted {
		value = "1"
	}
	return []OutArg{{Name: "CurrentMute", Value: value}}, nil
}

func (d *Dispatcher) rcSetMute(ctx context.Context, req *ActionRequest) ([]OutArg, *Fault) {
	raw, ok := req.Args["DesiredMute"]
	if !ok || raw == "" {
		return nil, FaultMissingMute
	}
	muted := raw == "1" || raw == "true"

	d.state.Mu.Lock()
	defer d.state.Mu.Unlock()

	if err := d.backend.SetMute(ctx, muted); err != nil {
		return nil, FaultSetVolumeFailed
	}
	d.state.Muted = muted
	return nil, nil
}
