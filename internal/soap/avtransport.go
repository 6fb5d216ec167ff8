// SPDX-License-Identifier: MIT

package soap

import (
	"context"

	"grender/internal/renderer"
)

func (d *Dispatcher) dispatchAVTransport(ctx context.Context, req *ActionRequest) ([]OutArg, *Fault) {
	switch req.Action {
	case "SetAVTransportURI":
		return d.avSetAVTransportURI(req)
	case "Play":
		return d.avPlay(ctx, req)
	case "Pause":
		return d.avPause(ctx)
	case "Stop":
		return d.avStop(ctx)
	case "Seek":
		return d.avSeek(ctx, req)
	case "GetPositionInfo":
		return d.avGetPositionInfo(ctx)
	case "GetTransportInfo":
		return d.avGetTransportInfo()
	case "GetMediaInfo":
		return d.avGetMediaInfo(ctx)
	default:
		return nil, FaultUnsupportedAction
	}
}

// avSetAVTransportURI records the URI without starting playback and resets
// transport_state to STOPPED, per spec section 4.4: "does not start
// playback; it only records the URI and resets transport_state to
// STOPPED."
func (d *Dispatcher) avSetAVTransportURI(req *ActionRequest) ([]OutArg, *Fault) {
	uri := req.Args["CurrentURI"]
	if uri == "" {
		return nil, FaultInvalidURI
	}

	d.state.Mu.Lock()
	defer d.state.Mu.Unlock()
	d.state.CurrentURI = uri
	d.state.CurrentURIMetaData = req.Args["CurrentURIMetaData"]
	d.state.TransportState = renderer.StateStopped
	return nil, nil
}

// avPlay starts the pipeline on current_uri, or resumes without
// reconfiguring if the prior state was PAUSED (spec section 4.4,
// "observed behavior carried forward"). Speed is accepted but ignored per
// spec section 9's open-question decision (see DESIGN.md).
func (d *Dispatcher) avPlay(ctx context.Context, req *ActionRequest) ([]OutArg, *Fault) {
	d.state.Mu.Lock()
	defer d.state.Mu.Unlock()

	if d.state.CurrentURI == "" {
		return nil, FaultURINotSet
	}

	wasPaused := d.state.TransportState == renderer.StatePausedPlayback

	var err error
	if wasPaused {
		err = d.backend.Resume(ctx)
	} else {
		err = d.backend.Play(ctx, d.state.CurrentURI)
	}
	if err != nil {
		return nil, FaultPlaybackFailed
	}

	d.state.TransportState = renderer.StatePlaying
	return []OutArg{{Name: "Speed", Value: "1"}}, nil
}

func (d *Dispatcher) avPause(ctx context.Context) ([]OutArg, *Fault) {
	d.state.Mu.Lock()
	defer d.state.Mu.Unlock()

	if d.state.TransportState != renderer.StatePlaying {
		return nil, FaultNotPlaying
	}
	if err := d.backend.Pause(ctx); err != nil {
		return nil, FaultNotPlaying
	}
	d.state.TransportState = renderer.StatePausedPlayback
	return nil, nil
}

func (d *Dispatcher) avStop(ctx context.Context) ([]OutArg, *Fault) {
	d.state.Mu.Lock()
	defer d.state.Mu.Unlock()

	_ = d.backend.Stop(ctx)
	d.state.TransportState = renderer.StateStopped
	return nil, nil
}

func (d *Dispatcher) avSeek(ctx context.Context, req *ActionRequest) ([]OutArg, *Fault) {
	if req.Args["Unit"] != "REL_TIME" {
		return nil, FaultUnsupportedUnit
	}
	target, ok := req.Args["Target"]
	if !ok || target == "" {
		return nil, FaultMissingTarget
	}
	seconds, ok := ParseDuration(target)
	if !ok {
		return nil, FaultInvalidTarget
	}

	d.state.Mu.Lock()
	defer d.state.Mu.Unlock()

	if d.state.TransportState != renderer.StatePlaying {
		return nil, FaultSeekFailed
	}
	if err := d.backend.Seek(ctx, seconds); err != nil {
		return nil, FaultSeekFailed
	}
	return nil, nil
}

func (d *Dispatcher) avGetPositionInfo(ctx context.Context) ([]OutArg, *Fault) {
	d.state.Mu.Lock()
	defer d.state.Mu.Unlock()
	uri := d.state.CurrentURI

	cur, total, _ := d.backend.GetPosition(ctx)

	return []OutArg{
		{Name: "Track", Value: "0"},
		{Name: "TrackDuration", Value: FormatDuration(total)},
		{Name: "TrackMetaData", Value: ""},
		{Name: "TrackURI", Value: EscapeXML(uri)},
		{Name: "RelTime", Value: FormatDuration(cur)},
		{Name: "AbsTime", Value: FormatDuration(cur)},
		{Name: "RelCount", Value: "2147483647"},
		{Name: "AbsCount", Value: "2147483647"},
	}, nil
}

func (d *Dispatcher) avGetTransportInfo() ([]OutArg, *Fault) {
	d.state.Mu.Lock()
	defer d.state.Mu.Unlock()

	return []OutArg{
		{Name: "CurrentTransportState", Value: d.state.TransportState.String()},
		{Name: "CurrentTransportStatus", Value: "OK"},
		{Name: "CurrentSpeed", Value: "1"},
	}, nil
}

func (d *Dispatcher) avGetMediaInfo(ctx context.Context) ([]OutArg, *Fault) {
	d.state.Mu.Lock()
	defer d.state.Mu.Unlock()
	uri := d.state.CurrentURI

	_, total, _ := d.backend.GetPosition(ctx)

	return []OutArg{
		{Name: "NrTracks", Value: "1"},
		{Name: "MediaDuration", Value: FormatDuration(total)},
		{Name: "CurrentURI", Value: EscapeXML(uri)},
		{Name: "NextURI", Value: ""},
		{Name: "PlayMedium", Value: "NETWORK"},
		{Name: "RecordMedium", Value: "NOT_IMPLEMENTED"},
		{Name: "WriteStatus", Value: "NOT_IMPLEMENTED"},
	}, nil
}
