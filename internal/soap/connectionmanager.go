// SPDX-License-Identifier: MIT

package soap

import "context"

// dispatchConnectionManager answers ConnectionManager actions with fixed
// values, per SPEC_FULL.md's supplemented feature: spec.md's action table
// only spells out AVTransport and RenderingControl, leaving
// ConnectionManager to always fault — the original C program answers
// these three with static values instead.
func (d *Dispatcher) dispatchConnectionManager(_ context.Context, req *ActionRequest) ([]OutArg, *Fault) {
	switch req.Action {
	case "GetProtocolInfo":
		return []OutArg{
			{Name: "Source", Value: ""},
			{Name: "Sink", Value: "http-get:*:audio/mpeg:*,http-get:*:audio/L16:*,http-get:*:application/ogg:*"},
		}, nil
	case "GetCurrentConnectionIDs":
		return []OutArg{{Name: "ConnectionIDs", Value: "0"}}, nil
	case "GetCurrentConnectionInfo":
		return []OutArg{
			{Name: "RcsID", Value: "-1"},
			{Name: "AVTransportID", Value: "-1"},
			{Name: "ProtocolInfo", Value: ""},
			{Name: "PeerConnectionManager", Value: ""},
			{Name: "PeerConnectionID", Value: "-1"},
			{Name: "Direction", Value: "Input"},
			{Name: "Status", Value: "OK"},
		}, nil
	default:
		return nil, FaultUnsupportedAction
	}
}
