// SPDX-License-Identifier: MIT

// Package soap implements SoapDispatcher (spec section 4.4): action
// routing, argument validation, and SOAP envelope/fault construction for
// the AVTransport, RenderingControl and ConnectionManager services.
package soap

import "fmt"

// Fault is a SOAP UPnPError: a numeric code and message, carried as the
// dispatcher's one error type so every failure path produces a
// well-formed envelope (spec section 7: "the dispatcher always returns a
// well-formed envelope").
type Fault struct {
	Code    int
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("soap fault %d: %s", f.Code, f.Message)
}

func fault(code int, message string) *Fault {
	return &Fault{Code: code, Message: message}
}

// Named fault constructors, one per code in spec section 4.4's action
// tables, so handlers never hardcode a bare number.
var (
	FaultUnknownService = fault(700, "Unknown service")
	FaultInvalidURI      = fault(701, "Invalid URI")
	FaultURINotSet       = fault(702, "No URI set")
	FaultPlaybackFailed  = fault(703, "Playback failed")
	FaultNotPlaying      = fault(704, "Not playing")
	FaultUnsupportedUnit = fault(705, "Seek mode not supported")
	FaultMissingTarget   = fault(706, "Illegal seek target")
	FaultInvalidTarget   = fault(707, "Illegal seek target")
	FaultSeekFailed      = fault(708, "Seek failed")
	FaultUnsupportedAction = fault(709, "Optional action not implemented")
	FaultUnsupportedChannel = fault(710, "Unsupported channel")
	FaultMissingVolume   = fault(711, "Invalid argument")
	FaultVolumeOutOfRange = fault(712, "Invalid argument")
	FaultUnsupportedChannelSet = fault(713, "Unsupported channel")
	FaultSetVolumeFailed = fault(714, "Action failed")
	FaultMissingMute     = fault(715, "Invalid argument")
)
