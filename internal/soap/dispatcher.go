// SPDX-License-Identifier: MIT

package soap

import (
	"context"
	"errors"
	"net/http"

	"grender/internal/player"
	"grender/internal/renderer"
)

const (
	serviceAVTransport      = "AVTransport"
	serviceRenderingControl = "RenderingControl"
	serviceConnectionManager = "ConnectionManager"

	serviceTypeAVTransport      = "urn:schemas-upnp-org:service:AVTransport:1"
	serviceTypeRenderingControl = "urn:schemas-upnp-org:service:RenderingControl:1"
	serviceTypeConnectionManager = "urn:schemas-upnp-org:service:ConnectionManager:1"
)

// Dispatcher is the SoapDispatcher from spec section 4.4: it parses
// action requests, validates arguments, routes into RendererState and
// PlayerBackend under the single renderer_mutex, and constructs either an
// action response or a fault.
type Dispatcher struct {
	state   *renderer.State
	backend player.Backend
}

// New builds a Dispatcher over the given RendererState and PlayerBackend.
// Both are long-lived and shared across every request.
func New(state *renderer.State, backend player.Backend) *Dispatcher {
	return &Dispatcher{state: state, backend: backend}
}

func serviceTypeFor(serviceID string) (string, bool) {
	switch serviceID {
	case serviceAVTransport:
		return serviceTypeAVTransport, true
	case serviceRenderingControl:
		return serviceTypeRenderingControl, true
	case serviceConnectionManager:
		return serviceTypeConnectionManager, true
	default:
		return "", false
	}
}

// ServeControl is a vfs.ActionHandler: it parses the SOAP body, dispatches
// the action, and writes either a response or fault envelope. The HTTP
// status is always 200 for a successful response and 500 for a fault, per
// the SOAP-over-HTTP convention control points expect.
func (d *Dispatcher) ServeControl(w http.ResponseWriter, r *http.Request, serviceID string) {
	defer r.Body.Close()

	serviceType, known := serviceTypeFor(serviceID)
	if !known {
		d.writeFault(w, FaultUnknownService)
		return
	}

	req, err := ParseAction(r.Body, serviceID)
	if err != nil {
		d.writeFault(w, fault(400, "Malformed SOAP request"))
		return
	}

	outArgs, fe := d.Dispatch(r.Context(), req)
	if fe != nil {
		d.writeFault(w, fe)
		return
	}

	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(BuildResponseEnvelope(serviceType, req.Action, outArgs))
}

func (d *Dispatcher) writeFault(w http.ResponseWriter, f *Fault) {
	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(BuildFaultEnvelope(f))
}

// Dispatch routes req to the correct service's action table under the
// single renderer_mutex (spec section 5: "the dispatcher always holds it
// across read -> decide -> player call -> write").
func (d *Dispatcher) Dispatch(ctx context.Context, req *ActionRequest) ([]OutArg, *Fault) {
	switch req.ServiceID {
	case serviceAVTransport:
		return d.dispatchAVTransport(ctx, req)
	case serviceRenderingControl:
		return d.dispatchRenderingControl(ctx, req)
	case serviceConnectionManager:
		return d.dispatchConnectionManager(ctx, req)
	default:
		return nil, FaultUnknownService
	}
}

// asFault adapts a player/mixer error into the SOAP fault the calling
// action table names: onWrongState for player.ErrWrongState, onFailure
// for any other error.
func asFault(err error, onWrongState, onFailure *Fault) *Fault {
	switch {
	case errors.Is(err, player.ErrWrongState):
		return onWrongState
	default:
		return onFailure
	}
}
