// SPDX-License-Identifier: MIT

package vfs

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ActionHandler answers a SOAP control POST for one UPnP service; it is
// supplied by internal/soap and never implemented here, keeping this
// package ignorant of SOAP/XML entirely.
type ActionHandler func(w http.ResponseWriter, r *http.Request, service string)

// EventHandler answers a POST to one UPnP service's event URL. Only POST
// is routed there; SUBSCRIBE and UNSUBSCRIBE requests are not routed, and
// no eventing payloads are sent.
type EventHandler func(w http.ResponseWriter, r *http.Request, service string)

// Server is the HTTP surface for the virtual namespace (spec section 6):
// GETs under /virtual/*, SOAP control POSTs under /virtual/control/{Service},
// and GENA event POSTs under /virtual/event/{Service}. The device
// description document itself is NOT served here — DeviceLifecycle mounts
// it at the root path, since it lives outside the /virtual namespace.
type Server struct {
	store   *Store
	control ActionHandler
	event   EventHandler
}

// NewServer builds a chi Router serving the virtual namespace.
func NewServer(store *Store, control ActionHandler, event EventHandler) http.Handler {
	s := &Server{store: store, control: control, event: event}

	r := chi.NewRouter()
	r.Get("/virtual/*", s.handleGet)
	r.Post("/virtual/control/{service}", s.handleControl)
	r.Post("/virtual/event/{service}", s.handleEvent)
	return r
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	info, err := s.store.GetInfo(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	cursor, err := s.store.Open(path, "read")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer cursor.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Length, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, cursor)
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	if s.control == nil {
		http.Error(w, "no action handler configured", http.StatusInternalServerError)
		return
	}
	s.control(w, r, service)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	if s.event == nil {
		// POSTs to the event URL are acknowledged but not fulfilled (spec
		// section 1: event machinery is out of scope); a bare 200 keeps control
		// points that probe for eventing from treating the renderer as broken.
		w.WriteHeader(http.StatusOK)
		return
	}
	s.event(w, r, service)
}
