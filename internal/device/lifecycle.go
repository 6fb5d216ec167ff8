// SPDX-License-Identifier: MIT

package device

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"grender/internal/mixer"
	"grender/internal/player"
	"grender/internal/renderer"
	"grender/internal/soap"
	"grender/internal/ssdp"
	"grender/internal/vfs"
)

// Lifecycle is DeviceLifecycle (spec section 4.5): it owns the identity,
// the virtual file catalog, the SOAP dispatcher, the SSDP advertiser, and
// the cleanup cascade run on shutdown.
type Lifecycle struct {
	Identity Identity
	Store    *vfs.Store

	dispatcher *soap.Dispatcher
	backend    player.Backend
	hwMixer    *mixer.HardwareMixer
	state      *renderer.State
	advertiser *ssdp.Advertiser

	logger io.Writer
}

// New builds a Lifecycle and registers the bundled device/service
// descriptors and icons into store before any HTTP request can be served
// (spec section 4.5: "Loads required virtual files before accepting any
// HTTP request").
func New(identity Identity, store *vfs.Store, state *renderer.State, backend player.Backend, hwMixer *mixer.HardwareMixer, logger io.Writer) (*Lifecycle, error) {
	if err := registerVirtualFiles(store); err != nil {
		return nil, fmt.Errorf("device: %w", err)
	}

	l := &Lifecycle{
		Identity:   identity,
		Store:      store,
		dispatcher: soap.New(state, backend),
		backend:    backend,
		hwMixer:    hwMixer,
		state:      state,
		logger:     logger,
	}
	return l, nil
}

func registerVirtualFiles(store *vfs.Store) error {
	files := []struct {
		path, contentType string
		body              []byte
	}{
		{"/virtual/AVTransport.xml", "text/xml", []byte(scpdAVTransport)},
		{"/virtual/RenderingControl.xml", "text/xml", []byte(scpdRenderingControl)},
		{"/virtual/ConnectionManager.xml", "text/xml", []byte(scpdConnectionManager)},
		{"/virtual/grender-64x64.png", "image/png", mustDecodePNG()},
		{"/virtual/grender-128x128.png", "image/png", mustDecodePNG()},
	}
	for _, f := range files {
		if err := store.RegisterBytes(f.path, f.contentType, f.body); err != nil {
			return fmt.Errorf("register %s: %w", f.path, err)
		}
	}
	return nil
}

// Description builds the device description document for this identity.
func (l *Lifecycle) Description() []byte {
	hostname, _ := os.Hostname()
	friendly := fmt.Sprintf("%s (%s)", l.Identity.FriendlyName, hostname)
	return BuildDescription(friendly, l.Identity.UDN, l.Identity.UDN)
}

// HTTPHandler returns the renderer's full HTTP surface: the device
// description document at the root path (spec section 6: "served at the
// substrate's root path, not under /virtual") and the virtual namespace
// (GETs, SOAP control POSTs, GENA event POSTs) everywhere else.
func (l *Lifecycle) HTTPHandler() http.Handler {
	vfsServer := vfs.NewServer(l.Store, l.dispatcher.ServeControl, nil)
	description := l.Description()

	mux := http.NewServeMux()
	mux.HandleFunc("/description.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
		_, _ = w.Write(description)
	})
	mux.Handle("/virtual/", vfsServer)
	return mux
}

// NewAdvertiser builds the SSDP advertiser for this device (spec section
// 4.5: initial validity 1800s, refreshed every 10s) once the caller knows
// the bound HTTP port and can supply the device description's absolute
// URL. The caller is expected to register the returned *ssdp.Advertiser
// with a suture supervision tree (it implements suture.Service);
// Lifecycle keeps a reference only so Shutdown can stop it.
func (l *Lifecycle) NewAdvertiser(descriptionURL string) *ssdp.Advertiser {
	l.advertiser = ssdp.NewAdvertiser(l.Identity.UDN, descriptionURL, "urn:schemas-upnp-org:device:MediaRenderer:1")
	return l.advertiser
}

// Shutdown runs the cleanup cascade spec section 4.5 specifies: deinit
// player, write software volume back to hardware if it was changed by a
// control point, stop advertising. VirtualFileStore and RendererState
// need no explicit teardown in Go (garbage collected), so this covers
// every step with an external resource.
func (l *Lifecycle) Shutdown(ctx context.Context) error {
	var firstErr error
	if l.backend != nil {
		if err := l.backend.Deinit(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("deinit player: %w", err)
		}
	}

	l.state.Mu.Lock()
	shouldWriteback := l.state.HWVolumeChangedByController
	volume := l.state.VolumePercent
	l.state.Mu.Unlock()

	if shouldWriteback && l.hwMixer != nil {
		if err := l.hwMixer.SetVolumeAll(ctx, volume); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("write back hardware volume: %w", err)
		}
	}

	if l.advertiser != nil {
		l.advertiser.Stop()
	}

	return firstErr
}
