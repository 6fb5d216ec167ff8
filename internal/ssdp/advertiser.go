// SPDX-License-Identifier: MIT

// Package ssdp wraps github.com/koron/go-ssdp to implement the periodic
// NOTIFY advertisement spec section 4.5/6 requires: an initial
// ssdp:alive with max-age 1800, re-sent every ~10 seconds until shutdown.
package ssdp

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	goupnpssdp "github.com/koron/go-ssdp"
)

const (
	maxAgeSeconds      = 1800
	advertiseInterval  = 10 * time.Second
	// jitterFraction staggers each advertise tick by up to this fraction
	// of the interval, reproducing original_source/upnp_device.c's
	// re-advertisement jitter so periodic NOTIFYs from several grender
	// instances on one network don't all land in the same moment.
	jitterFraction = 0.2
)

// deviceType is fixed at MediaRenderer:1; this package exists to
// advertise exactly one device type, not a general SSDP client.
const deviceType = "urn:schemas-upnp-org:device:MediaRenderer:1"

// Advertiser periodically sends ssdp:alive NOTIFYs for the targets
// notifyTargets lists (the UDN, upnp:rootdevice and the device type; the
// services are not advertised separately), and sends ssdp:byebye on Stop. It implements
// suture.Service's Serve(ctx) error shape so cmd/grender can supervise it
// alongside the HTTP server and ProgressPoller.
type Advertiser struct {
	udn            string
	location       string
	deviceType     string

	mu   sync.Mutex
	ads  []*goupnpssdp.Advertiser
	stop chan struct{}
	once sync.Once
}

// NewAdvertiser builds an Advertiser for udn (e.g. "uuid:...") whose
// device description is served at location (an absolute URL).
func NewAdvertiser(udn, location, deviceTypeOverride string) *Advertiser {
	dt := deviceTypeOverride
	if dt == "" {
		dt = deviceType
	}
	return &Advertiser{udn: udn, location: location, deviceType: dt, stop: make(chan struct{})}
}

// notifyTargets are the three usn/st pairs a UPnP root device advertises:
// the root device itself, upnp:rootdevice, and the device type — matching
// standard UPnP 1.0 discovery expectations.
func (a *Advertiser) notifyTargets() []string {
	return []string{
		a.udn,
		"upnp:rootdevice",
		a.deviceType,
	}
}

// Serve starts advertising and blocks until ctx is cancelled, at which
// point it sends ssdp:byebye for every target and returns nil. This
// signature matches suture.Service.
func (a *Advertiser) Serve(ctx context.Context) error {
	a.mu.Lock()
	for _, st := range a.notifyTargets() {
		usn := a.usnFor(st)
		ad, err := goupnpssdp.Advertise(st, usn, a.location, "grender", maxAgeSeconds)
		if err != nil {
			a.mu.Unlock()
			return fmt.Errorf("ssdp: advertise %s: %w", st, err)
		}
		a.ads = append(a.ads, ad)
	}
	ads := append([]*goupnpssdp.Advertiser(nil), a.ads...)
	a.mu.Unlock()

	ticker := time.NewTicker(advertiseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for _, ad := range ads {
				_ = ad.Bye()
				_ = ad.Close()
			}
			return nil
		case <-a.stop:
			for _, ad := range ads {
				_ = ad.Bye()
				_ = ad.Close()
			}
			return nil
		case <-ticker.C:
			jitter := time.Duration(rand.Float64() * jitterFraction * float64(advertiseInterval))
			time.Sleep(jitter)
			for _, ad := range ads {
				_ = ad.Alive()
			}
		}
	}
}

func (a *Advertiser) usnFor(st string) string {
	if st == a.udn {
		return a.udn
	}
	return a.udn + "::" + st
}

// Stop requests the advertise loop to send ssdp:byebye and exit, for
// callers that are not driving it through ctx cancellation.
func (a *Advertiser) Stop() {
	a.once.Do(func() { close(a.stop) })
}
