// SPDX-License-Identifier: MIT

package player

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

const (
	pollIntervalPlaying = 1 * time.Second
	pollIntervalIdle    = 5 * time.Second
)

// ProgressPoller is the background task from spec section 4.6: while the
// backend is PLAYING it samples position roughly every second and logs
// it; otherwise it sleeps on a lower-frequency tick. It holds no
// RendererState lock, only reading the backend's atomic playing/paused
// flags, matching spec section 5's "holds no locks on the RendererState".
type ProgressPoller struct {
	backend Backend
	logger  *slog.Logger
}

// NewProgressPoller builds a poller over backend. A nil *slog.Logger
// falls back to slog's default, matching the teacher's nil-tolerant
// logging convention elsewhere in this codebase.
func NewProgressPoller(backend Backend, logger *slog.Logger) *ProgressPoller {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressPoller{backend: backend, logger: logger}
}

// Serve runs until ctx is cancelled. Matches suture.Service so
// cmd/grender can supervise it alongside the HTTP server and SSDP
// advertiser.
func (p *ProgressPoller) Serve(ctx context.Context) error {
	ticker := time.NewTicker(pollIntervalIdle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if p.backend.IsPlaying() {
				cur, total, err := p.backend.GetPosition(ctx)
				if err == nil {
					p.logger.Debug("playback position", "position_sec", cur, "duration_sec", total)
				}
				ticker.Reset(pollIntervalPlaying)
			} else {
				ticker.Reset(pollIntervalIdle)
			}
		}
	}
}

// safeLogWriter adapts a *slog.Logger to io.Writer for components (like
// util.SafeGo) that only know how to write plain lines, preserving a
// single logging sink across the process.
type safeLogWriter struct {
	logger *slog.Logger
}

func (w safeLogWriter) Write(p []byte) (int, error) {
	w.logger.Error(fmt.Sprintf("%s", p))
	return len(p), nil
}

// LogWriter adapts logger to io.Writer for util.SafeGo's panic logging.
func LogWriter(logger *slog.Logger) io.Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return safeLogWriter{logger: logger}
}
