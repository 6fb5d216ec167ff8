// SPDX-License-Identifier: MIT

// Command grender is a UPnP/DLNA MediaRenderer daemon: it advertises itself
// over SSDP, serves its device/service descriptors and SOAP control points
// over HTTP, and drives an always-on mpv pipeline in response to
// AVTransport/RenderingControl actions.
//
// Usage:
//
//	grender [options]
//
// Options:
//
//	--name NAME             Friendly name (default "grender")
//	--interface-name IF     Local NIC to bind (default: all interfaces)
//	--port N                TCP port for the device webserver (default 49494; 0 = ephemeral)
//	--uuid UUID             Override device UUID
//	--card CARD             ALSA card (default "hw:0")
//	--selem-name NAME       ALSA mixer element (default "DAC volume")
//	--buffer-time MICROS    mpv/ALSA buffer time (default 200000)
//	--latency-time MICROS   mpv/ALSA latency time (default 10000)
//	--volume N              Initial volume 0..100; 0 means "seed from hardware"
//	--config PATH           Path to an optional YAML config file
//
// grender runs for as long as the process lives, exactly like the teacher
// daemon this codebase is adapted from: it restarts its own mpv pipeline on
// unexpected crashes with backoff and never exits on a recoverable error.
// Exit codes: 0 on clean shutdown, 1 on any init failure before the event
// loop starts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"

	"grender/internal/config"
	"grender/internal/device"
	"grender/internal/mixer"
	"grender/internal/player"
	"grender/internal/renderer"
	"grender/internal/vfs"
)

// Build information (set by ldflags), matching the teacher's convention.
var (
	Version = "dev"
	Commit  = "unknown"
)

var (
	configPath    = flag.String("config", config.ConfigFilePath, "Path to configuration file")
	name          = flag.String("name", "", "Friendly name")
	interfaceName = flag.String("interface-name", "", "Local NIC to bind")
	port          = flag.Int("port", -1, "TCP port for the device webserver (0 = ephemeral)")
	uuidOverride  = flag.String("uuid", "", "Override device UUID")
	card          = flag.String("card", "", "ALSA card")
	selemName     = flag.String("selem-name", "", "ALSA mixer element")
	bufferTimeUs  = flag.Int("buffer-time", -1, "mpv/ALSA buffer time in microseconds")
	latencyTimeUs = flag.Int("latency-time", -1, "mpv/ALSA latency time in microseconds")
	volume        = flag.Int("volume", -1, "Initial volume 0..100 (0 seeds from hardware)")
	logLevel      = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()

	logger := newLogger(*logLevel)
	logger.Info("starting grender", "version", Version, "commit", Commit)

	cfg, err := loadConfiguration(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("init failure", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// run wires every component named in the module map and blocks until a
// shutdown signal is received, then runs the cleanup cascade. It returns an
// error only for failures that occur before the event loop starts; once the
// supervisor is running, failures are logged and retried, never fatal.
func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cards, err := mixer.DetectCards("/proc/asound"); err != nil {
		logger.Debug("sound card detection unavailable", "error", err)
	} else {
		logger.Info("detected sound cards", "count", len(cards))
		for _, c := range cards {
			logger.Debug("sound card", "card", c.CardNumber, "name", c.Name, "usb_id", c.USBID)
		}
	}

	hwMixer := mixer.New(cfg.Card, cfg.SelemName)

	initialVolume := cfg.Volume
	if initialVolume == 0 {
		v, err := hwMixer.GetVolumePercent(ctx)
		if err != nil {
			logger.Warn("could not seed volume from hardware, defaulting to 50", "error", err)
			v = 50
		}
		initialVolume = v
	}

	state := renderer.New(initialVolume)

	backend := player.NewMPVBackend("", player.LogWriter(logger))
	if err := backend.Init(ctx, player.Options{
		SoundCard:            cfg.Card,
		MixerElement:         cfg.SelemName,
		BufferTimeUs:         cfg.BufferTimeUs,
		LatencyTimeUs:        cfg.LatencyTimeUs,
		InitialVolumePercent: initialVolume,
	}); err != nil {
		return fmt.Errorf("init player backend: %w", err)
	}

	store := vfs.New()
	identity := device.Identity{
		UDN:          device.NewUDN(cfg.UUID),
		FriendlyName: cfg.Name,
		Interface:    cfg.InterfaceName,
		Port:         cfg.Port,
	}

	lifecycle, err := device.New(identity, store, state, backend, hwMixer, player.LogWriter(logger))
	if err != nil {
		_ = backend.Deinit(ctx)
		return fmt.Errorf("build device lifecycle: %w", err)
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		_ = backend.Deinit(ctx)
		return fmt.Errorf("listen on port %d: %w", cfg.Port, err)
	}
	boundPort := listener.Addr().(*net.TCPAddr).Port

	host, err := resolveHost(cfg.InterfaceName)
	if err != nil {
		_ = listener.Close()
		_ = backend.Deinit(ctx)
		return fmt.Errorf("resolve bind address: %w", err)
	}
	descriptionURL := fmt.Sprintf("http://%s:%d/description.xml", host, boundPort)

	advertiser := lifecycle.NewAdvertiser(descriptionURL)

	httpServer := &http.Server{Handler: lifecycle.HTTPHandler()}

	sup := suture.New("grender", suture.Spec{})
	sup.Add(&httpService{server: httpServer, listener: listener, logger: logger})
	sup.Add(advertiser)
	sup.Add(player.NewProgressPoller(backend, logger))
	sup.Add(&eventLogService{backend: backend, state: state, logger: logger})

	logger.Info("listening", "addr", listener.Addr().String(), "description_url", descriptionURL, "udn", identity.UDN)

	if err := sup.Serve(ctx); err != nil && ctx.Err() == nil {
		logger.Error("supervisor exited unexpectedly", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := lifecycle.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown cascade reported an error", "error", err)
	}

	return nil
}

// httpService adapts an *http.Server bound to a pre-opened listener into a
// suture.Service, matching the shape of ssdp.Advertiser and
// player.ProgressPoller so all three are supervised identically.
type httpService struct {
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger
}

func (s *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("http server shutdown error", "error", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

// eventLogService drains the player backend's bus events for the process
// lifetime, logs them, and reconciles RendererState.TransportState against
// the pipeline's own state changes: an END_OF_STREAM or ERROR event means
// the pipeline has stopped on its own, so the next GetTransportInfo must
// report STOPPED rather than the last action-driven state.
type eventLogService struct {
	backend player.Backend
	state   *renderer.State
	logger  *slog.Logger
}

func (s *eventLogService) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.backend.Events():
			if !ok {
				return nil
			}
			switch ev.Kind {
			case player.EventError:
				s.logger.Error("pipeline event", "kind", ev.Kind.String(), "message", ev.Message)
				s.reconcileStopped()
			case player.EventEndOfStream:
				s.logger.Debug("pipeline event", "kind", ev.Kind.String())
				s.reconcileStopped()
			default:
				s.logger.Debug("pipeline event", "kind", ev.Kind.String(), "message", ev.Message, "percent", ev.Percent, "playing", ev.Playing, "paused", ev.Paused)
			}
		}
	}
}

// reconcileStopped advances RendererState.TransportState to STOPPED,
// mirroring what SetAVTransportURI/Stop already do, so a pipeline failure
// or natural end-of-stream is reflected the same way a control-point-driven
// Stop would be.
func (s *eventLogService) reconcileStopped() {
	s.state.Mu.Lock()
	s.state.TransportState = renderer.StateStopped
	s.state.Mu.Unlock()
}

// loadConfiguration layers an optional YAML file and GRENDER_* environment
// variables on top of the built-in defaults, matching the precedence the
// teacher's koanf-based loader documents.
func loadConfiguration(path string) (*config.Config, error) {
	opts := []config.Option{config.WithEnvPrefix("GRENDER")}
	if _, err := os.Stat(path); err == nil {
		opts = append(opts, config.WithYAMLFile(path))
	}

	kc, err := config.NewKoanfConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("build config loader: %w", err)
	}
	return kc.Load()
}

// applyFlagOverrides overwrites cfg fields with any flag explicitly set on
// the command line; flags win over file and environment per spec section 6,
// since koanf.go only layers file under environment.
func applyFlagOverrides(cfg *config.Config) {
	if *name != "" {
		cfg.Name = *name
	}
	if *interfaceName != "" {
		cfg.InterfaceName = *interfaceName
	}
	if *port >= 0 {
		cfg.Port = *port
	}
	if *uuidOverride != "" {
		cfg.UUID = *uuidOverride
	}
	if *card != "" {
		cfg.Card = *card
	}
	if *selemName != "" {
		cfg.SelemName = *selemName
	}
	if *bufferTimeUs >= 0 {
		cfg.BufferTimeUs = *bufferTimeUs
	}
	if *latencyTimeUs >= 0 {
		cfg.LatencyTimeUs = *latencyTimeUs
	}
	if *volume >= 0 {
		cfg.Volume = *volume
	}
}

// resolveHost returns the IPv4 address of the named interface, or the
// hostname if ifaceName is empty (bind to all interfaces but advertise a
// reachable name).
func resolveHost(ifaceName string) (string, error) {
	if ifaceName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return "localhost", nil
		}
		return hostname, nil
	}

	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return "", fmt.Errorf("interface %s: %w", ifaceName, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return "", fmt.Errorf("interface %s addrs: %w", ifaceName, err)
	}
	for _, a := range addrs {
		if ipNet, ok := a.(*net.IPNet); ok && ipNet.IP.To4() != nil {
			return ipNet.IP.String(), nil
		}
	}
	return "", fmt.Errorf("interface %s has no IPv4 address", ifaceName)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
