// SPDX-License-Identifier: MIT

package player

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"grender/internal/util"
)

// MPVBackend is the Backend implementation grounded on a long-lived mpv(1)
// process. One MPVBackend is created per renderer process and lives for
// the program's lifetime, matching spec 4.2's "always-on pipeline": Init
// is called once, and every subsequent Play reuses the same process by
// loading a new file and toggling pause, never re-execing mpv.
type MPVBackend struct {
	mpvPath string

	mu      sync.Mutex
	proc    *process
	opts    Options

	playing atomic.Bool
	paused  atomic.Bool
	muted   atomic.Bool
	volume  atomic.Int32

	events chan BusEvent

	logger io.Writer

	wg     sync.WaitGroup
	stopCh chan struct{}
}

// NewMPVBackend constructs a backend that will exec the given mpv binary
// (normally "mpv", resolved via PATH).
func NewMPVBackend(mpvPath string, logger io.Writer) *MPVBackend {
	if mpvPath == "" {
		mpvPath = "mpv"
	}
	return &MPVBackend{
		mpvPath: mpvPath,
		events:  make(chan BusEvent, 32),
		logger:  logger,
	}
}

func (b *MPVBackend) Events() <-chan BusEvent { return b.events }

// Init starts the mpv process idle, with audio routed to the configured
// ALSA card and no video output, and begins translating its event stream
// onto Events(). Per spec 4.2 this is called exactly once at startup.
func (b *MPVBackend) Init(ctx context.Context, opts Options) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.proc != nil {
		return fmt.Errorf("%w: already initialized", ErrWrongState)
	}

	b.opts = opts
	b.volume.Store(int32(clampPercent(opts.InitialVolumePercent)))
	b.stopCh = make(chan struct{})

	p, err := b.spawnProcess(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInitFailure, err)
	}
	b.proc = p

	b.wg.Add(1)
	util.SafeGo("player.mpv.supervisor", b.logger, func() {
		defer b.wg.Done()
		b.superviseRestarts(ctx)
	}, nil)

	return nil
}

// spawnProcess launches a new mpv process and starts its event-loop
// goroutine, without touching b.proc — callers (Init and the restart
// supervisor) assign the result themselves.
func (b *MPVBackend) spawnProcess(ctx context.Context) (*process, error) {
	sockPath := filepath.Join(os.TempDir(), fmt.Sprintf("grender-mpv-%d-%d.sock", os.Getpid(), time.Now().UnixNano()))

	alsaDevice := "alsa"
	if b.opts.SoundCard != "" {
		alsaDevice = fmt.Sprintf("alsa/%s", alsaCardSuffix(b.opts.SoundCard))
	}

	args := []string{
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--no-config",
		"--really-quiet",
		"--input-ipc-server=" + sockPath,
		"--audio-device=" + alsaDevice,
	}
	if v := int(b.volume.Load()); v > 0 {
		args = append(args, "--volume="+strconv.Itoa(clampPercent(v)))
	}

	p := newProcess(b.mpvPath, sockPath, args, b.logger)
	if err := p.start(ctx); err != nil {
		return nil, err
	}

	// Observe mpv's own cache-underrun auto-pause so BUFFERING events surface
	// (spec 4.2), realizing the SPEC_FULL.md decision to auto pause/resume on
	// buffering: mpv already pauses/resumes playback itself on network cache
	// underrun/recovery, this just republishes it on the bus.
	_ = p.ipc.observeProperty(ctx, 1, "paused-for-cache")

	b.wg.Add(1)
	util.SafeGo("player.mpv.eventLoop", b.logger, func() {
		defer b.wg.Done()
		b.eventLoop(p.ipc)
	}, nil)

	return p, nil
}

// superviseRestarts watches for an unexpected mpv process exit and
// restarts it with exponential backoff, grounded on the teacher's
// stream.Manager.Run restart loop: wait with the current delay, then
// record the failure so the first restart uses the initial delay, reset
// the backoff after a long-enough successful run. It never restarts once
// Deinit has closed b.stopCh.
func (b *MPVBackend) superviseRestarts(ctx context.Context) {
	backoff := NewBackoff(2*time.Second, 30*time.Second)

	for {
		b.mu.Lock()
		proc := b.proc
		stopCh := b.stopCh
		b.mu.Unlock()
		if proc == nil || stopCh == nil {
			return
		}

		startedAt := time.Now()
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-proc.Exited():
		}

		// A deliberate Deinit/Stop races to nil b.proc and close stopCh
		// before the process actually exits; re-check before restarting.
		select {
		case <-stopCh:
			return
		default:
		}

		runTime := time.Since(startedAt)
		b.playing.Store(false)
		b.paused.Store(false)
		b.publish(BusEvent{Kind: EventError, Message: fmt.Sprintf("mpv process exited unexpectedly after %s: %v", runTime, proc.ExitErr())})

		if waitErr := backoff.WaitContext(ctx); waitErr != nil {
			return
		}

		newProc, err := b.spawnProcess(ctx)
		if err != nil {
			backoff.RecordFailure()
			b.publish(BusEvent{Kind: EventError, Message: fmt.Sprintf("mpv restart failed: %v", err)})
			continue
		}
		backoff.RecordSuccess(runTime)

		b.mu.Lock()
		b.proc = newProc
		b.mu.Unlock()
	}
}

func alsaCardSuffix(card string) string {
	// "hw:0" -> "hw:0,0" is mpv/ALSA plugin convention for default subdevice;
	// mpv accepts the raw ALSA device string verbatim.
	return card
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// eventLoop drains mpv's event stream and republishes it on b.events in
// the vocabulary spec 4.2 defines, until the ipc connection closes.
func (b *MPVBackend) eventLoop(ipc *ipcClient) {
	if ipc == nil {
		return
	}
	for ev := range ipc.events {
		switch ev.Event {
		case "end-file":
			var data struct {
				Reason string `json:"reason"`
			}
			_ = json.Unmarshal(ev.Data, &data)
			b.playing.Store(false)
			b.paused.Store(false)
			if data.Reason == "error" {
				b.publish(BusEvent{Kind: EventError, Message: "mpv reported end-file reason=error"})
			} else {
				b.publish(BusEvent{Kind: EventEndOfStream})
			}
		case "file-loaded":
			b.publish(BusEvent{Kind: EventStreamStart})
		case "pause":
			b.paused.Store(true)
			b.publish(BusEvent{Kind: EventStateChanged, Playing: b.playing.Load(), Paused: true})
		case "unpause":
			b.paused.Store(false)
			b.publish(BusEvent{Kind: EventStateChanged, Playing: b.playing.Load(), Paused: false})
		case "playback-restart":
			b.publish(BusEvent{Kind: EventBuffering, Percent: 100})
		case "property-change":
			if ev.Name == "paused-for-cache" {
				var pausedForCache bool
				_ = json.Unmarshal(ev.Data, &pausedForCache)
				if pausedForCache {
					b.publish(BusEvent{Kind: EventBuffering, Percent: 0})
				} else {
					b.publish(BusEvent{Kind: EventBuffering, Percent: 100})
				}
			}
		}
	}
}

func (b *MPVBackend) publish(ev BusEvent) {
	select {
	case b.events <- ev:
	default:
	}
}

// Play loads uri and transitions to playing. If the pipeline is merely
// paused on the same logical stream, the caller should use Resume
// instead; Play always (re)loads the URI per spec 4.2's AVTransport
// SetAVTransportURI + Play sequence.
func (b *MPVBackend) Play(ctx context.Context, uri string) error {
	b.mu.Lock()
	proc := b.proc
	b.mu.Unlock()
	if proc == nil || proc.ipc == nil {
		return ErrNotInitialized
	}

	if err := proc.ipc.command(ctx, "loadfile", uri, "replace"); err != nil {
		return fmt.Errorf("%w: loadfile: %v", ErrPipelineFailure, err)
	}
	if err := proc.ipc.setProperty(ctx, "pause", false); err != nil {
		return fmt.Errorf("%w: unpause: %v", ErrPipelineFailure, err)
	}

	b.playing.Store(true)
	b.paused.Store(false)
	return nil
}

func (b *MPVBackend) requireProc() (*process, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.proc == nil || b.proc.ipc == nil {
		return nil, ErrNotInitialized
	}
	return b.proc, nil
}

func (b *MPVBackend) Pause(ctx context.Context) error {
	proc, err := b.requireProc()
	if err != nil {
		return err
	}
	if !b.playing.Load() {
		return fmt.Errorf("%w: cannot pause, not playing", ErrWrongState)
	}
	if err := proc.ipc.setProperty(ctx, "pause", true); err != nil {
		return fmt.Errorf("%w: %v", ErrPipelineFailure, err)
	}
	b.paused.Store(true)
	return nil
}

func (b *MPVBackend) Resume(ctx context.Context) error {
	proc, err := b.requireProc()
	if err != nil {
		return err
	}
	if !b.paused.Load() {
		return fmt.Errorf("%w: cannot resume, not paused", ErrWrongState)
	}
	if err := proc.ipc.setProperty(ctx, "pause", false); err != nil {
		return fmt.Errorf("%w: %v", ErrPipelineFailure, err)
	}
	b.paused.Store(false)
	return nil
}

// Stop drops the current URI back to an idle ready state without tearing
// down the mpv process itself, matching spec 4.2's "pipeline reused
// across play() calls" rule.
func (b *MPVBackend) Stop(ctx context.Context) error {
	proc, err := b.requireProc()
	if err != nil {
		return err
	}
	if err := proc.ipc.command(ctx, "stop"); err != nil {
		return fmt.Errorf("%w: %v", ErrPipelineFailure, err)
	}
	b.playing.Store(false)
	b.paused.Store(false)
	return nil
}

func (b *MPVBackend) Seek(ctx context.Context, seconds float64) error {
	proc, err := b.requireProc()
	if err != nil {
		return err
	}
	if !b.playing.Load() && !b.paused.Load() {
		return fmt.Errorf("%w: seek requires an active stream", ErrNotSeekable)
	}
	if err := proc.ipc.command(ctx, "seek", seconds, "absolute"); err != nil {
		return fmt.Errorf("%w: %v", ErrNotSeekable, err)
	}
	return nil
}

func (b *MPVBackend) GetPosition(ctx context.Context) (current, total float64, err error) {
	proc, err := b.requireProc()
	if err != nil {
		return -1, -1, err
	}

	current = -1
	total = -1

	if raw, err := proc.ipc.getProperty(ctx, "time-pos"); err == nil {
		_ = json.Unmarshal(raw, &current)
	}
	if raw, err := proc.ipc.getProperty(ctx, "duration"); err == nil {
		_ = json.Unmarshal(raw, &total)
	}
	return current, total, nil
}

func (b *MPVBackend) GetVolume() int {
	return int(b.volume.Load())
}

func (b *MPVBackend) SetVolume(ctx context.Context, percent int) error {
	proc, err := b.requireProc()
	if err != nil {
		return err
	}
	percent = clampPercent(percent)
	if err := proc.ipc.setProperty(ctx, "volume", percent); err != nil {
		return fmt.Errorf("%w: %v", ErrPipelineFailure, err)
	}
	b.volume.Store(int32(percent))
	return nil
}

// GetMute always reads the live pipeline's mute property rather than a
// cached flag, resolving the stale-read-path question spec 9 leaves open.
func (b *MPVBackend) GetMute() bool {
	proc, err := b.requireProc()
	if err != nil {
		return b.muted.Load()
	}
	raw, err := proc.ipc.getProperty(context.Background(), "mute")
	if err != nil {
		return b.muted.Load()
	}
	var m bool
	if err := json.Unmarshal(raw, &m); err == nil {
		b.muted.Store(m)
		return m
	}
	return b.muted.Load()
}

func (b *MPVBackend) SetMute(ctx context.Context, muted bool) error {
	proc, err := b.requireProc()
	if err != nil {
		return err
	}
	if err := proc.ipc.setProperty(ctx, "mute", muted); err != nil {
		return fmt.Errorf("%w: %v", ErrPipelineFailure, err)
	}
	b.muted.Store(muted)
	return nil
}

func (b *MPVBackend) IsPlaying() bool { return b.playing.Load() && !b.paused.Load() }
func (b *MPVBackend) IsPaused() bool  { return b.paused.Load() }

// Deinit stops mpv and releases the socket. Safe to call more than once.
func (b *MPVBackend) Deinit(ctx context.Context) error {
	b.mu.Lock()
	proc := b.proc
	stopCh := b.stopCh
	b.proc = nil
	b.mu.Unlock()

	if proc == nil {
		return nil
	}
	if stopCh != nil {
		select {
		case <-stopCh:
		default:
			close(stopCh)
		}
	}

	err := proc.stop(ctx)
	_ = os.Remove(proc.socketPath)
	b.wg.Wait()
	b.playing.Store(false)
	b.paused.Store(false)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPipelineFailure, err)
	}
	return nil
}
