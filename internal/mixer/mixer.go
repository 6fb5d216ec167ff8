// SPDX-License-Identifier: MIT

// Package mixer implements HardwareMixer (spec section 4.3): a two-way
// bridge between software volume (0..100) and a named ALSA mixer
// element's volume range, used at startup to seed software volume and at
// shutdown to write it back.
//
// No cgo ALSA binding exists anywhere in the retrieval pack this codebase
// was built from, so each operation shells out to amixer(1) via os/exec —
// the same exec.Cmd-per-call idiom the teacher codebase uses to invoke
// ffmpeg, just for a one-shot command instead of a long-running process.
package mixer

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// HardwareMixer bridges software volume percent to an ALSA simple-mixer
// element's native range. Each exported method independently opens,
// queries/sets, and closes its own amixer invocation per spec 4.3 ("each
// call independently opens, attaches, registers, loads, locates the selem,
// and closes the handle") — there is no persistent handle to hold open.
type HardwareMixer struct {
	card      string
	selemName string
	runner    commandRunner
}

// ErrMixerFailure is the sentinel error kind for any amixer interaction
// failure (spec section 7: MixerFailure — logged, never fails the caller's
// enclosing action by itself).
var ErrMixerFailure = fmt.Errorf("mixer failure")

// commandRunner abstracts process execution so tests can stub amixer output
// without a real ALSA stack present.
type commandRunner interface {
	Run(ctx context.Context, args ...string) (stdout string, err error)
}

type execRunner struct{ path string }

func (r execRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.path, args...)
	var out strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("%s %s: %w: %s", r.path, strings.Join(args, " "), err, out.String())
	}
	return out.String(), nil
}

// New returns a HardwareMixer addressing the given ALSA card (e.g. "hw:0"
// or "0") and simple-mixer element name (e.g. "DAC volume").
func New(card, selemName string) *HardwareMixer {
	return &HardwareMixer{card: card, selemName: selemName, runner: execRunner{path: "amixer"}}
}

// cardArg normalizes a CLI-style card specifier ("hw:0") to the bare index
// or name amixer's -c flag expects.
func cardArg(card string) string {
	return strings.TrimPrefix(card, "hw:")
}

var (
	limitsRe = regexp.MustCompile(`Limits:\s+Playback\s+(-?\d+)\s+-\s+(-?\d+)`)
	frontLRe = regexp.MustCompile(`Front Left:\s+Playback\s+(-?\d+)\s+\[`)
	monoRe   = regexp.MustCompile(`Mono:\s+Playback\s+(-?\d+)\s+\[`)
	controlRe = regexp.MustCompile(`Simple mixer control '([^']+)',\d+`)
)

// GetRange returns the element's native (min, max) Playback range.
func (m *HardwareMixer) GetRange(ctx context.Context) (min, max int, err error) {
	out, err := m.runner.Run(ctx, "-c", cardArg(m.card), "get", m.selemName)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: get range: %v", ErrMixerFailure, err)
	}
	match := limitsRe.FindStringSubmatch(out)
	if match == nil {
		return 0, 0, fmt.Errorf("%w: could not parse limits from amixer output", ErrMixerFailure)
	}
	min, errMin := strconv.Atoi(match[1])
	max, errMax := strconv.Atoi(match[2])
	if errMin != nil || errMax != nil {
		return 0, 0, fmt.Errorf("%w: malformed limits in amixer output", ErrMixerFailure)
	}
	return min, max, nil
}

// GetVolume returns the raw Playback value of the FRONT_LEFT channel (or
// the Mono channel, for mono-only elements).
func (m *HardwareMixer) GetVolume(ctx context.Context) (int, error) {
	out, err := m.runner.Run(ctx, "-c", cardArg(m.card), "get", m.selemName)
	if err != nil {
		return 0, fmt.Errorf("%w: get volume: %v", ErrMixerFailure, err)
	}
	if match := frontLRe.FindStringSubmatch(out); match != nil {
		v, err := strconv.Atoi(match[1])
		if err != nil {
			return 0, fmt.Errorf("%w: malformed volume in amixer output", ErrMixerFailure)
		}
		return v, nil
	}
	if match := monoRe.FindStringSubmatch(out); match != nil {
		v, err := strconv.Atoi(match[1])
		if err != nil {
			return 0, fmt.Errorf("%w: malformed volume in amixer output", ErrMixerFailure)
		}
		return v, nil
	}
	return 0, fmt.Errorf("%w: could not find channel volume in amixer output", ErrMixerFailure)
}

// GetVolumePercent is GetVolume mapped through GetRange into 0..100,
// the representation RendererState and SoapDispatcher actually use.
func (m *HardwareMixer) GetVolumePercent(ctx context.Context) (int, error) {
	min, max, err := m.GetRange(ctx)
	if err != nil {
		return 0, err
	}
	v, err := m.GetVolume(ctx)
	if err != nil {
		return 0, err
	}
	if max == min {
		return 0, nil
	}
	pct := (v - min) * 100 / (max - min)
	return clamp(pct, 0, 100), nil
}

// SetVolumeAll writes percent (0..100) to all Playback channels of the
// selem, linearly mapped into the element's native range.
func (m *HardwareMixer) SetVolumeAll(ctx context.Context, percent int) error {
	percent = clamp(percent, 0, 100)

	min, max, err := m.GetRange(ctx)
	if err != nil {
		return err
	}
	raw := min + (percent*(max-min))/100

	if _, err := m.runner.Run(ctx, "-c", cardArg(m.card), "set", m.selemName, strconv.Itoa(raw)); err != nil {
		return fmt.Errorf("%w: set volume: %v", ErrMixerFailure, err)
	}
	return nil
}

// ListControls enumerates simple-mixer element names on the card — a
// diagnostic operation, not used on any action-dispatch path.
func (m *HardwareMixer) ListControls(ctx context.Context) ([]string, error) {
	out, err := m.runner.Run(ctx, "-c", cardArg(m.card), "controls")
	if err != nil {
		return nil, fmt.Errorf("%w: list controls: %v", ErrMixerFailure, err)
	}

	var names []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		if match := controlRe.FindStringSubmatch(scanner.Text()); match != nil {
			names = append(names, match[1])
		}
	}
	return names, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
