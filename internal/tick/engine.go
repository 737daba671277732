// SPDX-License-Identifier: MIT
//
// Package tick drives the pipeline at a fixed cadence: drain captured
// audio into the spectral processor, check for hot-reloaded plugins,
// render every LED strip segment, and ship the result to its device.
package tick

import (
	"time"

	"ledctl/internal/audio"
	"ledctl/internal/diag"
	"ledctl/internal/fft"
	applog "ledctl/internal/log"
	"ledctl/internal/registry"
	"ledctl/internal/reload"
)

// Period is the target tick cadence. 60Hz matches the refresh rate most
// addressable LED protocols and consuming effects are tuned for.
const Period = time.Second / 60

// Engine couples audio capture, the spectral processor, the effect
// registry, and the hot-reload watcher into one fixed-rate loop.
type Engine struct {
	period     time.Duration
	configPath string
	capture    *audio.Engine
	proc       *fft.Processor
	ctl        *registry.Controller
	watcher    *reload.Watcher
	diag       *diag.Broadcaster // optional; nil disables snapshot publishing
}

// New builds a tick Engine from its already-constructed collaborators.
// configPath is the canonicalized settings-file path: when watcher
// reports it changed, Run returns early so main can reload the whole
// pipeline instead of treating it as a plugin hot-reload.
// diagBroadcaster may be nil.
func New(configPath string, capture *audio.Engine, proc *fft.Processor, ctl *registry.Controller, watcher *reload.Watcher, diagBroadcaster *diag.Broadcaster) *Engine {
	return &Engine{
		period:     Period,
		configPath: configPath,
		capture:    capture,
		proc:       proc,
		ctl:        ctl,
		watcher:    watcher,
		diag:       diagBroadcaster,
	}
}

// Run drives the tick loop until quit is closed or the settings file
// changes. It implements the lag-accumulator pacing described for the
// tick engine: a tick that runs long shortens the following sleep rather
// than letting drift accumulate, so average throughput tracks wall-clock
// time even under load. configChanged reports which of the two caused
// the return.
func (e *Engine) Run(quit <-chan struct{}) (configChanged bool) {
	var lag time.Duration
	lastStart := time.Now()

	for {
		select {
		case <-quit:
			return false
		default:
		}

		now := time.Now()
		lag += now.Sub(lastStart)
		lastStart = now

		if sleep := e.period - lag; sleep > 0 {
			time.Sleep(sleep)
		}

		for _, chunk := range e.capture.Ring().Drain() {
			e.proc.PushSamples(chunk)
		}
		e.proc.Tick()

		if done := e.checkReload(); done {
			return true
		}

		for _, err := range e.ctl.UpdateLedStrips() {
			applog.Warnf("tick: effect: %v", err)
		}
		e.ctl.SendLedStripColors()
		for _, err := range e.ctl.TickGeneralPlugins() {
			applog.Warnf("tick: general plugin: %v", err)
		}

		if e.diag != nil {
			e.diag.Push(e.snapshot(lag, e.capture.Ring().Dropped()))
		}

		lag -= e.period
	}
}

// checkReload drains pending watcher events, routing the settings file
// itself to a whole-pipeline reload and everything else to the
// registry's per-path effect reload.
func (e *Engine) checkReload() (configChanged bool) {
	changed := e.watcher.PollChanged()
	if len(changed) == 0 {
		return false
	}

	var effectPaths []string
	for _, p := range changed {
		if p == e.configPath {
			configChanged = true
			continue
		}
		effectPaths = append(effectPaths, p)
	}

	if len(effectPaths) > 0 {
		for _, err := range e.ctl.CheckHotReload(effectPaths, nil) {
			applog.Warnf("tick: hot reload: %v", err)
		}
	}
	return configChanged
}

func (e *Engine) snapshot(lag time.Duration, dropped uint64) diag.Snapshot {
	result := e.proc.Result()
	return diag.Snapshot{
		TickLagMillis: float64(lag) / float64(time.Millisecond),
		Bins:          result.Bins(),
		MaxFrequency:  result.MaxFrequency(),
		StripCount:    e.ctl.StripCount(),
		DroppedChunks: dropped,
	}
}
