// SPDX-License-Identifier: MIT
package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"ledctl/cmd"
	"ledctl/internal/audio"
	"ledctl/internal/build"
	"ledctl/internal/config"
	"ledctl/internal/device"
	"ledctl/internal/diag"
	"ledctl/internal/fft"
	applog "ledctl/internal/log"
	"ledctl/internal/pluginhost"
	"ledctl/internal/registry"
	"ledctl/internal/reload"
	"ledctl/internal/tick"
)

// fftSize is the sliding window length (N_fft). Fixed per run.
const fftSize = 1024

// captureFramesPerBuffer is how many frames PortAudio hands the capture
// callback at a time; smaller buffers mean lower latency into the ring.
const captureFramesPerBuffer = 512

// diagnosticsAddr is where the push-only telemetry feed listens.
const diagnosticsAddr = ":8090"

// The program flow has three phases:
//
// 1. Startup (cold path): parse args, initialize PortAudio.
// 2. Pipeline (hot path): load settings, wire the registry, run the tick
//    engine until it returns for a quit signal or a settings-file change.
// 3. Shutdown (cold path): on quit, terminate PortAudio and exit; on a
//    settings change, loop back into phase 2.
func main() {
	if err := build.Initialize(); err != nil {
		applog.Warnf("main: build info unavailable: %v", err)
	}

	args, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("main: %v", err)
	}

	if err := audio.Initialize(); err != nil {
		applog.Fatalf("main: failed to initialize audio backend: %v", err)
	}
	defer func() {
		if err := audio.Terminate(); err != nil {
			applog.Errorf("main: failed to terminate audio backend cleanly: %v", err)
		}
	}()

	quit := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		applog.Infof("main: shutdown signal received")
		close(quit)
	}()

	for {
		configChanged, err := runPipeline(args.SettingsFile, quit)
		if err != nil {
			applog.Fatalf("main: %v", err)
		}
		if !configChanged {
			applog.Infof("main: shutting down")
			return
		}
		applog.Infof("main: settings file changed, reloading pipeline")
	}
}

// runPipeline loads the settings file, wires every collaborator the
// tick engine needs, and runs the tick loop until it returns. Every
// resource it opens is torn down, in dependency order, before it
// returns — so a settings-file reload starts the next iteration from a
// clean slate.
func runPipeline(settingsFile string, quit <-chan struct{}) (configChanged bool, err error) {
	cfg, err := config.Load(settingsFile)
	if err != nil {
		return false, err
	}

	deviceID := audio.DefaultDeviceID
	if cfg.DeviceName != nil {
		id, err := audio.DeviceIDByName(*cfg.DeviceName)
		if err != nil {
			return false, err
		}
		deviceID = id
	}

	capture, err := audio.NewEngine(audio.EngineConfig{
		DeviceID:        deviceID,
		Channels:        1,
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: captureFramesPerBuffer,
		LowLatency:      true,
	})
	if err != nil {
		return false, err
	}
	if err := capture.Start(); err != nil {
		return false, err
	}
	defer func() {
		if err := capture.Stop(); err != nil {
			applog.Errorf("main: failed to stop capture cleanly: %v", err)
		}
	}()

	proc := fft.NewProcessor(fftSize, float64(cfg.SampleRate))
	host := pluginhost.New(proc.Result())
	defer host.Close()

	ctl := registry.New(host)
	wireRegistry(ctl, cfg)
	defer ctl.Close()

	watcher, err := reload.New()
	if err != nil {
		return false, err
	}
	defer watcher.Close()

	absSettings, err := filepath.Abs(settingsFile)
	if err != nil {
		return false, err
	}
	watchPipeline(watcher, absSettings, cfg, ctl)

	diagBroadcaster := diag.NewBroadcaster(diagnosticsAddr)
	diagBroadcaster.Start()
	defer diagBroadcaster.Close()

	engine := tick.New(absSettings, capture, proc, ctl, watcher, diagBroadcaster)
	return engine.Run(quit), nil
}

// wireRegistry populates ctl from cfg: settings, device connections, LED
// strips, effects, segment assignments, and general plugins, in the
// order each needs its dependencies to already exist. A single bad
// entry is logged and skipped rather than aborting the whole load —
// most of a settings file should still come up even if one effect path
// is wrong.
func wireRegistry(ctl *registry.Controller, cfg *config.Config) {
	for _, s := range cfg.EffectSettings {
		kind := registry.SettingKindNative
		if s.Kind == config.SettingKindLua {
			kind = registry.SettingKindLua
		}
		ctl.AddSettings(s.ID, registry.Settings{Kind: kind, Lua: s.LuaBlob})
	}

	for _, d := range cfg.Devices {
		conn := device.Connection{Kind: device.KindUSB}
		if d.Kind == config.ConnectionKindTCP {
			conn = device.Connection{Kind: device.KindTCP, Addr: d.TCPAddr}
		}
		ctl.AddConnection(d.ID, conn)
	}

	for _, ls := range cfg.LedStrips {
		ctl.AddLedStrip(ls.ID, ls.Size)
		if err := ctl.LinkLedStripToConnection(ls.ID, ls.ConnectionID); err != nil {
			applog.Warnf("main: ledstrip %d: %v", ls.ID, err)
		}
	}

	for _, e := range cfg.Effects {
		native := e.Kind == config.EffectKindNative
		path := e.Path
		if !native {
			path = filepath.Join(cfg.LuaEffectsFolder, e.Path)
		}
		if err := ctl.AddEffect(e.EffectID, e.SettingsID, path, native, nil); err != nil {
			applog.Errorf("main: effect %d: %v", e.EffectID, err)
		}
	}

	for _, ls := range cfg.LedStrips {
		for _, eff := range ls.Effects {
			ok, err := ctl.AssignEffectToLedStrip(ls.ID, eff.EffectID, eff.EffectSize)
			if err != nil {
				applog.Warnf("main: ledstrip %d: %v", ls.ID, err)
				continue
			}
			if !ok {
				applog.Warnf("main: ledstrip %d: effect %d would overflow the strip, skipped", ls.ID, eff.EffectID)
			}
		}
	}

	for _, path := range cfg.GeneralPlugins {
		if err := ctl.AddGeneralPlugin(path); err != nil {
			applog.Errorf("main: general plugin %s: %v", path, err)
		}
	}
}

// watchPipeline registers every path the hot-reload watcher needs: the
// settings file itself (non-recursive: it's a single file), the
// script-effect root, and the containing directory of every loaded
// native shared object — both watched recursively, since effects and
// their supporting files may live in nested subdirectories.
func watchPipeline(watcher *reload.Watcher, absSettings string, cfg *config.Config, ctl *registry.Controller) {
	if err := watcher.Watch(absSettings, false); err != nil {
		applog.Warnf("main: watching settings file: %v", err)
	}
	if cfg.LuaEffectsFolder != "" {
		if err := watcher.Watch(cfg.LuaEffectsFolder, true); err != nil {
			applog.Warnf("main: watching lua effects folder: %v", err)
		}
	}

	seen := make(map[string]bool)
	for _, path := range ctl.WatchedPaths() {
		dir := filepath.Dir(path)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := watcher.Watch(dir, true); err != nil {
			applog.Warnf("main: watching %s: %v", dir, err)
		}
	}
}
