package pluginhost

import (
	"ledctl/internal/color"
	"ledctl/internal/fft"
)

// Host owns the process-wide AudioApi view and the shared-library cache
// every loaded effect or general plugin draws from. Callers create one
// Host per program run.
type Host struct {
	api   *audioAPI
	cache *libraryCache
}

// New creates a Host bound to result, the spectrum plugins will query
// through their AudioApi parameter.
func New(result *fft.Result) *Host {
	return &Host{
		api:   newAudioAPI(result),
		cache: newLibraryCache(),
	}
}

// LoadNativeEffect loads (or attaches to an already-open) effect shared
// object at path and creates one instance from it.
func (h *Host) LoadNativeEffect(path string) (*NativeEffect, error) {
	return loadNativeEffect(h.cache, path, h.api)
}

// LoadScriptEffect wraps a Lua script path in the Effect interface using
// interp to evaluate it.
func (h *Host) LoadScriptEffect(path string, interp Interpreter) *ScriptEffect {
	return newScriptEffect(path, interp)
}

// LoadGeneralPlugin loads (or attaches to an already-open) general
// plugin shared object at path and creates one instance from it.
func (h *Host) LoadGeneralPlugin(path string) (*GeneralPlugin, error) {
	return loadGeneralPlugin(h.cache, path, h.api)
}

// TickEffect renders one frame of e into leds using this Host's shared
// AudioApi view, so a caller driving the tick loop never needs to build
// or hold an AudioAPI value itself.
func (h *Host) TickEffect(e Effect, leds []color.Color) error {
	return e.Tick(leds, h.api)
}

// TickGeneral runs one frame of a loaded general plugin using this
// Host's shared AudioApi view.
func (h *Host) TickGeneral(g *GeneralPlugin) error {
	return g.Tick(h.api)
}

// OpenLibraryPaths returns every shared object path currently held open,
// for a hot-reload watcher to compare against filesystem events.
func (h *Host) OpenLibraryPaths() []string {
	return h.cache.paths()
}

// Close releases the shared AudioApi view. Every loaded effect and
// general plugin must already have been closed; Close does not iterate
// them itself because ownership of running instances belongs to the
// registry, not the Host.
func (h *Host) Close() {
	h.api.close()
}
