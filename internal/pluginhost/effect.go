package pluginhost

/*
#include "abi.h"
*/
import "C"

import (
	"fmt"
	"unsafe"

	"ledctl/internal/color"
)

// RuntimeError wraps a failure surfaced while running a loaded effect or
// general plugin after it was successfully created; these are absorbed
// and logged by the caller rather than treated as fatal, since one
// misbehaving effect shouldn't take the whole tick engine down.
type RuntimeError struct {
	Path string
	Op   string
	Err  error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("pluginhost: %s on %s: %v", e.Op, e.Path, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// Effect is anything that can render into a strip segment on each tick.
// NativeEffect and ScriptEffect are its two tagged variants.
type Effect interface {
	Tick(leds []color.Color, api AudioAPI) error
	Close() error
}

// NativeEffect is one plugin_create'd instance backed by a dlopen'd
// shared object's effect vtable. Library load/unload is refcounted
// separately in library.go; destroying the last NativeEffect sharing a
// library triggers that library's unload() and dlclose, in that order —
// never the reverse, since unload may invalidate memory tick still
// holds a pointer into.
type NativeEffect struct {
	path     string
	lib      *library
	instance unsafe.Pointer
	cache    *libraryCache
}

// loadNativeEffect opens (or reuses) the shared object at path, calling
// its load() hook the first time the library is opened, then creates an
// instance via plugin_create. api is always this package's concrete
// audioAPI in practice (only Host constructs one), never a test fake.
func loadNativeEffect(cache *libraryCache, path string, api *audioAPI) (*NativeEffect, error) {
	lib, err := cache.acquire(path, libraryKindEffect)
	if err != nil {
		return nil, err
	}

	if lib.refs == 1 {
		C.ledctl_effect_load(lib.effect, api.ptr())
	}

	instance := C.ledctl_effect_create(lib.effect)
	if instance == nil {
		cache.release(lib)
		return nil, &LoadError{Path: path, Err: fmt.Errorf("plugin_create returned null")}
	}

	return &NativeEffect{path: path, lib: lib, instance: instance, cache: cache}, nil
}

// Tick renders one frame of the effect into leds. The plugin was handed
// its AudioApi view once already, at load, and is expected to have
// cached it; api is accepted here only to satisfy the Effect interface
// and is not passed across the C boundary again.
func (e *NativeEffect) Tick(leds []color.Color, api AudioAPI) error {
	if len(leds) == 0 {
		return nil
	}
	cLeds := (*C.ledctl_color)(unsafe.Pointer(&leds[0]))
	C.ledctl_effect_tick(e.lib.effect, e.instance, cLeds, C.uintptr_t(len(leds)))
	return nil
}

// Close destroys the instance and, if this was the last instance
// referencing the shared library, unloads and closes it.
func (e *NativeEffect) Close() error {
	C.ledctl_effect_destroy(e.lib.effect, e.instance)

	willUnload := e.lib.refs == 1
	if willUnload {
		C.ledctl_effect_unload(e.lib.effect)
	}
	e.cache.release(e.lib)
	return nil
}

// ScriptEffect is the Lua-backed variant named by settings with a
// "Lua" key. Script evaluation itself is delegated to an Interpreter
// supplied by the caller; this type only adapts that interpreter to the
// Effect interface so the registry can treat native and scripted
// effects identically.
type ScriptEffect struct {
	path        string
	interpreter Interpreter
}

// Interpreter evaluates a Lua effect script once per tick. Its
// implementation lives outside this package; ledctl ships no embedded
// Lua runtime of its own, so scripted effects are only ever driven
// through whatever Interpreter the caller supplies.
type Interpreter interface {
	Tick(scriptPath string, leds []color.Color, api AudioAPI) error
	Close(scriptPath string) error
}

func newScriptEffect(path string, interp Interpreter) *ScriptEffect {
	return &ScriptEffect{path: path, interpreter: interp}
}

func (s *ScriptEffect) Tick(leds []color.Color, api AudioAPI) error {
	if s.interpreter == nil {
		return &RuntimeError{Path: s.path, Op: "tick", Err: fmt.Errorf("no Lua interpreter configured")}
	}
	return s.interpreter.Tick(s.path, leds, api)
}

func (s *ScriptEffect) Close() error {
	if s.interpreter == nil {
		return nil
	}
	return s.interpreter.Close(s.path)
}
