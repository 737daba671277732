package pluginhost

/*
#include "abi.h"
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// GeneralPlugin is a loaded sidecar plugin that observes the spectrum
// each tick but never touches an LED strip — telemetry exporters and
// similar instrumentation. It shares loadNativeEffect's refcounted
// library lifecycle but against the general vtable instead.
type GeneralPlugin struct {
	path     string
	lib      *library
	instance unsafe.Pointer
	cache    *libraryCache
}

func loadGeneralPlugin(cache *libraryCache, path string, api *audioAPI) (*GeneralPlugin, error) {
	lib, err := cache.acquire(path, libraryKindGeneral)
	if err != nil {
		return nil, err
	}

	if lib.refs == 1 {
		C.ledctl_general_load(lib.general, api.ptr())
	}

	instance := C.ledctl_general_create(lib.general)
	if instance == nil {
		cache.release(lib)
		return nil, &LoadError{Path: path, Err: fmt.Errorf("plugin_create returned null")}
	}

	return &GeneralPlugin{path: path, lib: lib, instance: instance, cache: cache}, nil
}

// Tick runs one frame of the plugin. The plugin cached its AudioApi view
// at load and does not receive it again here.
func (g *GeneralPlugin) Tick(api AudioAPI) error {
	C.ledctl_general_tick(g.lib.general, g.instance)
	return nil
}

// Close destroys the instance and unloads the library if this was its
// last referencing instance.
func (g *GeneralPlugin) Close() error {
	C.ledctl_general_destroy(g.lib.general, g.instance)

	if g.lib.refs == 1 {
		C.ledctl_general_unload(g.lib.general)
	}
	g.cache.release(g.lib)
	return nil
}
