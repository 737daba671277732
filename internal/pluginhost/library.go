package pluginhost

/*
#include <dlfcn.h>
#include <stdlib.h>
#include "abi.h"
*/
import "C"

import (
	"fmt"
	"path/filepath"
	"sync"
	"unsafe"
)

// LoadError reports a failure to open a shared object or resolve its
// expected entry point.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("pluginhost: loading %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// library is one dlopen'd shared object, shared by every effect or
// general-plugin instance created from the same file. The original
// library handle is itself refcounted so two effects backed by the same
// .so file share one dlopen and only dlclose when the last of them is
// destroyed.
type library struct {
	path    string
	handle  unsafe.Pointer
	refs    int
	kind    libraryKind
	effect  *C.ledctl_effect_vtable
	general *C.ledctl_general_vtable
}

type libraryKind int

const (
	libraryKindEffect libraryKind = iota
	libraryKindGeneral
)

// libraryCache opens each distinct path at most once and refcounts it
// across however many effect/general instances reference it.
type libraryCache struct {
	mu   sync.Mutex
	libs map[string]*library
}

func newLibraryCache() *libraryCache {
	return &libraryCache{libs: make(map[string]*library)}
}

// acquire opens path if not already open, or bumps its refcount if it
// is. kind must match any existing open of the same path — loading the
// same file as both an effect and a general plugin is a configuration
// error, not something this cache silently tolerates.
func (c *libraryCache) acquire(path string, kind libraryKind) (*library, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if lib, ok := c.libs[abs]; ok {
		if lib.kind != kind {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("already loaded as a different plugin kind")}
		}
		lib.refs++
		return lib, nil
	}

	cPath := C.CString(abs)
	defer C.free(unsafe.Pointer(cPath))

	handle := C.dlopen(cPath, C.RTLD_NOW|C.RTLD_LOCAL)
	if handle == nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("dlopen: %s", C.GoString(C.dlerror()))}
	}

	symbolName := effectEntrySymbol
	if kind == libraryKindGeneral {
		symbolName = generalEntrySymbol
	}
	cSym := C.CString(symbolName)
	defer C.free(unsafe.Pointer(cSym))

	sym := C.dlsym(handle, cSym)
	if sym == nil {
		C.dlclose(handle)
		return nil, &LoadError{Path: path, Err: fmt.Errorf("dlsym %s: %s", symbolName, C.GoString(C.dlerror()))}
	}

	lib := &library{path: abs, handle: handle, refs: 1, kind: kind}
	if kind == libraryKindEffect {
		lib.effect = C.ledctl_call_effect_entry(sym)
	} else {
		lib.general = C.ledctl_call_general_entry(sym)
	}

	c.libs[abs] = lib
	return lib, nil
}

// release drops one reference to lib, dlclose-ing it once the last
// reference is gone. Callers must have already destroyed any plugin
// instance created from lib and called its unload hook — calling
// release before that would unmap code the instance's destroy still
// needs to run.
func (c *libraryCache) release(lib *library) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lib.refs--
	if lib.refs > 0 {
		return
	}

	C.dlclose(lib.handle)
	delete(c.libs, lib.path)
}

// paths returns every currently open library path, for hot-reload
// batching by path.
func (c *libraryCache) paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.libs))
	for p := range c.libs {
		out = append(out, p)
	}
	return out
}
