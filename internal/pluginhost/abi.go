// SPDX-License-Identifier: MIT
//
// Package pluginhost loads native effect and general-purpose plugins from
// shared objects and drives them through a small C vtable ABI. Go's
// standard `plugin` package can open a shared object but never close it,
// which makes an observable unload impossible; this package wraps
// dlopen/dlsym/dlclose directly so a reloaded effect's old code is
// actually evicted from the process.
package pluginhost

/*
#cgo LDFLAGS: -ldl
#include "abi.h"

static ledctl_effect_vtable* ledctl_call_effect_entry(void* sym) {
	return ((ledctl_effect_entry_fn)sym)();
}

static ledctl_general_vtable* ledctl_call_general_entry(void* sym) {
	return ((ledctl_general_entry_fn)sym)();
}

static void* ledctl_effect_create(ledctl_effect_vtable* vt) {
	return vt->plugin_create();
}

static void ledctl_effect_destroy(ledctl_effect_vtable* vt, void* instance) {
	vt->plugin_destroy(instance);
}

static void ledctl_effect_tick(ledctl_effect_vtable* vt, void* instance,
	ledctl_color* leds, uintptr_t led_count) {
	vt->tick(instance, leds, led_count);
}

static void ledctl_effect_load(ledctl_effect_vtable* vt, ledctl_audio_api* api) {
	vt->load(api);
}

static void ledctl_effect_unload(ledctl_effect_vtable* vt) {
	vt->unload();
}

static void* ledctl_general_create(ledctl_general_vtable* vt) {
	return vt->plugin_create();
}

static void ledctl_general_destroy(ledctl_general_vtable* vt, void* instance) {
	vt->plugin_destroy(instance);
}

static void ledctl_general_tick(ledctl_general_vtable* vt, void* instance) {
	vt->tick(instance);
}

static void ledctl_general_load(ledctl_general_vtable* vt, ledctl_audio_api* api) {
	vt->load(api);
}

static void ledctl_general_unload(ledctl_general_vtable* vt) {
	vt->unload();
}
*/
import "C"

// effectEntrySymbol is the single exported symbol every native effect
// shared object must provide: a zero-argument function returning a
// pointer to a static ledctl_effect_vtable.
const effectEntrySymbol = "ledctl_effect_vtable"

// generalEntrySymbol is the analogous entry point for general plugins.
const generalEntrySymbol = "ledctl_general_vtable"
