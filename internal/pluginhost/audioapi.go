package pluginhost

/*
#include "abi.h"
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"

	"ledctl/internal/fft"
)

// AudioAPI is the spectrum query surface a running effect or general
// plugin is handed each tick. A native plugin never calls these methods
// directly — it crosses into C and back through the vtable's own
// function pointers — but a Lua interpreter or a test fake implemented
// in plain Go can satisfy this interface without touching cgo.
type AudioAPI interface {
	Amplitude(frequency float64) (float64, error)
	AverageAmplitude(low, high float64) (float64, error)
	MaxFrequency() float64
}

// audioAPI is the Go side of one ledctl_audio_api instance: a handle
// binding it to the spectral result it queries, plus a direct reference
// to that result for the Go-side AudioAPI methods below.
type audioAPI struct {
	c      *C.ledctl_audio_api
	handle cgo.Handle
	result *fft.Result
}

// newAudioAPI builds a C-ABI AudioApi view over result. One instance is
// shared across every loaded effect and general plugin for the lifetime
// of the Host that created it; it is not reallocated per tick.
func newAudioAPI(result *fft.Result) *audioAPI {
	h := cgo.NewHandle(result)
	return &audioAPI{
		c:      C.ledctl_new_audio_api(unsafe.Pointer(h)),
		handle: h,
		result: result,
	}
}

// ptr returns the C struct pointer to hand to a plugin's load call.
func (a *audioAPI) ptr() *C.ledctl_audio_api {
	return a.c
}

func (a *audioAPI) Amplitude(frequency float64) (float64, error) {
	return a.result.Amplitude(frequency)
}

func (a *audioAPI) AverageAmplitude(low, high float64) (float64, error) {
	return a.result.AverageAmplitude(low, high)
}

func (a *audioAPI) MaxFrequency() float64 {
	return a.result.MaxFrequency()
}

// close releases the handle and the backing C allocation. Call once,
// after every plugin referencing it has been destroyed.
func (a *audioAPI) close() {
	a.handle.Delete()
	C.free(unsafe.Pointer(a.c))
}

func resultFromInstance(instance unsafe.Pointer) *fft.Result {
	h := cgo.Handle(uintptr(instance))
	return h.Value().(*fft.Result)
}

//export ledctl_go_average_amplitude
func ledctl_go_average_amplitude(instance unsafe.Pointer, low, high C.double) C.double {
	result := resultFromInstance(instance)
	v, err := result.AverageAmplitude(float64(low), float64(high))
	if err != nil {
		return 0
	}
	return C.double(v)
}

//export ledctl_go_frequency_amplitude
func ledctl_go_frequency_amplitude(instance unsafe.Pointer, frequency C.double) C.double {
	result := resultFromInstance(instance)
	v, err := result.Amplitude(float64(frequency))
	if err != nil {
		return 0
	}
	return C.double(v)
}

//export ledctl_go_max_frequency
func ledctl_go_max_frequency(instance unsafe.Pointer) C.double {
	return C.double(resultFromInstance(instance).MaxFrequency())
}

//export ledctl_go_free_audio_api
func ledctl_go_free_audio_api(instance unsafe.Pointer) {
	// No-op: the AudioApi instance is owned and released by the host's
	// audioAPI.close, not by whichever plugin last touched it. This
	// export exists so the vtable's free field is never a null
	// pointer, matching the four-function shape exactly.
}
