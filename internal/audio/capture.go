// SPDX-License-Identifier: MIT
//
// Package audio implements real-time audio capture over PortAudio,
// feeding a bounded sample ring that a spectral processor drains on its
// own schedule.
package audio

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"

	applog "ledctl/internal/log"
)

// StartError wraps a failure to open or start the capture stream after
// all retries have been exhausted.
type StartError struct {
	Attempts int
	Err      error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("audio: failed to start capture after %d attempts: %v", e.Attempts, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// Engine owns the PortAudio input stream and converts raw interleaved
// int32 samples into normalized mono float64 chunks pushed onto a
// sampleRing, with an optional raw-capture-to-WAV debug recording hook.
type Engine struct {
	deviceID        int
	channels        int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool

	inputDevice *portaudio.DeviceInfo
	inputStream *portaudio.Stream

	inputBuffer []int32
	monoBuffer  []float64
	ring        *sampleRing

	isRecording int32
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer
}

// EngineConfig is the set of parameters NewEngine needs to open a stream.
type EngineConfig struct {
	DeviceID        int
	Channels        int
	SampleRate      float64
	FramesPerBuffer int
	LowLatency      bool
	RingCapacity    int
}

// NewEngine resolves the requested input device and prepares (but does
// not start) a capture stream.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.DeviceID)
	if err != nil {
		return nil, err
	}

	ringCapacity := cfg.RingCapacity
	if ringCapacity <= 0 {
		ringCapacity = 64
	}

	e := &Engine{
		deviceID:        cfg.DeviceID,
		channels:        cfg.Channels,
		sampleRate:      cfg.SampleRate,
		framesPerBuffer: cfg.FramesPerBuffer,
		lowLatency:      cfg.LowLatency,
		inputDevice:     inputDevice,
		inputBuffer:     make([]int32, cfg.FramesPerBuffer*cfg.Channels),
		monoBuffer:      make([]float64, cfg.FramesPerBuffer),
		ring:            newSampleRing(ringCapacity),
	}
	return e, nil
}

// Ring returns the bounded queue of captured sample chunks for a
// consumer to Drain.
func (e *Engine) Ring() *sampleRing {
	return e.ring
}

func (e *Engine) latency() time.Duration {
	if e.lowLatency {
		return e.inputDevice.DefaultLowInputLatency
	}
	return e.inputDevice.DefaultHighInputLatency
}

// Start opens and starts the input stream, retrying with exponential
// backoff (base 250ms, 3 attempts total) before giving up. Devices
// frequently aren't ready the instant a process starts — especially USB
// audio interfaces still enumerating — so a single failed open is not
// treated as fatal.
func (e *Engine) Start() error {
	const maxAttempts = 3
	const baseDelay = 250 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := e.startOnce(); err != nil {
			lastErr = err
			applog.Warnf("audio: start attempt %d/%d failed: %v", attempt, maxAttempts, err)
			if attempt < maxAttempts {
				time.Sleep(baseDelay * time.Duration(int(math.Pow(2, float64(attempt-1)))))
			}
			continue
		}
		return nil
	}
	return &StartError{Attempts: maxAttempts, Err: lastErr}
}

func (e *Engine) startOnce() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.channels,
			Device:   e.inputDevice,
			Latency:  e.latency(),
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0,
			Device:   nil,
		},
		FramesPerBuffer: e.framesPerBuffer,
		SampleRate:      e.sampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}
	e.inputStream = stream
	return nil
}

// Stop stops and closes the input stream. Safe to call on an Engine that
// was never started.
func (e *Engine) Stop() error {
	if e.inputStream == nil {
		return nil
	}
	if err := e.inputStream.Stop(); err != nil {
		return err
	}
	if err := e.inputStream.Close(); err != nil {
		return err
	}
	e.inputStream = nil
	return nil
}

// processInputStream is the PortAudio callback: it runs on a dedicated
// OS thread. Each call copies the downmixed chunk into the ring, which
// allocates one slice and briefly takes the ring's mutex.
func (e *Engine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(e.inputBuffer, in)
	e.downmix()
	e.ring.Push(e.monoBuffer)

	if atomic.LoadInt32(&e.isRecording) == 1 && e.wavEncoder != nil {
		e.writeRecording()
	}
}

// downmix converts the interleaved int32 capture buffer into a single
// normalized float64 channel for the spectral processor.
func (e *Engine) downmix() {
	if e.channels == 1 {
		for i, s := range e.inputBuffer {
			e.monoBuffer[i] = float64(s) / math.MaxInt32
		}
		return
	}
	for i := range e.framesPerBuffer {
		idx := i * e.channels
		if idx < len(e.inputBuffer) {
			e.monoBuffer[i] = float64(e.inputBuffer[idx]) / math.MaxInt32
		} else {
			e.monoBuffer[i] = 0
		}
	}
}
