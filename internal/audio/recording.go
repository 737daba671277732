package audio

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "ledctl/internal/log"
)

// StartRecording begins mirroring the raw capture stream to a 32-bit WAV
// file at filename, for offline debugging of what the engine actually
// heard. This is diagnostic-only: it has no effect on the spectral
// processor or anything downstream of it.
func (e *Engine) StartRecording(filename string) error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		return fmt.Errorf("audio: already recording")
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("audio: creating recording file: %w", err)
	}
	e.outputFile = file

	e.wavEncoder = wav.NewEncoder(file, int(e.sampleRate), 32, e.channels, 1)
	e.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: e.channels,
			SampleRate:  int(e.sampleRate),
		},
		Data: make([]int, e.framesPerBuffer*e.channels),
	}

	atomic.StoreInt32(&e.isRecording, 1)
	return nil
}

// StopRecording finalizes and closes the WAV file, if recording.
func (e *Engine) StopRecording() error {
	if atomic.LoadInt32(&e.isRecording) == 0 {
		return nil
	}
	atomic.StoreInt32(&e.isRecording, 0)

	if e.wavEncoder != nil {
		if err := e.wavEncoder.Close(); err != nil {
			return err
		}
		e.wavEncoder = nil
	}
	if e.outputFile != nil {
		if err := e.outputFile.Close(); err != nil {
			return err
		}
		e.outputFile = nil
	}
	return nil
}

// writeRecording appends the current raw input buffer to the WAV
// encoder. Called from the capture callback only while isRecording is set.
func (e *Engine) writeRecording() {
	for i, sample := range e.inputBuffer {
		e.sampleBuf.Data[i] = int(sample)
	}
	e.sampleBuf.Data = e.sampleBuf.Data[:len(e.inputBuffer)]

	if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
		// Logged rather than propagated: the callback runs on a
		// real-time thread and cannot return an error to the caller.
		applog.Errorf("audio: writing debug recording: %v", err)
	}
}

// Close stops any in-progress recording and the input stream.
func (e *Engine) Close() error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		if err := e.StopRecording(); err != nil {
			return err
		}
	}
	return e.Stop()
}
