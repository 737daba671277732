package fft

import (
	"math"
	"testing"

	"ledctl/pkg/testutil"
)

func TestProcessorFindsDominantFrequency(t *testing.T) {
	const sampleRate = 44100.0
	const size = 2048

	p := NewProcessor(size, sampleRate)

	samples := testutil.GenerateSineWave(size, sampleRate, 440)
	p.PushSamples(samples)
	p.Tick()

	amp440, err := p.Result().Amplitude(440)
	if err != nil {
		t.Fatalf("Amplitude(440): %v", err)
	}
	amp2000, err := p.Result().Amplitude(2000)
	if err != nil {
		t.Fatalf("Amplitude(2000): %v", err)
	}
	if amp440 <= amp2000 {
		t.Errorf("amplitude at 440Hz (%.4f) should exceed amplitude at 2000Hz (%.4f)", amp440, amp2000)
	}
}

func TestResultRejectsOutOfRangeQuery(t *testing.T) {
	p := NewProcessor(1024, 44100)
	p.PushSamples(testutil.GenerateSineWave(1024, 44100, 220))
	p.Tick()

	maxFreq := p.Result().MaxFrequency()
	if _, err := p.Result().Amplitude(maxFreq + 1); err == nil {
		t.Error("Amplitude above MaxFrequency should fail")
	}
	if _, err := p.Result().Amplitude(-1); err == nil {
		t.Error("Amplitude below zero should fail")
	}
}

func TestAverageAmplitudeMatchesPointAtZeroWidth(t *testing.T) {
	p := NewProcessor(1024, 44100)
	p.PushSamples(testutil.GenerateSineWave(1024, 44100, 330))
	p.Tick()

	point, err := p.Result().Amplitude(330)
	if err != nil {
		t.Fatalf("Amplitude: %v", err)
	}
	avg, err := p.Result().AverageAmplitude(330, 330)
	if err != nil {
		t.Fatalf("AverageAmplitude: %v", err)
	}
	if math.Abs(point-avg) > 1e-9 {
		t.Errorf("zero-width average (%.6f) should equal point query (%.6f)", avg, point)
	}
}

func TestTickNoopBeforeWindowFills(t *testing.T) {
	p := NewProcessor(1024, 44100)
	p.PushSamples(testutil.GenerateSineWave(100, 44100, 440))
	p.Tick()

	amp, err := p.Result().Amplitude(0)
	if err != nil {
		t.Fatalf("Amplitude: %v", err)
	}
	if amp != 0 {
		t.Errorf("Result should be untouched before the window fills, got %v", amp)
	}
}

func TestProcessorAllocationsPerTick(t *testing.T) {
	p := NewProcessor(2048, 44100)
	samples := testutil.GenerateSineWave(2048, 44100, 440)
	p.PushSamples(samples)
	p.Tick()

	allocs := testing.AllocsPerRun(10, func() {
		p.PushSamples(samples)
		p.Tick()
	})
	if allocs > 0 {
		t.Errorf("Tick allocates %.1f times per run, want 0", allocs)
	}
}
