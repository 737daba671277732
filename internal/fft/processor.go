package fft

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"ledctl/pkg/bitint"
)

// Processor holds the sliding window, pre-allocated FFT workspace, and the
// Result its owner's tick engine refreshes each tick.
type Processor struct {
	sampleRate float64

	win       *slidingWindow
	ordered   []float64
	input     []complex128
	coeffs    []complex128
	magnitude []float64

	fftObj *fourier.CmplxFFT
	result *Result
}

// NewProcessor creates a Processor over a window of size samples (must be
// a power of two) at the given sample rate. The published spectrum has
// exactly size bins: a full complex FFT is used, rather than gonum's
// real-input half-spectrum transform, so bin count matches size exactly
// instead of size/2+1.
func NewProcessor(size int, sampleRate float64) *Processor {
	if !bitint.IsPowerOfTwo(size) {
		panic("fft: size must be a power of 2")
	}

	return &Processor{
		sampleRate: sampleRate,
		win:        newSlidingWindow(size),
		ordered:    make([]float64, size),
		input:      make([]complex128, size),
		coeffs:     make([]complex128, size),
		magnitude:  make([]float64, size),
		fftObj:     fourier.NewCmplxFFT(size),
		result:     newResult(size),
	}
}

// PushSamples feeds newly captured samples into the sliding window without
// recomputing the spectrum; the tick engine calls Tick separately, once
// per tick, regardless of how many buffers arrived in between.
func (p *Processor) PushSamples(buf []float64) {
	p.win.PushAll(buf)
}

// Result returns the processor's query surface. Safe for concurrent use
// by any number of readers while Tick runs on its own goroutine.
func (p *Processor) Result() *Result {
	return p.result
}

// Tick recomputes the spectrum from the current window contents and
// publishes it to Result. It is a no-op, leaving the prior Result in
// place, until the window has filled at least once.
func (p *Processor) Tick() {
	if !p.win.Ready() {
		return
	}

	p.win.CopyOrdered(p.ordered)
	window.Hann(p.ordered)

	for i, v := range p.ordered {
		p.input[i] = complex(v, 0)
	}
	p.fftObj.Coefficients(p.coeffs, p.input)

	n := float64(len(p.ordered))
	sqrtN := math.Sqrt(n)
	for i, c := range p.coeffs {
		mag := cmplx.Abs(c)
		p.magnitude[i] = (mag * mag) / sqrtN
	}

	// Bin k sits at k*sampleRate/n, so the last bin is at (n-1)*sampleRate/n.
	maxFrequency := p.sampleRate * (n - 1) / n
	p.result.set(p.magnitude, maxFrequency)
}
