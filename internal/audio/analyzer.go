package audio

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Frequency band boundaries in Hz.
const (
	bassCutoff = 250.0
	midsCutoff = 4000.0
)

// Analyzer computes instantaneous frequency-band envelopes from a track's
// interleaved stereo samples. The same query at the same time always yields
// the same result.
type Analyzer struct {
	fftSize    int
	sampleRate int
	fft        *fourier.FFT
	window     []float64
}

// NewAnalyzer creates an analyzer with the given FFT window size.
func NewAnalyzer(fftSize, sampleRate int) *Analyzer {
	window := make([]float64, fftSize)
	for i := range window {
		// Hann window
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}
	return &Analyzer{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		fft:        fourier.NewFFT(fftSize),
		window:     window,
	}
}

// Spectrum returns normalized magnitudes for the FFT window starting at time
// t into the track. Samples past the end of the track read as silence.
func (a *Analyzer) Spectrum(samples []float32, t float64) []float64 {
	startFrame := int(t * float64(a.sampleRate))
	frameCount := len(samples) / 2

	seq := make([]float64, a.fftSize)
	for i := 0; i < a.fftSize; i++ {
		frame := startFrame + i
		if frame < 0 || frame >= frameCount {
			continue
		}
		mono := float64(samples[frame*2]+samples[frame*2+1]) / 2
		seq[i] = mono * a.window[i]
	}

	coeffs := a.fft.Coefficients(nil, seq)
	norm := float64(a.fftSize) / 4 // Hann window halves the coherent gain
	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mags[i] = cmplxAbs(c) / norm
	}
	return mags
}

// Band returns the normalized [0,1] envelope of the named frequency band
// ("bass", "mids" or "highs") at time t. Unknown bands and silent or ended
// tracks yield 0.
func (a *Analyzer) Band(samples []float32, t float64, band string) float64 {
	var lo, hi float64
	switch band {
	case "bass":
		lo, hi = 20, bassCutoff
	case "mids":
		lo, hi = bassCutoff, midsCutoff
	case "highs":
		lo, hi = midsCutoff, float64(a.sampleRate) / 2
	default:
		return 0
	}
	return a.energy(samples, t, lo, hi)
}

// Bass is shorthand for Band(samples, t, "bass").
func (a *Analyzer) Bass(samples []float32, t float64) float64 {
	return a.Band(samples, t, "bass")
}

// Mids is shorthand for Band(samples, t, "mids").
func (a *Analyzer) Mids(samples []float32, t float64) float64 {
	return a.Band(samples, t, "mids")
}

// Highs is shorthand for Band(samples, t, "highs").
func (a *Analyzer) Highs(samples []float32, t float64) float64 {
	return a.Band(samples, t, "highs")
}

func (a *Analyzer) energy(samples []float32, t, loHz, hiHz float64) float64 {
	if len(samples) == 0 || hiHz <= loHz {
		return 0
	}
	mags := a.Spectrum(samples, t)
	binHz := float64(a.sampleRate) / float64(a.fftSize)

	loBin := int(loHz / binHz)
	hiBin := int(hiHz / binHz)
	if hiBin > len(mags) {
		hiBin = len(mags)
	}
	if loBin >= hiBin {
		return 0
	}

	sum := 0.0
	for i := loBin; i < hiBin; i++ {
		sum += mags[i]
	}
	avg := sum / float64(hiBin-loBin)

	// A full-scale sine concentrates its energy in one bin, so the band
	// average is small; scale before clamping to [0,1].
	e := avg * 8
	if e > 1 {
		e = 1
	}
	return e
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
