package metrics

import (
	"math/cmplx"
	"time"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrum is the one-sided amplitude spectrum of a uniformly sampled
// series with its mean removed.
type Spectrum struct {
	// Resolution is the width of one bin in hertz.
	Resolution float64
	Power      []float64
}

func NewSpectrum(series []float64, interval time.Duration) Spectrum {
	n := len(series)
	if n < 2 || interval <= 0 {
		return Spectrum{}
	}
	var mean float64
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range series {
		centered[i] = v - mean
	}

	out := fft.FFTReal(centered)
	power := make([]float64, n/2+1)
	for i := range power {
		power[i] = cmplx.Abs(out[i])
	}
	return Spectrum{
		Resolution: 1 / (float64(n) * interval.Seconds()),
		Power:      power,
	}
}

// Dominant returns the frequency of the strongest non-zero bin.
func (s Spectrum) Dominant() (float64, bool) {
	best, idx := 0.0, 0
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > best {
			best, idx = s.Power[i], i
		}
	}
	if idx == 0 {
		return 0, false
	}
	return float64(idx) * s.Resolution, true
}

// HeightSeries extracts one body's y coordinate from samples, along with the
// mean simulation time between samples.
func HeightSeries(samples []Sample, body int) ([]float64, time.Duration) {
	if len(samples) < 2 {
		return nil, 0
	}
	ys := make([]float64, len(samples))
	for i, sm := range samples {
		if body < len(sm.Positions) {
			ys[i] = sm.Positions[body][1]
		}
	}
	span := samples[len(samples)-1].Sim - samples[0].Sim
	return ys, span / time.Duration(len(samples)-1)
}
