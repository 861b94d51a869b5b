package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// PowerSpectrum returns the one-sided power spectrum of a real series sampled
// every dt. The mean is removed and a Hann window applied first. Frequencies
// are angular, so in internal time units they read directly as energies in eV.
func PowerSpectrum(series []float64, dt float64) (omega, power []float64) {
	n := len(series)
	if n < 2 || !(dt > 0) {
		return nil, nil
	}

	mean := floats.Sum(series) / float64(n)
	frame := make([]float64, n)
	for i, v := range series {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		frame[i] = (v - mean) * w
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, frame)

	omega = make([]float64, len(coeffs))
	power = make([]float64, len(coeffs))
	for i, c := range coeffs {
		omega[i] = 2 * math.Pi * fft.Freq(i) / dt
		a := cmplx.Abs(c)
		power[i] = a * a
	}
	return omega, power
}

// DominantFrequency returns the angular frequency carrying the most power,
// ignoring the DC bin. It is zero for constant or too-short series.
func DominantFrequency(series []float64, dt float64) float64 {
	omega, power := PowerSpectrum(series, dt)
	if len(power) < 2 {
		return 0
	}
	best := floats.MaxIdx(power[1:]) + 1
	if power[best] == 0 {
		return 0
	}
	return omega[best]
}
