// Package spectral computes the fixed time-frequency representation
// the classifier consumes: a mel-scaled power spectrogram with the
// exact analysis parameters the model was trained with.
package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Config fixes the analysis geometry. Changing any field invalidates
// the trained classifier, so callers should stick to Default.
type Config struct {
	SampleRate int
	NFFT       int
	WinLength  int
	HopLength  int
	NMels      int
}

func Default() Config {
	return Config{
		SampleRate: 16000,
		NFFT:       400,
		WinLength:  400,
		HopLength:  160,
		NMels:      80,
	}
}

// Transform is an immutable mel spectrogram operator. Construct once,
// share freely: Compute allocates its own scratch per call.
type Transform struct {
	cfg    Config
	window []float64
	fbank  [][]float64 // NMels x (NFFT/2 + 1)
}

func New(cfg Config) (*Transform, error) {
	if cfg.NFFT <= 0 || cfg.HopLength <= 0 || cfg.NMels <= 0 || cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("spectral: invalid config %+v", cfg)
	}
	if cfg.WinLength > cfg.NFFT {
		return nil, fmt.Errorf("spectral: window %d longer than fft size %d", cfg.WinLength, cfg.NFFT)
	}
	return &Transform{
		cfg:    cfg,
		window: hann(cfg.WinLength),
		fbank:  melFilterbank(cfg),
	}, nil
}

func (t *Transform) Mels() int { return t.cfg.NMels }

// Steps reports the number of analysis frames for a waveform of n
// samples (center-padded framing).
func (t *Transform) Steps(n int) int { return 1 + n/t.cfg.HopLength }

// Compute returns the mel power spectrogram, NMels rows by Steps(len)
// columns. The waveform must cover at least one analysis window.
func (t *Transform) Compute(wave []float32) ([][]float64, error) {
	if len(wave) < t.cfg.WinLength {
		return nil, fmt.Errorf("spectral: waveform of %d samples shorter than window %d", len(wave), t.cfg.WinLength)
	}

	cfg := t.cfg
	pad := cfg.NFFT / 2
	padded := reflectPad(wave, pad)
	steps := t.Steps(len(wave))
	bins := cfg.NFFT/2 + 1

	fft := fourier.NewFFT(cfg.NFFT)
	frame := make([]float64, cfg.NFFT)
	coeff := make([]complex128, bins)
	power := make([]float64, bins)

	out := make([][]float64, cfg.NMels)
	for m := range out {
		out[m] = make([]float64, steps)
	}

	for s := 0; s < steps; s++ {
		off := s * cfg.HopLength
		for i := 0; i < cfg.WinLength; i++ {
			frame[i] = padded[off+i] * t.window[i]
		}
		for i := cfg.WinLength; i < cfg.NFFT; i++ {
			frame[i] = 0
		}
		fft.Coefficients(coeff, frame)
		for k := 0; k < bins; k++ {
			re, im := real(coeff[k]), imag(coeff[k])
			power[k] = re*re + im*im
		}
		for m := 0; m < cfg.NMels; m++ {
			var acc float64
			for k := 0; k < bins; k++ {
				acc += t.fbank[m][k] * power[k]
			}
			out[m][s] = acc
		}
	}
	return out, nil
}

// hann is the periodic Hann window.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}

// reflectPad mirrors pad samples on both ends without repeating the
// edge sample.
func reflectPad(wave []float32, pad int) []float64 {
	n := len(wave)
	out := make([]float64, n+2*pad)
	for i := 0; i < pad; i++ {
		j := pad - i
		if j >= n {
			j = n - 1
		}
		out[i] = float64(wave[j])
	}
	for i := 0; i < n; i++ {
		out[pad+i] = float64(wave[i])
	}
	for i := 0; i < pad; i++ {
		j := n - 2 - i
		if j < 0 {
			j = 0
		}
		out[pad+n+i] = float64(wave[j])
	}
	return out
}

// melFilterbank builds triangular filters on the HTK mel scale from 0
// to Nyquist, one row per mel band over the FFT bins.
func melFilterbank(cfg Config) [][]float64 {
	bins := cfg.NFFT/2 + 1
	fMax := float64(cfg.SampleRate) / 2

	binFreqs := make([]float64, bins)
	for k := range binFreqs {
		binFreqs[k] = fMax * float64(k) / float64(bins-1)
	}

	melMin, melMax := hzToMel(0), hzToMel(fMax)
	pts := make([]float64, cfg.NMels+2)
	for i := range pts {
		m := melMin + (melMax-melMin)*float64(i)/float64(cfg.NMels+1)
		pts[i] = melToHz(m)
	}

	fb := make([][]float64, cfg.NMels)
	for m := 0; m < cfg.NMels; m++ {
		fb[m] = make([]float64, bins)
		lo, center, hi := pts[m], pts[m+1], pts[m+2]
		for k, f := range binFreqs {
			var w float64
			switch {
			case f <= lo || f >= hi:
				w = 0
			case f <= center:
				w = (f - lo) / (center - lo)
			default:
				w = (hi - f) / (hi - center)
			}
			if w > 0 {
				fb[m][k] = w
			}
		}
	}
	return fb
}

func hzToMel(f float64) float64 { return 2595 * math.Log10(1+f/700) }
func melToHz(m float64) float64 { return 700 * (math.Pow(10, m/2595) - 1) }
