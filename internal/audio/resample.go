package audio

import (
	"errors"
	"math"
)

var (
	// ErrEmptyInput is returned when there are no samples to process.
	ErrEmptyInput = errors.New("audio: empty input")
	// ErrBadRate is returned for a zero or negative sample rate.
	ErrBadRate = errors.New("audio: invalid sample rate")
)

// Resample converts interleaved stereo PCM from sourceRate to targetRate
// using linear interpolation. Channel interleaving and approximate amplitude
// are preserved. Output length is round(frames * target/source) frames.
func Resample(samples []float32, sourceRate, targetRate int) ([]float32, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyInput
	}
	if sourceRate <= 0 || targetRate <= 0 {
		return nil, ErrBadRate
	}
	if sourceRate == targetRate {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out, nil
	}

	srcFrames := len(samples) / 2
	ratio := float64(sourceRate) / float64(targetRate)
	dstFrames := int(math.Round(float64(srcFrames) / ratio))
	out := make([]float32, 0, dstFrames*2)

	for i := 0; i < dstFrames; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := float32(pos - float64(idx))

		if idx >= srcFrames {
			out = append(out, 0, 0)
			continue
		}

		l1 := samples[idx*2]
		r1 := samples[idx*2+1]
		l2, r2 := l1, r1
		if idx+1 < srcFrames {
			l2 = samples[(idx+1)*2]
			r2 = samples[(idx+1)*2+1]
		}

		out = append(out, l1+(l2-l1)*frac, r1+(r2-r1)*frac)
	}
	return out, nil
}
