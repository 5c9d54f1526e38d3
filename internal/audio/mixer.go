package audio

import (
	"github.com/ivlev/director/internal/anim"
)

// Track is a mixer-resident audio track: decoded interleaved stereo PCM at
// the mixer's sample rate, placed on the movie timeline.
type Track struct {
	ID      string
	Samples []float32
	Volume  *anim.Value
	// Start offset in global movie seconds.
	Start float64
	// Duration clips playback; 0 means the track's natural length.
	Duration float64
	Loop     bool
}

// Mixer owns every audio track exclusively. Tracks are referenced externally
// by integer index only; indices are assigned once and never reused, so the
// decode/resample cost is paid exactly once per track.
type Mixer struct {
	SampleRate int
	tracks     []*Track
}

// NewMixer creates a mixer at the project sample rate.
func NewMixer(sampleRate int) *Mixer {
	return &Mixer{SampleRate: sampleRate}
}

// Add appends a track and returns its index.
func (m *Mixer) Add(t *Track) int {
	if t.Volume == nil {
		t.Volume = anim.New(1.0)
	}
	m.tracks = append(m.tracks, t)
	return len(m.tracks) - 1
}

// Track returns the track at index, or nil when the index is unknown.
func (m *Mixer) Track(index int) *Track {
	if index < 0 || index >= len(m.tracks) {
		return nil
	}
	return m.tracks[index]
}

// Len returns the number of registered tracks.
func (m *Mixer) Len() int { return len(m.tracks) }

// Mix sums every active track's contribution for the window starting at
// start seconds, frames stereo frames long, into an interleaved stereo
// buffer. Tracks outside their time window contribute silence; looped tracks
// wrap their playback position. Tracks are mixed sequentially, but the sum
// is independent of track order up to floating-point rounding. The result is
// clamped to [-1, 1].
func (m *Mixer) Mix(start float64, frames int) []float32 {
	out := make([]float32, frames*2)
	dt := 1.0 / float64(m.SampleRate)

	for _, track := range m.tracks {
		frameCount := len(track.Samples) / 2
		if frameCount == 0 {
			continue
		}
		vol := float32(track.Volume.ValueAt(start))

		for i := 0; i < frames; i++ {
			t := start + float64(i)*dt
			rel := t - track.Start
			if rel < 0 {
				continue
			}
			if track.Duration > 0 && rel >= track.Duration {
				continue
			}

			idx := int(rel * float64(m.SampleRate))
			if track.Loop {
				idx %= frameCount
			} else if idx >= frameCount {
				continue
			}

			out[i*2] += track.Samples[idx*2] * vol
			out[i*2+1] += track.Samples[idx*2+1] * vol
		}
	}

	for i, s := range out {
		if s > 1 {
			out[i] = 1
		} else if s < -1 {
			out[i] = -1
		}
	}
	return out
}
