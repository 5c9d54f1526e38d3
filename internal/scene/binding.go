package scene

// AudioBinding maps a frequency-band envelope of an audio track to a node
// property. The track reference is resolved to a mixer index at load time;
// afterwards the binding is pure integer lookup.
type AudioBinding struct {
	// TrackIndex is the mixer index, resolved once by the movie loader.
	TrackIndex int
	// Band selects the frequency band: "bass", "mids" or "highs".
	Band string
	// Property names the node property driven by the envelope.
	Property string
	// Min and Max bound the output range.
	Min float64
	Max float64
	// Smoothing is the exponential moving average factor: 0 reacts
	// instantly, values near 1 smooth heavily.
	Smoothing float64

	prev float64
}

// Apply folds a new normalized envelope sample [0,1] into the binding's
// smoothing state and returns the remapped output value. The state persists
// across frame evaluations, so successive calls must be in evaluation order.
func (b *AudioBinding) Apply(envelope float64) float64 {
	smoothed := b.prev + (envelope-b.prev)*(1-b.Smoothing)
	b.prev = smoothed
	return b.Min + smoothed*(b.Max-b.Min)
}
