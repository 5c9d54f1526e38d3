// Package request defines the declarative movie request format: the
// load-time input contract for the movie loader.
package request

// Movie is a complete declarative movie description.
type Movie struct {
	Width            int          `yaml:"width"`
	Height           int          `yaml:"height"`
	FPS              int          `yaml:"fps"`
	SampleRate       int          `yaml:"sample_rate,omitempty"`
	DefaultFont      string       `yaml:"default_font,omitempty"`
	AssetSearchPaths []string     `yaml:"asset_search_paths,omitempty"`
	Scenes           []Scene      `yaml:"scenes"`
	AudioTracks      []AudioTrack `yaml:"audio_tracks,omitempty"`
}

// Scene places one node tree on the movie timeline.
type Scene struct {
	ID         string      `yaml:"id,omitempty"`
	Name       string      `yaml:"name,omitempty"`
	Start      float64     `yaml:"start,omitempty"`
	Duration   float64     `yaml:"duration"`
	ZIndex     int         `yaml:"z_index,omitempty"`
	Background string      `yaml:"background,omitempty"`
	Root       Node        `yaml:"root"`
	Transition *Transition `yaml:"transition,omitempty"`
}

// Transition describes how a scene blends with its predecessor.
type Transition struct {
	Type     string  `yaml:"type"`
	Duration float64 `yaml:"duration"`
	Easing   string  `yaml:"easing,omitempty"`
}

// Node is one declarative node: a kind, its payload fields, styling,
// animations and audio-reactive bindings.
type Node struct {
	ID    string            `yaml:"id,omitempty"`
	Kind  string            `yaml:"kind"`
	Style map[string]string `yaml:"style,omitempty"`
	// Kind payloads; only the fields matching Kind are read.
	Src     string  `yaml:"src,omitempty"`     // image, video, lottie
	Text    string  `yaml:"text,omitempty"`    // text
	Data    string  `yaml:"data,omitempty"`    // qr
	Size    int     `yaml:"size,omitempty"`    // qr pixel size
	ZIndex  int     `yaml:"z_index,omitempty"` // sibling render order
	Offset  float64 `yaml:"offset,omitempty"`  // composition time offset

	Animations    []Animation      `yaml:"animations,omitempty"`
	Springs       []Spring         `yaml:"springs,omitempty"`
	AudioBindings []AudioBinding   `yaml:"audio_bindings,omitempty"`
	Children      []Node           `yaml:"children,omitempty"`
}

// Animation is a keyframe segment for one property. From is optional: when
// nil the segment continues from the property's current value.
type Animation struct {
	Property string   `yaml:"property"`
	From     *float64 `yaml:"from,omitempty"`
	To       float64  `yaml:"to"`
	Duration float64  `yaml:"duration"`
	Easing   string   `yaml:"easing,omitempty"`
}

// Spring is a spring-physics animation for one property. From is optional,
// like Animation.From.
type Spring struct {
	Property  string   `yaml:"property"`
	From      *float64 `yaml:"from,omitempty"`
	To        float64  `yaml:"to"`
	Stiffness float64  `yaml:"stiffness,omitempty"`
	Damping   float64  `yaml:"damping,omitempty"`
	Mass      float64  `yaml:"mass,omitempty"`
	Velocity  float64  `yaml:"velocity,omitempty"`
}

// AudioBinding couples a node property to an audio track's frequency band.
// AudioID references an AudioTrack.ID and is resolved at load time.
type AudioBinding struct {
	AudioID   string  `yaml:"audio_id"`
	Band      string  `yaml:"band"`
	Property  string  `yaml:"property"`
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	Smoothing float64 `yaml:"smoothing,omitempty"`
}

// AudioTrack declares one audio source placed on the movie timeline.
type AudioTrack struct {
	ID     string  `yaml:"id,omitempty"`
	Src    string  `yaml:"src"`
	Start  float64 `yaml:"start,omitempty"`
	Volume float64 `yaml:"volume,omitempty"`
	Loop   bool    `yaml:"loop,omitempty"`
}
