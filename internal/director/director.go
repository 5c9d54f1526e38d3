// Package director owns the movie aggregate: scene graph, timeline, mixer,
// analyzer and asset cache behind one lock, with per-frame evaluation into
// resolved render trees.
package director

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ivlev/director/internal/anim"
	"github.com/ivlev/director/internal/asset"
	"github.com/ivlev/director/internal/audio"
	"github.com/ivlev/director/internal/config"
	"github.com/ivlev/director/internal/scene"
	"github.com/ivlev/director/internal/timeline"
)

// ErrPoisoned signals that a previous guarded operation panicked and the
// aggregate's state can no longer be trusted. The caller can recover by
// rebuilding the movie from its request.
var ErrPoisoned = errors.New("movie aggregate poisoned by earlier panic")

const analyzerWindow = 2048

// Director is the movie aggregate. All state behind mu is owned
// exclusively; external code holds only NodeIDs and mixer track indices.
type Director struct {
	mu       sync.Mutex
	poisoned bool

	cfg      *config.Config
	graph    *scene.Graph
	timeline *timeline.Timeline
	mixer    *audio.Mixer
	analyzer *audio.Analyzer
	assets   *asset.Manager

	// names maps request-level node ids to handles for script lookups.
	names map[string]scene.NodeID

	// overrides holds this frame's audio-binding outputs, keyed by node
	// and property name. Rebuilt on every Update.
	overrides map[scene.NodeID]map[string]float64
}

// New assembles a director from loaded components.
func New(cfg *config.Config, graph *scene.Graph, tl *timeline.Timeline, mixer *audio.Mixer, assets *asset.Manager) *Director {
	return &Director{
		cfg:      cfg,
		graph:    graph,
		timeline: tl,
		mixer:    mixer,
		analyzer: audio.NewAnalyzer(analyzerWindow, mixer.SampleRate),
		assets:   assets,
	}
}

// guard runs fn under the aggregate lock. A panic inside fn poisons the
// aggregate: the panic is converted to an error here, and every later
// guarded call fails fast with ErrPoisoned.
func (d *Director) guard(fn func() error) (err error) {
	d.mu.Lock()
	if d.poisoned {
		d.mu.Unlock()
		return ErrPoisoned
	}
	defer func() {
		if r := recover(); r != nil {
			d.poisoned = true
			err = fmt.Errorf("movie operation panicked: %v", r)
		}
		d.mu.Unlock()
	}()
	return fn()
}

// Config returns the movie configuration.
func (d *Director) Config() *config.Config { return d.cfg }

// Duration returns the total movie duration in seconds.
func (d *Director) Duration() float64 {
	var dur float64
	d.guard(func() error {
		dur = d.timeline.Duration()
		return nil
	})
	return dur
}

// TrackCount returns the number of mixer tracks.
func (d *Director) TrackCount() int {
	var n int
	d.guard(func() error {
		n = d.mixer.Len()
		return nil
	})
	return n
}

// MixAudio mixes the movie's audio for the window starting at start
// seconds into frames interleaved stereo frames.
func (d *Director) MixAudio(start float64, frames int) ([]float32, error) {
	var out []float32
	err := d.guard(func() error {
		out = d.mixer.Mix(start, frames)
		return nil
	})
	return out, err
}

// AddScene creates a scene with a fresh box root and places it on the
// timeline. The returned NodeID addresses the root for later mutations.
func (d *Director) AddScene(id string, start, duration float64, zIndex int) (scene.NodeID, error) {
	var root scene.NodeID
	err := d.guard(func() error {
		if id == "" {
			id = uuid.NewString()
		}
		root = d.graph.AddNode(scene.NewNode(scene.KindBox))
		d.timeline.Add(timeline.Segment{
			SceneID:  id,
			Root:     root,
			Start:    start,
			Duration: duration,
			ZIndex:   zIndex,
		})
		return nil
	})
	return root, err
}

// RegisterNodeID names a node so scripts can address it by its
// request-level id instead of a handle.
func (d *Director) RegisterNodeID(name string, id scene.NodeID) error {
	return d.guard(func() error {
		if err := d.graph.EnsureAlive(id); err != nil {
			return err
		}
		if d.names == nil {
			d.names = make(map[string]scene.NodeID)
		}
		d.names[name] = id
		return nil
	})
}

// NodeID resolves a request-level node id to its handle.
func (d *Director) NodeID(name string) (scene.NodeID, error) {
	var id scene.NodeID
	err := d.guard(func() error {
		v, ok := d.names[name]
		if !ok {
			return fmt.Errorf("unknown node id %q", name)
		}
		id = v
		return nil
	})
	return id, err
}

// AddNodeTo creates a node of kind under parent.
func (d *Director) AddNodeTo(parent scene.NodeID, kind scene.Kind) (scene.NodeID, error) {
	var id scene.NodeID
	err := d.guard(func() error {
		if !scene.ValidKind(kind) {
			return fmt.Errorf("unknown node kind %q", kind)
		}
		if err := d.graph.EnsureAlive(parent); err != nil {
			return err
		}
		id = d.graph.AddNode(scene.NewNode(kind))
		return d.graph.AddChild(parent, id)
	})
	return id, err
}

// DestroyNode destroys a node and its subtree. Destroying an already-dead
// handle is an error so scripts notice stale references.
func (d *Director) DestroyNode(id scene.NodeID) error {
	return d.guard(func() error {
		if err := d.graph.EnsureAlive(id); err != nil {
			return err
		}
		d.graph.Destroy(id)
		return nil
	})
}

// AnimateProperty appends an eased keyframe segment to a node property,
// continuing from the property's current end value.
func (d *Director) AnimateProperty(id scene.NodeID, property string, to, duration float64, easing string) error {
	return d.guard(func() error {
		if err := d.graph.EnsureAlive(id); err != nil {
			return err
		}
		d.graph.Node(id).Property(property).AddKeyframe(to, duration, anim.ParseEasing(easing))
		return nil
	})
}

// AddSpringTo appends a baked spring segment to a node property.
func (d *Director) AddSpringTo(id scene.NodeID, property string, to float64, cfg anim.SpringConfig) error {
	return d.guard(func() error {
		if err := d.graph.EnsureAlive(id); err != nil {
			return err
		}
		d.graph.Node(id).Property(property).AddSpring(to, cfg)
		return nil
	})
}

// BindAudio couples a node property to a mixer track's band envelope.
func (d *Director) BindAudio(id scene.NodeID, trackIndex int, band, property string, min, max, smoothing float64) error {
	return d.guard(func() error {
		if err := d.graph.EnsureAlive(id); err != nil {
			return err
		}
		if d.mixer.Track(trackIndex) == nil {
			return fmt.Errorf("unknown audio track index %d", trackIndex)
		}
		node := d.graph.Node(id)
		node.Bindings = append(node.Bindings, &scene.AudioBinding{
			TrackIndex: trackIndex,
			Band:       band,
			Property:   property,
			Min:        min,
			Max:        max,
			Smoothing:  smoothing,
		})
		return nil
	})
}

// AddAudioFile decodes an audio asset into the mixer and returns its track
// index.
func (d *Director) AddAudioFile(path string, start, volume float64, loop bool) (int, error) {
	var index int
	err := d.guard(func() error {
		data, err := d.assets.LoadBlob(path)
		if err != nil {
			return fmt.Errorf("failed to load audio track %q: %w", path, err)
		}
		samples, err := audio.DecodePCM(data, d.mixer.SampleRate)
		if err != nil {
			return fmt.Errorf("failed to load audio track %q: %w", path, err)
		}
		index = d.mixer.Add(&audio.Track{
			ID:      uuid.NewString(),
			Samples: samples,
			Volume:  anim.New(volume),
			Start:   start,
			Loop:    loop,
		})
		return nil
	})
	return index, err
}

// Update advances the movie to global time t: it recomputes every
// audio-binding output for the active scenes and folds the envelopes into
// each binding's smoothing state. Calls must be in evaluation order for
// smoothing to track the movie clock.
func (d *Director) Update(t float64) error {
	return d.guard(func() error {
		d.update(t)
		return nil
	})
}

func (d *Director) update(t float64) {
	d.overrides = make(map[scene.NodeID]map[string]float64)
	for _, seg := range d.timeline.Active(t) {
		d.updateNode(seg.Root, t)
	}
}

func (d *Director) updateNode(id scene.NodeID, t float64) {
	node := d.graph.Node(id)
	if node == nil {
		return
	}
	for _, b := range node.Bindings {
		env := d.envelope(b.TrackIndex, b.Band, t)
		out := b.Apply(env)
		ov := d.overrides[id]
		if ov == nil {
			ov = make(map[string]float64)
			d.overrides[id] = ov
		}
		ov[b.Property] = out
	}
	for _, child := range node.Children {
		d.updateNode(child, t)
	}
}

// envelope returns the band energy of a track at global time t, or 0 when
// the track is outside its active window.
func (d *Director) envelope(trackIndex int, band string, t float64) float64 {
	track := d.mixer.Track(trackIndex)
	if track == nil || len(track.Samples) == 0 {
		return 0
	}
	rel := t - track.Start
	if rel < 0 {
		return 0
	}
	natural := float64(len(track.Samples)/2) / float64(d.mixer.SampleRate)
	if track.Duration > 0 && rel >= track.Duration {
		return 0
	}
	if track.Loop {
		if natural > 0 {
			for rel >= natural {
				rel -= natural
			}
		}
	} else if rel >= natural {
		return 0
	}
	return d.analyzer.Band(track.Samples, rel, band)
}

// resolve returns a node property's value at scene-local time, with this
// frame's audio-binding output taking precedence over the keyframe model.
func (d *Director) resolve(id scene.NodeID, node *scene.Node, property string, local float64) float64 {
	if ov, ok := d.overrides[id]; ok {
		if v, ok := ov[property]; ok {
			return v
		}
	}
	return node.Property(property).ValueAt(local)
}
