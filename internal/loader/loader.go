// Package loader builds a runnable movie aggregate from a declarative
// request: audio tracks first, then scene graphs, with every cross
// reference resolved before the aggregate is handed out.
package loader

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ivlev/director/internal/anim"
	"github.com/ivlev/director/internal/asset"
	"github.com/ivlev/director/internal/audio"
	"github.com/ivlev/director/internal/config"
	"github.com/ivlev/director/internal/director"
	"github.com/ivlev/director/internal/request"
	"github.com/ivlev/director/internal/scene"
	"github.com/ivlev/director/internal/timeline"
)

// Load resolves a movie request into a director. Loading is synchronous:
// every asset is fetched and decoded, every animation baked and every
// audio binding resolved before the aggregate is returned. Any failure
// aborts the whole load.
func Load(req *request.Movie, cfg *config.Config, assetLoader asset.Loader) (*director.Director, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	// The request supplies movie dimensions unless the config already
	// carries an explicit override.
	if cfg.Width == 0 {
		cfg.Width = req.Width
	}
	if cfg.Height == 0 {
		cfg.Height = req.Height
	}
	if cfg.FPS == 0 {
		cfg.FPS = req.FPS
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = req.SampleRate
	}
	cfg.Defaults()

	assets := asset.NewManager(assetLoader)

	// Audio first so scene bindings can resolve track ids to mixer indices.
	mixer := audio.NewMixer(cfg.SampleRate)
	trackIndex := make(map[string]int, len(req.AudioTracks))
	for _, tr := range req.AudioTracks {
		id := tr.ID
		if id == "" {
			id = uuid.NewString()
		}
		samples, err := loadTrack(assets, tr.Src, cfg.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("failed to load audio track %q: %w", id, err)
		}
		volume := tr.Volume
		if volume == 0 {
			volume = 1.0
		}
		trackIndex[id] = mixer.Add(&audio.Track{
			ID:      id,
			Samples: samples,
			Volume:  anim.New(volume),
			Start:   tr.Start,
			Loop:    tr.Loop,
		})
	}

	graph := scene.NewGraph()
	tl := &timeline.Timeline{}
	b := &builder{
		req:        req,
		graph:      graph,
		assets:     assets,
		trackIndex: trackIndex,
		named:      make(map[string]scene.NodeID),
	}

	cursor := 0.0
	for i, sc := range req.Scenes {
		id := sc.ID
		if id == "" {
			id = uuid.NewString()
		}

		root, err := b.buildNode(&sc.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to build scene graph for scene %q: %w", id, err)
		}
		if sc.Background != "" {
			node := graph.Node(root)
			if _, ok := node.Style["bg_color"]; !ok {
				node.Style["bg_color"] = sc.Background
			}
			if _, ok := node.Style["w"]; !ok {
				node.Style["w"] = fmt.Sprintf("%d", cfg.Width)
			}
			if _, ok := node.Style["h"]; !ok {
				node.Style["h"] = fmt.Sprintf("%d", cfg.Height)
			}
		}

		// Scenes without an explicit start run back to back.
		start := sc.Start
		if start == 0 && i > 0 {
			start = cursor
		}
		if end := start + sc.Duration; end > cursor {
			cursor = end
		}

		var tr *timeline.Transition
		if sc.Transition != nil && sc.Transition.Type != "" && sc.Transition.Type != "none" {
			tr = &timeline.Transition{
				Type:     sc.Transition.Type,
				Duration: sc.Transition.Duration,
				Easing:   anim.ParseEasing(sc.Transition.Easing),
			}
		}

		tl.Add(timeline.Segment{
			SceneID:    id,
			Root:       root,
			Start:      start,
			Duration:   sc.Duration,
			ZIndex:     sc.ZIndex,
			Transition: tr,
		})
	}

	d := director.New(cfg, graph, tl, mixer, assets)
	for name, id := range b.named {
		if err := d.RegisterNodeID(name, id); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func loadTrack(assets *asset.Manager, src string, sampleRate int) ([]float32, error) {
	data, err := assets.LoadBlob(src)
	if err != nil {
		return nil, err
	}
	return audio.DecodePCM(data, sampleRate)
}

type builder struct {
	req        *request.Movie
	graph      *scene.Graph
	assets     *asset.Manager
	trackIndex map[string]int
	named      map[string]scene.NodeID
}

// buildNode converts one declarative node and its subtree into graph
// nodes.
func (b *builder) buildNode(n *request.Node) (scene.NodeID, error) {
	kind := scene.Kind(n.Kind)
	if !scene.ValidKind(kind) {
		return 0, fmt.Errorf("unknown node kind %q", n.Kind)
	}

	node := scene.NewNode(kind)
	node.ZIndex = n.ZIndex
	for k, v := range n.Style {
		node.Style[k] = v
	}

	if err := b.attachPayload(node, n); err != nil {
		return 0, err
	}

	// Animations before springs, both in declaration order, so each
	// segment continues from the value the previous one ended on.
	for _, a := range n.Animations {
		val := node.Property(a.Property)
		easing := anim.ParseEasing(a.Easing)
		if a.From != nil {
			val.AddSegment(*a.From, a.To, a.Duration, easing)
		} else {
			val.AddKeyframe(a.To, a.Duration, easing)
		}
	}
	for _, s := range n.Springs {
		val := node.Property(s.Property)
		cfg := springConfig(s)
		if s.From != nil {
			val.AddSpringWithStart(*s.From, s.To, cfg)
		} else {
			val.AddSpring(s.To, cfg)
		}
	}

	for _, ab := range n.AudioBindings {
		index, ok := b.trackIndex[ab.AudioID]
		if !ok {
			return 0, fmt.Errorf("unknown audio track id %q", ab.AudioID)
		}
		node.Bindings = append(node.Bindings, &scene.AudioBinding{
			TrackIndex: index,
			Band:       ab.Band,
			Property:   ab.Property,
			Min:        ab.Min,
			Max:        ab.Max,
			Smoothing:  ab.Smoothing,
		})
	}

	id := b.graph.AddNode(node)
	if n.ID != "" {
		if _, exists := b.named[n.ID]; exists {
			return 0, fmt.Errorf("duplicate node id %q", n.ID)
		}
		b.named[n.ID] = id
	}
	for i := range n.Children {
		child, err := b.buildNode(&n.Children[i])
		if err != nil {
			return 0, err
		}
		if err := b.graph.AddChild(id, child); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (b *builder) attachPayload(node *scene.Node, n *request.Node) error {
	switch node.Kind {
	case scene.KindText:
		node.Text = &scene.TextProps{Content: n.Text, Font: b.req.DefaultFont}
	case scene.KindImage:
		img, err := b.assets.LoadImage(n.Src)
		if err != nil {
			return fmt.Errorf("failed to load image asset %q: %w", n.Src, err)
		}
		node.Image = &scene.ImageProps{Src: n.Src, Img: img}
	case scene.KindQR:
		img, err := asset.GenerateQR(n.Data, n.Size)
		if err != nil {
			return err
		}
		node.QR = &scene.QRProps{Data: n.Data, Size: n.Size, Img: img}
	case scene.KindVideo:
		// Frame decoding happens behind a FrameSource at render time; the
		// loader only proves the asset exists.
		if _, err := b.assets.LoadBlob(n.Src); err != nil {
			return fmt.Errorf("failed to load video asset %q: %w", n.Src, err)
		}
		node.Video = &scene.VideoProps{Src: n.Src}
	case scene.KindLottie:
		if _, err := b.assets.LoadBlob(n.Src); err != nil {
			return fmt.Errorf("failed to load animation asset %q: %w", n.Src, err)
		}
		node.Lottie = &scene.LottieProps{Src: n.Src}
	case scene.KindComposition:
		node.Composition = &scene.CompositionProps{TimeOffset: n.Offset}
	}
	return nil
}

func springConfig(s request.Spring) anim.SpringConfig {
	cfg := anim.DefaultSpring()
	if s.Stiffness > 0 {
		cfg.Stiffness = s.Stiffness
	}
	if s.Damping > 0 {
		cfg.Damping = s.Damping
	}
	if s.Mass > 0 {
		cfg.Mass = s.Mass
	}
	cfg.Velocity = s.Velocity
	return cfg
}
