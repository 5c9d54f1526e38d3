package loader

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/ivlev/director/internal/audio"
	"github.com/ivlev/director/internal/request"
)

type mapLoader map[string][]byte

func (l mapLoader) LoadBytes(path string) ([]byte, error) {
	data, ok := l[path]
	if !ok {
		return nil, fmt.Errorf("no such asset: %s", path)
	}
	return data, nil
}

func wavBytes(t *testing.T, seconds float64, rate int) []byte {
	t.Helper()
	frames := int(seconds * float64(rate))
	samples := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		s := float32(0.5 * math.Sin(2*math.Pi*220*float64(i)/float64(rate)))
		samples[i*2] = s
		samples[i*2+1] = s
	}
	var buf bytes.Buffer
	if err := audio.EncodeWAV(&buf, samples, rate); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadFullMovie(t *testing.T) {
	assets := mapLoader{
		"music.wav": wavBytes(t, 0.25, 48000),
		"logo.png":  pngBytes(t),
	}
	req := &request.Movie{
		Width: 640, Height: 360, FPS: 30,
		AudioTracks: []request.AudioTrack{
			{ID: "music", Src: "music.wav", Volume: 0.8},
		},
		Scenes: []request.Scene{
			{
				ID: "intro", Duration: 2, Background: "#101010",
				Root: request.Node{
					Kind: "box",
					Children: []request.Node{
						{Kind: "image", Src: "logo.png"},
						{
							Kind: "text", Text: "hello",
							AudioBindings: []request.AudioBinding{
								{AudioID: "music", Band: "bass", Property: "scale", Min: 1, Max: 2},
							},
						},
					},
				},
			},
			{ID: "outro", Duration: 3, Root: request.Node{Kind: "box"}},
		},
	}

	d, err := Load(req, nil, assets)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := d.Duration(); got != 5 {
		t.Errorf("movie duration = %v, want 5 (scenes back to back)", got)
	}
	if d.Config().Width != 640 || d.Config().FPS != 30 {
		t.Errorf("config not taken from request: %+v", d.Config())
	}

	tree, err := d.RenderTree(1.0)
	if err != nil {
		t.Fatalf("RenderTree: %v", err)
	}
	if len(tree.Roots) != 1 {
		t.Fatalf("expected intro active, got %d roots", len(tree.Roots))
	}
	root := tree.Roots[0]
	if !root.HasFill {
		t.Error("scene background not applied to root")
	}
	if len(root.Children) != 2 || root.Children[0].Img == nil {
		t.Errorf("children not resolved: %+v", root.Children)
	}
}

func TestLoadMissingImageErrorChain(t *testing.T) {
	req := &request.Movie{
		Scenes: []request.Scene{
			{ID: "intro", Duration: 1, Root: request.Node{Kind: "image", Src: "missing.png"}},
		},
	}
	_, err := Load(req, nil, mapLoader{})
	if err == nil {
		t.Fatal("expected load error")
	}
	msg := err.Error()
	if !strings.Contains(msg, `failed to build scene graph for scene "intro"`) {
		t.Errorf("error missing scene context: %v", msg)
	}
	if !strings.Contains(msg, `failed to load image asset "missing.png"`) {
		t.Errorf("error missing asset context: %v", msg)
	}
}

func TestLoadUnknownAudioTrackID(t *testing.T) {
	req := &request.Movie{
		Scenes: []request.Scene{
			{ID: "s", Duration: 1, Root: request.Node{
				Kind: "box",
				AudioBindings: []request.AudioBinding{
					{AudioID: "nope", Band: "bass", Property: "scale"},
				},
			}},
		},
	}
	_, err := Load(req, nil, mapLoader{})
	if err == nil {
		t.Fatal("expected load error")
	}
	if !strings.Contains(err.Error(), `unknown audio track id "nope"`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadBadAudioTrack(t *testing.T) {
	req := &request.Movie{
		AudioTracks: []request.AudioTrack{
			{ID: "music", Src: "music.wav"},
		},
	}
	_, err := Load(req, nil, mapLoader{"music.wav": []byte("not audio")})
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), `failed to load audio track "music"`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadUnknownNodeKind(t *testing.T) {
	req := &request.Movie{
		Scenes: []request.Scene{
			{ID: "s", Duration: 1, Root: request.Node{Kind: "sprite"}},
		},
	}
	if _, err := Load(req, nil, mapLoader{}); err == nil ||
		!strings.Contains(err.Error(), `unknown node kind "sprite"`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSceneFadeTransition(t *testing.T) {
	req := &request.Movie{
		Scenes: []request.Scene{
			{
				ID: "s", Duration: 4, Background: "white",
				Transition: &request.Transition{Type: "fade", Duration: 2},
				Root:       request.Node{Kind: "box"},
			},
		},
	}
	d, err := Load(req, nil, mapLoader{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	opacityAt := func(t_ float64) float64 {
		tree, err := d.RenderTree(t_)
		if err != nil {
			t.Fatalf("RenderTree: %v", err)
		}
		return tree.Roots[0].Opacity
	}
	if got := opacityAt(0); got != 0 {
		t.Errorf("opacity at transition start = %v, want 0", got)
	}
	if got := opacityAt(1); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("opacity mid-transition = %v, want 0.5", got)
	}
	if got := opacityAt(3); got != 1 {
		t.Errorf("opacity after transition = %v, want 1", got)
	}
}

func TestNoTransitionRendersAtFullOpacity(t *testing.T) {
	req := &request.Movie{
		Scenes: []request.Scene{
			{ID: "s", Duration: 4, Root: request.Node{Kind: "box"}},
		},
	}
	d, err := Load(req, nil, mapLoader{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tree, err := d.RenderTree(0)
	if err != nil {
		t.Fatal(err)
	}
	if got := tree.Roots[0].Opacity; got != 1 {
		t.Errorf("opacity without transition = %v, want 1", got)
	}
}

func TestNamedNodesAddressable(t *testing.T) {
	req := &request.Movie{
		Scenes: []request.Scene{
			{ID: "s", Duration: 4, Root: request.Node{
				Kind: "box",
				Children: []request.Node{
					{ID: "hero", Kind: "text", Text: "hi"},
				},
			}},
		},
	}
	d, err := Load(req, nil, mapLoader{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	hero, err := d.NodeID("hero")
	if err != nil {
		t.Fatalf("NodeID: %v", err)
	}
	if err := d.AnimateProperty(hero, "x", 50, 1, "linear"); err != nil {
		t.Errorf("named node not usable for mutation: %v", err)
	}
	if _, err := d.NodeID("ghost"); err == nil {
		t.Error("expected error for unknown node id")
	}
}

func TestDuplicateNodeIDRejected(t *testing.T) {
	req := &request.Movie{
		Scenes: []request.Scene{
			{ID: "s", Duration: 1, Root: request.Node{
				Kind: "box",
				Children: []request.Node{
					{ID: "dup", Kind: "box"},
					{ID: "dup", Kind: "box"},
				},
			}},
		},
	}
	if _, err := Load(req, nil, mapLoader{}); err == nil ||
		!strings.Contains(err.Error(), `duplicate node id "dup"`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAnimationFromOverrideAndContinuity(t *testing.T) {
	from := 100.0
	req := &request.Movie{
		Scenes: []request.Scene{
			{ID: "s", Duration: 10, Root: request.Node{
				Kind: "box",
				Animations: []request.Animation{
					{Property: "x", From: &from, To: 200, Duration: 2},
					{Property: "x", To: 300, Duration: 2},
				},
			}},
		},
	}
	d, err := Load(req, nil, mapLoader{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	at := func(t_ float64) float64 {
		tree, err := d.RenderTree(t_)
		if err != nil {
			t.Fatalf("RenderTree: %v", err)
		}
		return tree.Roots[0].X
	}
	if got := at(0); got != 100 {
		t.Errorf("x at 0 = %v, want explicit from 100", got)
	}
	if got := at(2); math.Abs(got-200) > 1e-9 {
		t.Errorf("x at 2 = %v, want 200", got)
	}
	if got := at(3); math.Abs(got-250) > 1e-9 {
		t.Errorf("x at 3 = %v, want 250 (second segment continues)", got)
	}
}
