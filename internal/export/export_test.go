package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/ivlev/director/internal/anim"
	"github.com/ivlev/director/internal/asset"
	"github.com/ivlev/director/internal/audio"
	"github.com/ivlev/director/internal/config"
	"github.com/ivlev/director/internal/director"
	"github.com/ivlev/director/internal/render"
	"github.com/ivlev/director/internal/scene"
	"github.com/ivlev/director/internal/timeline"
)

// fadeMovie builds a 4x4 movie whose only box brightens linearly, so
// every frame is strictly ordered by its pixel values.
func fadeMovie(cfg *config.Config) *director.Director {
	graph := scene.NewGraph()
	node := scene.NewNode(scene.KindBox)
	node.Style["bg_color"] = "white"
	node.Style["w"] = "4"
	node.Style["h"] = "4"
	node.Transform.Opacity = anim.New(0)
	node.Transform.Opacity.AddKeyframe(1.0, 2.0, anim.Linear)
	root := graph.AddNode(node)

	tl := &timeline.Timeline{}
	tl.Add(timeline.Segment{SceneID: "s", Root: root, Duration: 2})

	return director.New(cfg, graph, tl, audio.NewMixer(cfg.SampleRate), asset.NewManager(nil))
}

func TestRenderFramesParallelKeepsOrder(t *testing.T) {
	cfg := &config.Config{Width: 4, Height: 4, FPS: 10, Workers: 4}
	cfg.Defaults()

	e := New(fadeMovie(cfg), render.NewSoftware(), cfg)

	const frames = 20
	var buf bytes.Buffer
	if err := e.renderFrames(context.Background(), &buf, frames); err != nil {
		t.Fatalf("renderFrames: %v", err)
	}

	frameSize := 4 * 4 * 4
	if buf.Len() != frames*frameSize {
		t.Fatalf("output length = %d, want %d", buf.Len(), frames*frameSize)
	}

	// With 4 workers the frames finish out of order; the stream must still
	// come out brightening monotonically.
	raw := buf.Bytes()
	prev := -1
	for i := 0; i < frames; i++ {
		r := int(raw[i*frameSize])
		if r < prev {
			t.Fatalf("frame %d out of order: pixel %d after %d", i, r, prev)
		}
		prev = r
	}
	if int(raw[0]) >= int(raw[(frames-1)*frameSize]) {
		t.Error("last frame should be brighter than the first")
	}
}

func TestRenderFramesCancellation(t *testing.T) {
	cfg := &config.Config{Width: 4, Height: 4, FPS: 10, Workers: 2}
	cfg.Defaults()

	e := New(fadeMovie(cfg), render.NewSoftware(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if err := e.renderFrames(ctx, &buf, 20); err == nil {
		t.Error("expected context error from cancelled export")
	}
}

func TestWriteRawRGBALength(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	var buf bytes.Buffer
	if err := writeRawRGBA(&buf, img); err != nil {
		t.Fatalf("writeRawRGBA: %v", err)
	}
	if buf.Len() != 8*4*4 {
		t.Errorf("raw frame length = %d, want %d", buf.Len(), 8*4*4)
	}
}

func TestWriteRawRGBAConvertsNonRGBA(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.Gray{Y: 200})

	var buf bytes.Buffer
	if err := writeRawRGBA(&buf, img); err != nil {
		t.Fatalf("writeRawRGBA: %v", err)
	}
	if buf.Len() != 2*2*4 {
		t.Errorf("raw frame length = %d, want 16", buf.Len())
	}
	if buf.Bytes()[0] != 200 {
		t.Errorf("pixel not converted: %d", buf.Bytes()[0])
	}
}

func TestQualityArgsPerEncoder(t *testing.T) {
	cases := []struct {
		encoder string
		want    string
	}{
		{"h264_videotoolbox", "-b:v"},
		{"h264_nvenc", "-cq"},
		{"libx264", "-crf"},
	}
	for _, c := range cases {
		args := qualityArgs(c.encoder, 23)
		if len(args) == 0 || args[0] != c.want {
			t.Errorf("qualityArgs(%s) = %v, want leading %s", c.encoder, args, c.want)
		}
	}
}
