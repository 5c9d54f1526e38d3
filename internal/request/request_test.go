package request

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadWriteRoundTrip(t *testing.T) {
	from := 0.5
	movie := &Movie{
		Width:  1920,
		Height: 1080,
		FPS:    30,
		Scenes: []Scene{
			{
				ID:       "intro",
				Duration: 5.0,
				ZIndex:   1,
				Root: Node{
					Kind: "box",
					Style: map[string]string{
						"bg_color": "#112233",
						"w":        "1920",
						"h":        "1080",
					},
					Animations: []Animation{
						{Property: "opacity", From: &from, To: 1.0, Duration: 1.0, Easing: "ease_in_out"},
					},
					Springs: []Spring{
						{Property: "scale", To: 1.2, Stiffness: 100, Damping: 10, Mass: 1},
					},
					Children: []Node{
						{Kind: "text", Text: "hello"},
						{Kind: "qr", Data: "https://example.com", Size: 256},
					},
				},
			},
		},
		AudioTracks: []AudioTrack{
			{ID: "music", Src: "music.mp3", Volume: 0.8, Loop: true},
		},
	}

	path := filepath.Join(t.TempDir(), "movie.yaml")
	if err := Write(movie, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if got.Width != 1920 || got.FPS != 30 {
		t.Errorf("header mismatch: %+v", got)
	}
	if len(got.Scenes) != 1 || got.Scenes[0].ID != "intro" {
		t.Fatalf("scenes mismatch: %+v", got.Scenes)
	}
	root := got.Scenes[0].Root
	if len(root.Animations) != 1 || root.Animations[0].From == nil || *root.Animations[0].From != 0.5 {
		t.Errorf("animation from not preserved: %+v", root.Animations)
	}
	if len(root.Children) != 2 || root.Children[1].Kind != "qr" {
		t.Errorf("children mismatch: %+v", root.Children)
	}
	if len(got.AudioTracks) != 1 || !got.AudioTracks[0].Loop {
		t.Errorf("audio tracks mismatch: %+v", got.AudioTracks)
	}
}

func TestReadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("scenes: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Error("expected error for malformed request")
	}
}
