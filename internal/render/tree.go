// Package render defines the resolved render tree handed to the rendering
// collaborator, the collaborator interfaces themselves, and a software
// compositor used as the default collaborator.
package render

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"
)

// Node is one resolved node for a single frame time: kind, resolved
// transform and style scalars, payload, and resolved children. All animation
// and audio reactivity has already been applied.
type Node struct {
	Kind string

	// Target rectangle in movie pixels, after scaling about the center.
	X, Y, W, H float64
	Rotation   float64
	// Opacity is the node's effective opacity including ancestors, [0,1].
	Opacity float64

	Fill     color.RGBA
	HasFill  bool
	Radius   float64
	Text     string
	FontSize float64
	Color    color.RGBA
	Img      image.Image

	Children []*Node
}

// Tree is the resolved scene state for one frame: the active scene roots in
// back-to-front compositing order.
type Tree struct {
	Width      int
	Height     int
	Background color.RGBA
	Roots      []*Node
}

// Renderer consumes a resolved render tree for a single frame time and
// produces drawn pixels. The engine makes no assumption about how pixels are
// produced beyond the target rectangle and opacity of each node.
type Renderer interface {
	RenderFrame(tree *Tree) (*image.RGBA, error)
}

// VectorPlayer is the vector-animation sub-engine interface: a black box
// that produces a renderable tree for a frame time.
type VectorPlayer interface {
	TreeAt(t float64) (*Tree, error)
	Size() (width, height int)
}

// FrameSource supplies decoded video frames; codec I/O lives behind it.
type FrameSource interface {
	FrameAt(t float64) (image.Image, error)
}

// ParseColor parses "#rgb", "#rrggbb", "#rrggbbaa" and a few named colors.
func ParseColor(s string) (color.RGBA, error) {
	switch strings.ToLower(s) {
	case "black":
		return color.RGBA{0, 0, 0, 255}, nil
	case "white":
		return color.RGBA{255, 255, 255, 255}, nil
	case "red":
		return color.RGBA{255, 0, 0, 255}, nil
	case "green":
		return color.RGBA{0, 255, 0, 255}, nil
	case "blue":
		return color.RGBA{0, 0, 255, 255}, nil
	case "transparent", "":
		return color.RGBA{}, nil
	}

	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("malformed color %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("malformed color %q: %w", s, err)
	}
	if len(hex) == 6 {
		return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, nil
	}
	return color.RGBA{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}
