package scene

import (
	"image"

	"github.com/ivlev/director/internal/anim"
	"github.com/ivlev/director/internal/render"
)

// Kind identifies a renderable node variant. The set is closed: adding a
// kind is a deliberate schema change.
type Kind string

const (
	KindBox         Kind = "box"
	KindText        Kind = "text"
	KindImage       Kind = "image"
	KindVideo       Kind = "video"
	KindQR          Kind = "qr"
	KindLottie      Kind = "lottie"
	KindComposition Kind = "composition"
)

// ValidKind reports whether k names a known node kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindBox, KindText, KindImage, KindVideo, KindQR, KindLottie, KindComposition:
		return true
	}
	return false
}

// Transform holds the animated transform properties every node carries.
type Transform struct {
	X        *anim.Value
	Y        *anim.Value
	Scale    *anim.Value
	Rotation *anim.Value
	Opacity  *anim.Value
}

// NewTransform returns an identity transform.
func NewTransform() Transform {
	return Transform{
		X:        anim.New(0),
		Y:        anim.New(0),
		Scale:    anim.New(1),
		Rotation: anim.New(0),
		Opacity:  anim.New(1),
	}
}

// TextProps is the payload of a text node.
type TextProps struct {
	Content string
	Font    string
}

// ImageProps is the payload of an image node. Img is decoded once at load
// time by the asset layer.
type ImageProps struct {
	Src string
	Img image.Image
}

// VideoProps is the payload of a video node. Frame decoding is delegated to
// an external source; the loader only verifies the asset exists.
type VideoProps struct {
	Src    string
	Source render.FrameSource
}

// QRProps is the payload of a qr node. Img is generated at load time.
type QRProps struct {
	Data string
	Size int
	Img  image.Image
}

// LottieProps is the payload of a lottie node. The player is a black box
// producing a render tree for a frame time.
type LottieProps struct {
	Src    string
	Player render.VectorPlayer
}

// CompositionProps is the payload of a composition node: a nested timeline
// whose children run on a shifted local clock.
type CompositionProps struct {
	TimeOffset float64
}

// Node is one element of the scene graph: a kind with its payload, styling,
// an animated transform, extra animatable scalar properties, and resolved
// audio-reactive bindings.
type Node struct {
	Kind      Kind
	Style     map[string]string
	Transform Transform
	ZIndex    int
	Bindings  []*AudioBinding

	Children []NodeID
	Parent   NodeID // 0 when detached

	// Exactly one payload matching Kind is set (box carries none).
	Text        *TextProps
	Image       *ImageProps
	Video       *VideoProps
	QR          *QRProps
	Lottie      *LottieProps
	Composition *CompositionProps

	props map[string]*anim.Value
}

// NewNode creates a node of the given kind with an identity transform.
func NewNode(kind Kind) *Node {
	return &Node{
		Kind:      kind,
		Style:     make(map[string]string),
		Transform: NewTransform(),
		props:     make(map[string]*anim.Value),
	}
}

// Property resolves an animatable property by name. Transform properties
// share the node's transform; any other name lazily creates a scalar
// property starting at initial (used only on first access).
func (n *Node) Property(name string) *anim.Value {
	switch name {
	case "x":
		return n.Transform.X
	case "y":
		return n.Transform.Y
	case "scale":
		return n.Transform.Scale
	case "rotation":
		return n.Transform.Rotation
	case "opacity":
		return n.Transform.Opacity
	}
	if v, ok := n.props[name]; ok {
		return v
	}
	v := anim.New(0)
	n.props[name] = v
	return v
}

// PropertyNames lists the extra (non-transform) animated properties.
func (n *Node) PropertyNames() []string {
	names := make([]string, 0, len(n.props))
	for name := range n.props {
		names = append(names, name)
	}
	return names
}
