package render

import (
	"image"
	"image/color"
	stddraw "image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/director/internal/system"
)

// Software is a CPU compositor implementing Renderer. It rasterizes boxes,
// images and basicfont text back-to-front with per-node opacity. Rotation
// and rounded corners are not rasterized here; a GPU collaborator may honor
// them. Returned frames come from the shared frame pool; callers that are
// done with a frame should return it via system.PutImage.
type Software struct{}

// NewSoftware creates the default software renderer.
func NewSoftware() *Software { return &Software{} }

// RenderFrame composites the tree into an RGBA frame.
func (r *Software) RenderFrame(tree *Tree) (*image.RGBA, error) {
	frame := system.GetImage(image.Rect(0, 0, tree.Width, tree.Height))

	bg := tree.Background
	if bg.A == 0 {
		bg = color.RGBA{0, 0, 0, 255}
	}
	stddraw.Draw(frame, frame.Bounds(), &image.Uniform{bg}, image.Point{}, stddraw.Src)

	for _, root := range tree.Roots {
		r.drawNode(frame, root)
	}
	return frame, nil
}

func (r *Software) drawNode(dst *image.RGBA, n *Node) {
	if n.Opacity > 0 {
		rect := image.Rect(int(n.X), int(n.Y), int(n.X+n.W), int(n.Y+n.H))

		if n.HasFill {
			fillRect(dst, rect, n.Fill, n.Opacity)
		}
		if n.Img != nil {
			drawImage(dst, rect, n.Img, n.Opacity)
		}
		if n.Text != "" {
			drawText(dst, n)
		}
	}

	for _, child := range n.Children {
		r.drawNode(dst, child)
	}
}

func fillRect(dst *image.RGBA, rect image.Rectangle, c color.RGBA, opacity float64) {
	alpha := uint8(opacity * 255)
	mask := &image.Uniform{color.Alpha{alpha}}
	stddraw.DrawMask(dst, rect, &image.Uniform{c}, image.Point{}, mask, image.Point{}, stddraw.Over)
}

func drawImage(dst *image.RGBA, rect image.Rectangle, src image.Image, opacity float64) {
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return
	}

	if opacity >= 0.999 {
		xdraw.CatmullRom.Scale(dst, rect, src, src.Bounds(), xdraw.Over, nil)
		return
	}

	// Scale into a scratch buffer, then composite with a uniform alpha mask.
	scratch := system.GetImage(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	defer system.PutImage(scratch)
	clearImage(scratch)
	xdraw.CatmullRom.Scale(scratch, scratch.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	mask := &image.Uniform{color.Alpha{uint8(opacity * 255)}}
	stddraw.DrawMask(dst, rect, scratch, image.Point{}, mask, image.Point{}, stddraw.Over)
}

func drawText(dst *image.RGBA, n *Node) {
	c := n.Color
	if c.A == 0 {
		c = color.RGBA{255, 255, 255, 255}
	}
	c.A = uint8(float64(c.A) * n.Opacity)

	d := font.Drawer{
		Dst:  dst,
		Src:  &image.Uniform{c},
		Face: basicfont.Face7x13,
		Dot: fixed.Point26_6{
			X: fixed.I(int(n.X)),
			Y: fixed.I(int(n.Y) + basicfont.Face7x13.Ascent),
		},
	}
	d.DrawString(n.Text)
}

func clearImage(img *image.RGBA) {
	for i := range img.Pix {
		img.Pix[i] = 0
	}
}
