package director

import (
	"fmt"
	"image/color"
	"sort"
	"strconv"

	"github.com/ivlev/director/internal/render"
	"github.com/ivlev/director/internal/scene"
	"github.com/ivlev/director/internal/timeline"
)

// transitionFactor returns the opacity ramp multiplier for a segment's
// entry transition at scene-local time. The compositor rasterizes every
// transition type as an opacity ramp.
func transitionFactor(seg timeline.ActiveSegment) float64 {
	tr := seg.Transition
	if tr == nil || tr.Type == "none" || tr.Duration <= 0 {
		return 1
	}
	if seg.Local >= tr.Duration {
		return 1
	}
	return tr.Easing.Eval(seg.Local / tr.Duration)
}

// RenderTree evaluates the movie at global time t and returns the resolved
// render tree: active scenes in back-to-front order, every animated value
// sampled at scene-local time, audio bindings applied, opacity multiplied
// down the tree.
func (d *Director) RenderTree(t float64) (*render.Tree, error) {
	var tree *render.Tree
	err := d.guard(func() error {
		d.update(t)

		tree = &render.Tree{
			Width:  d.cfg.Width,
			Height: d.cfg.Height,
		}
		for _, seg := range d.timeline.Active(t) {
			root, err := d.resolveNode(seg.Root, seg.Local, transitionFactor(seg))
			if err != nil {
				return fmt.Errorf("scene %q: %w", seg.SceneID, err)
			}
			if root != nil {
				tree.Roots = append(tree.Roots, root)
			}
		}
		return nil
	})
	return tree, err
}

func (d *Director) resolveNode(id scene.NodeID, local, parentOpacity float64) (*render.Node, error) {
	node := d.graph.Node(id)
	if node == nil {
		return nil, nil
	}

	opacity := clamp01(d.resolve(id, node, "opacity", local)) * parentOpacity

	out := &render.Node{
		Kind:     string(node.Kind),
		X:        d.resolve(id, node, "x", local),
		Y:        d.resolve(id, node, "y", local),
		Rotation: d.resolve(id, node, "rotation", local),
		Opacity:  opacity,
	}
	out.W = styleFloat(node.Style, "w", 0)
	out.H = styleFloat(node.Style, "h", 0)
	out.Radius = styleFloat(node.Style, "radius", 0)

	if c, ok := styleColor(node.Style, "bg_color"); ok {
		out.Fill = c
		out.HasFill = true
	}

	childLocal := local
	switch node.Kind {
	case scene.KindText:
		out.Text = node.Text.Content
		out.FontSize = styleFloat(node.Style, "font_size", 13)
		if c, ok := styleColor(node.Style, "color"); ok {
			out.Color = c
		}
	case scene.KindImage:
		out.Img = node.Image.Img
	case scene.KindQR:
		out.Img = node.QR.Img
	case scene.KindVideo:
		if node.Video.Source != nil {
			frame, err := node.Video.Source.FrameAt(local)
			if err != nil {
				return nil, fmt.Errorf("video %q at %.3fs: %w", node.Video.Src, local, err)
			}
			out.Img = frame
		}
	case scene.KindLottie:
		if node.Lottie.Player != nil {
			sub, err := node.Lottie.Player.TreeAt(local)
			if err != nil {
				return nil, fmt.Errorf("lottie %q at %.3fs: %w", node.Lottie.Src, local, err)
			}
			for _, r := range sub.Roots {
				scaleOpacity(r, opacity)
				out.Children = append(out.Children, r)
			}
		}
	case scene.KindComposition:
		// Children of a composition run on a shifted local clock.
		childLocal = local - node.Composition.TimeOffset
	}

	// Images default to their intrinsic size when the style gives none.
	if out.Img != nil {
		b := out.Img.Bounds()
		if out.W == 0 {
			out.W = float64(b.Dx())
		}
		if out.H == 0 {
			out.H = float64(b.Dy())
		}
	}

	// Uniform scale about the node center.
	if s := d.resolve(id, node, "scale", local); s != 1 {
		cx, cy := out.X+out.W/2, out.Y+out.H/2
		out.W *= s
		out.H *= s
		out.X = cx - out.W/2
		out.Y = cy - out.H/2
	}

	for _, childID := range sortedChildren(d.graph, node) {
		child, err := d.resolveNode(childID, childLocal, opacity)
		if err != nil {
			return nil, err
		}
		if child != nil {
			out.Children = append(out.Children, child)
		}
	}
	return out, nil
}

// sortedChildren orders siblings by ascending z-index, insertion order
// breaking ties.
func sortedChildren(g *scene.Graph, node *scene.Node) []scene.NodeID {
	ids := make([]scene.NodeID, len(node.Children))
	copy(ids, node.Children)
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := g.Node(ids[i]), g.Node(ids[j])
		if a == nil || b == nil {
			return false
		}
		return a.ZIndex < b.ZIndex
	})
	return ids
}

func scaleOpacity(n *render.Node, factor float64) {
	n.Opacity *= factor
	for _, c := range n.Children {
		scaleOpacity(c, factor)
	}
}

func styleFloat(style map[string]string, key string, def float64) float64 {
	s, ok := style[key]
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func styleColor(style map[string]string, key string) (color.RGBA, bool) {
	s, ok := style[key]
	if !ok || s == "" {
		return color.RGBA{}, false
	}
	c, err := render.ParseColor(s)
	if err != nil {
		return color.RGBA{}, false
	}
	return c, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
