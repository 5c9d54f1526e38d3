// Package timeline places scenes on the global movie clock and answers
// which of them are active at a given time.
package timeline

import (
	"sort"

	"github.com/ivlev/director/internal/anim"
	"github.com/ivlev/director/internal/scene"
)

// Transition describes how a segment blends in when it becomes active.
type Transition struct {
	Type     string
	Duration float64
	Easing   anim.Easing
}

// Segment is one scene placed on the timeline. AudioTracks holds mixer
// track indices whose playback is tied to this segment.
type Segment struct {
	SceneID     string
	Root        scene.NodeID
	Start       float64
	Duration    float64
	ZIndex      int
	Transition  *Transition
	AudioTracks []int
}

// End returns the time the segment stops being active.
func (s Segment) End() float64 { return s.Start + s.Duration }

// ActiveSegment is a segment together with the scene-local time for the
// query that produced it.
type ActiveSegment struct {
	Segment
	Local float64
}

// Timeline is an ordered collection of segments. Segments may overlap;
// z-index decides their compositing order.
type Timeline struct {
	segments []Segment
}

// Add appends a segment. Insertion order is preserved for equal z-indices.
func (tl *Timeline) Add(seg Segment) {
	tl.segments = append(tl.segments, seg)
}

// Segments returns all segments in insertion order.
func (tl *Timeline) Segments() []Segment {
	return tl.segments
}

// Active returns the segments covering time t, sorted by ascending
// z-index with insertion order breaking ties. A segment is active on
// [Start, Start+Duration). An empty result is a valid frame: the
// compositor paints only the background.
func (tl *Timeline) Active(t float64) []ActiveSegment {
	var active []ActiveSegment
	for _, seg := range tl.segments {
		if t >= seg.Start && t < seg.End() {
			active = append(active, ActiveSegment{Segment: seg, Local: t - seg.Start})
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].ZIndex < active[j].ZIndex
	})
	return active
}

// Duration returns the end of the last-ending segment, the total movie
// duration.
func (tl *Timeline) Duration() float64 {
	var end float64
	for _, seg := range tl.segments {
		if seg.End() > end {
			end = seg.End()
		}
	}
	return end
}
