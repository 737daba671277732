// Package ledstrip models a single addressable LED strip as a sequence of
// non-overlapping segments, each driven by one effect instance.
package ledstrip

import "ledctl/internal/color"

// segment is one effect's claim on a contiguous run of LEDs.
type segment struct {
	effectID int
	lower    int
	upper    int // exclusive
}

// Strip is a fixed-size run of LEDs subdivided into effect segments.
type Strip struct {
	size     int
	colors   []color.Color
	segments []segment
}

// New creates a Strip of the given LED count.
func New(size int) *Strip {
	return &Strip{
		size:   size,
		colors: make([]color.Color, size),
	}
}

// Size returns the strip's LED count.
func (s *Strip) Size() int {
	return s.size
}

// UsedLEDCount returns how many LEDs are currently claimed by a segment.
func (s *Strip) UsedLEDCount() int {
	used := 0
	for _, seg := range s.segments {
		used += seg.upper - seg.lower
	}
	return used
}

// nextFreeLED returns the first LED index not yet claimed by any
// segment — the highest occupied upper bound, not the sum of segment
// sizes, so a gap left by RemoveEffect is never reused while a later
// segment still occupies LEDs past it.
func (s *Strip) nextFreeLED() int {
	free := 0
	for _, seg := range s.segments {
		if seg.upper > free {
			free = seg.upper
		}
	}
	return free
}

// AddEffect claims the next free run of effectSize LEDs for effectID.
// It reports false without modifying the strip if there isn't enough
// room left.
func (s *Strip) AddEffect(effectID, effectSize int) bool {
	lower := s.nextFreeLED()
	upper := lower + effectSize
	if upper > s.size {
		return false
	}
	s.segments = append(s.segments, segment{effectID: effectID, lower: lower, upper: upper})
	return true
}

// RemoveEffect drops the segment belonging to effectID, if any.
func (s *Strip) RemoveEffect(effectID int) {
	filtered := s.segments[:0]
	for _, seg := range s.segments {
		if seg.effectID != effectID {
			filtered = append(filtered, seg)
		}
	}
	s.segments = filtered
}

// Resize changes the strip's LED count, dropping any segment whose upper
// bound no longer fits. The color buffer is only reallocated when
// newSize actually differs from the current size, so calling Resize
// twice with the same size is a no-op on existing color data.
func (s *Strip) Resize(newSize int) {
	if newSize != s.size {
		s.size = newSize
		s.colors = make([]color.Color, newSize)
	}

	filtered := s.segments[:0]
	for _, seg := range s.segments {
		if seg.upper <= newSize {
			filtered = append(filtered, seg)
		}
	}
	s.segments = filtered
}

// SegmentFor returns the LED sub-slice owned by effectID and whether that
// segment exists, so a tick engine can write an effect's output directly
// into the strip's backing buffer without a copy.
func (s *Strip) SegmentFor(effectID int) ([]color.Color, bool) {
	for _, seg := range s.segments {
		if seg.effectID == effectID {
			return s.colors[seg.lower:seg.upper], true
		}
	}
	return nil, false
}

// Colors returns the full backing buffer in wire order.
func (s *Strip) Colors() []color.Color {
	return s.colors
}

// Bytes packs the full strip into the raw r,g,b,... wire format.
func (s *Strip) Bytes() []byte {
	return color.Bytes(s.colors)
}
