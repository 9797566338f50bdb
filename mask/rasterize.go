package mask

import (
	"math"
	"sort"

	"github.com/carbocation/nucleiseg/annotation"
)

// Rasterize fills every region into a fresh height x width canvas.
//
// Fill rule: even-odd, sampled at integer pixel coordinates (vertex (x, y)
// addresses column x, row y). Pixels lying on a polygon edge are foreground
// too, so the square (2,2)-(8,8) covers rows and columns 2 through 8. Regions
// are OR-ed together, so overlaps never invert or exceed Foreground.
// Degenerate regions (fewer than 3 vertices, or all vertices collinear)
// contribute nothing.
func Rasterize(regions []annotation.Region, height, width int) (*Mask, error) {
	m, err := New(height, width)
	if err != nil {
		return nil, err
	}

	for _, region := range regions {
		m.FillRegion(region)
	}

	return m, nil
}

// FillRegion ORs a single polygon into the mask.
func (m *Mask) FillRegion(region annotation.Region) {
	if IsDegenerate(region) {
		return
	}

	m.fillInterior(region)

	for i := range region {
		m.drawEdge(region[i], region[(i+1)%len(region)])
	}
}

// IsDegenerate reports whether a region encloses no area: it has fewer than 3
// vertices or all of them lie on one line. A self-intersecting region whose
// signed lobes cancel (a bowtie) still encloses area and is not degenerate.
func IsDegenerate(region annotation.Region) bool {
	if len(region) < 3 {
		return true
	}

	a := region[0]
	var b annotation.Vertex
	found := false
	for _, v := range region[1:] {
		if v != a {
			b, found = v, true
			break
		}
	}
	if !found {
		return true
	}

	for _, c := range region {
		if cross(a, b, c) != 0 {
			return false
		}
	}

	return true
}

// cross is the z component of (b-a) x (c-a), exact in int64.
func cross(a, b, c annotation.Vertex) int64 {
	return int64(b.X-a.X)*int64(c.Y-a.Y) - int64(b.Y-a.Y)*int64(c.X-a.X)
}

// SignedArea is the shoelace area, positive for counter-clockwise vertex order
// in a y-up frame. Self-intersecting regions can have zero net area while still
// enclosing pixels, so this is not a degeneracy test.
func SignedArea(region annotation.Region) float64 {
	var twice int64
	for i := range region {
		a := region[i]
		b := region[(i+1)%len(region)]
		twice += int64(a.X)*int64(b.Y) - int64(b.X)*int64(a.Y)
	}

	return float64(twice) / 2
}

// fillInterior scans each row, collects the x crossings of every edge with
// the half-open y rule, and fills between alternating pairs.
func (m *Mask) fillInterior(region annotation.Region) {
	minY, maxY := region[0].Y, region[0].Y
	for _, v := range region[1:] {
		if v.Y < minY {
			minY = v.Y
		}
		if v.Y > maxY {
			maxY = v.Y
		}
	}
	if minY < 0 {
		minY = 0
	}
	if maxY > m.Height-1 {
		maxY = m.Height - 1
	}

	crossings := make([]float64, 0, len(region))
	for y := minY; y <= maxY; y++ {
		crossings = crossings[:0]

		for i := range region {
			a := region[i]
			b := region[(i+1)%len(region)]

			// Horizontal edges never cross a scan line; they are drawn as
			// edges instead
			if a.Y == b.Y {
				continue
			}
			if (a.Y <= y && y < b.Y) || (b.Y <= y && y < a.Y) {
				t := float64(y-a.Y) / float64(b.Y-a.Y)
				crossings = append(crossings, float64(a.X)+t*float64(b.X-a.X))
			}
		}

		sort.Float64s(crossings)

		for i := 0; i+1 < len(crossings); i += 2 {
			m.fillSpan(y, int(math.Ceil(crossings[i])), int(math.Floor(crossings[i+1])))
		}
	}
}

func (m *Mask) fillSpan(row, from, to int) {
	if from < 0 {
		from = 0
	}
	if to > m.Width-1 {
		to = m.Width - 1
	}

	offset := row * m.Width
	for col := from; col <= to; col++ {
		m.Pix[offset+col] = Foreground
	}
}

// drawEdge marks the pixels along a polygon edge. It steps along the major
// axis, restricted to the canvas so that far out-of-bounds vertices stay
// cheap.
func (m *Mask) drawEdge(a, b annotation.Vertex) {
	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx == 0 && dy == 0 {
		m.Set(a.Y, a.X)
		return
	}

	if abs(dx) >= abs(dy) {
		lo, hi := a, b
		if lo.X > hi.X {
			lo, hi = hi, lo
		}
		slope := float64(hi.Y-lo.Y) / float64(hi.X-lo.X)
		from, to := clamp(lo.X, 0, m.Width-1), clamp(hi.X, 0, m.Width-1)
		if lo.X > m.Width-1 || hi.X < 0 {
			return
		}
		for x := from; x <= to; x++ {
			y := roundHalfUp(float64(lo.Y) + float64(x-lo.X)*slope)
			m.Set(y, x)
		}

		return
	}

	lo, hi := a, b
	if lo.Y > hi.Y {
		lo, hi = hi, lo
	}
	slope := float64(hi.X-lo.X) / float64(hi.Y-lo.Y)
	if lo.Y > m.Height-1 || hi.Y < 0 {
		return
	}
	from, to := clamp(lo.Y, 0, m.Height-1), clamp(hi.Y, 0, m.Height-1)
	for y := from; y <= to; y++ {
		x := roundHalfUp(float64(lo.X) + float64(y-lo.Y)*slope)
		m.Set(y, x)
	}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
