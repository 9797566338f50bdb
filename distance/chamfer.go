package distance

import "github.com/carbocation/nucleiseg/mask"

// Chamfer weights for a 5x5 neighborhood: axial, diagonal and knight's move.
const (
	chamferA = 1.0
	chamferB = 1.4
	chamferC = 2.1969
)

type chamferStep struct {
	dRow, dCol int
	weight     float64
}

// Neighbors already visited by the forward (top-left to bottom-right) pass.
// The backward pass uses the same offsets mirrored.
var forwardSteps = []chamferStep{
	{-2, -1, chamferC}, {-2, 1, chamferC},
	{-1, -2, chamferC}, {-1, -1, chamferB}, {-1, 0, chamferA}, {-1, 1, chamferB}, {-1, 2, chamferC},
	{0, -1, chamferA},
}

func chamfer5(m *mask.Mask) []float64 {
	h, w := m.Height, m.Width

	dist := make([]float64, h*w)
	for i, v := range m.Pix {
		if v != mask.Background {
			dist[i] = inf
		}
	}

	relax := func(row, col, sign int) {
		idx := row*w + col
		if dist[idx] == 0 {
			return
		}
		best := dist[idx]
		for _, s := range forwardSteps {
			r, c := row+sign*s.dRow, col+sign*s.dCol
			if r < 0 || c < 0 || r >= h || c >= w {
				continue
			}
			if cand := dist[r*w+c] + s.weight; cand < best {
				best = cand
			}
		}
		dist[idx] = best
	}

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			relax(row, col, 1)
		}
	}
	for row := h - 1; row >= 0; row-- {
		for col := w - 1; col >= 0; col-- {
			relax(row, col, -1)
		}
	}

	return dist
}
