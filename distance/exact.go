package distance

import (
	"math"

	"github.com/carbocation/nucleiseg/mask"
)

// inf stands in for "no background seen yet". It must stay finite so that the
// parabola intersections below remain ordered.
const inf = 1e20

// exactEuclidean is the separable squared-distance transform of Felzenszwalb
// and Huttenlocher (Theory of Computing, 2012): a 1D lower envelope of
// parabolas down every column, then along every row.
func exactEuclidean(m *mask.Mask) []float64 {
	h, w := m.Height, m.Width

	sq := make([]float64, h*w)
	for i, v := range m.Pix {
		if v != mask.Background {
			sq[i] = inf
		}
	}

	n := h
	if w > n {
		n = w
	}
	f := make([]float64, n)
	d := make([]float64, n)
	v := make([]int, n)
	z := make([]float64, n+1)

	// Columns
	for col := 0; col < w; col++ {
		for row := 0; row < h; row++ {
			f[row] = sq[row*w+col]
		}
		envelope(f[:h], d[:h], v, z)
		for row := 0; row < h; row++ {
			sq[row*w+col] = d[row]
		}
	}

	// Rows
	for row := 0; row < h; row++ {
		copy(f[:w], sq[row*w:(row+1)*w])
		envelope(f[:w], d[:w], v, z)
		copy(sq[row*w:(row+1)*w], d[:w])
	}

	for i := range sq {
		sq[i] = math.Sqrt(sq[i])
	}

	return sq
}

// envelope writes into d the 1D squared distance transform of the sampled
// function f.
func envelope(f, d []float64, v []int, z []float64) {
	n := len(f)
	if n == 0 {
		return
	}

	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)

	for q := 1; q < n; q++ {
		s := intersect(f, q, v[k])
		for s <= z[k] {
			k--
			s = intersect(f, q, v[k])
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		d[q] = dq*dq + f[v[k]]
	}
}

// intersect is the abscissa where the parabolas rooted at q and p meet.
func intersect(f []float64, q, p int) float64 {
	fq, fp := float64(q), float64(p)
	return ((f[q] + fq*fq) - (f[p] + fp*fp)) / (2*fq - 2*fp)
}
