package mask

import (
	"github.com/theodesp/unionfind"
)

// Components counts 4-connected foreground components. Touching nuclei merge
// into one component, so this is a lower bound on the nucleus count.
//
// Each foreground pixel is joined with its foreground neighbours above and to
// the left; the components are the distinct roots that remain.
func (m *Mask) Components() int {
	if len(m.Pix) == 0 {
		return 0
	}

	uf := unionfind.New(len(m.Pix))

	for row := 0; row < m.Height; row++ {
		for col := 0; col < m.Width; col++ {
			idx := row*m.Width + col
			if m.Pix[idx] == Background {
				continue
			}

			if row > 0 && m.Pix[idx-m.Width] != Background {
				uf.Union(idx-m.Width, idx)
			}
			if col > 0 && m.Pix[idx-1] != Background {
				uf.Union(idx-1, idx)
			}
		}
	}

	roots := make(map[int]struct{})
	for idx, v := range m.Pix {
		if v == Background {
			continue
		}
		roots[uf.Root(idx)] = struct{}{}
	}

	return len(roots)
}
