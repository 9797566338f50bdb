package distance

import (
	"math"
	"math/rand"
	"testing"

	"github.com/carbocation/nucleiseg/annotation"
	"github.com/carbocation/nucleiseg/mask"
)

const tolerance = 1e-6

func squareBlockMask(t *testing.T) *mask.Mask {
	t.Helper()

	m, err := mask.Rasterize([]annotation.Region{{{X: 2, Y: 2}, {X: 2, Y: 8}, {X: 8, Y: 8}, {X: 8, Y: 2}}}, 10, 10)
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func randomMask(seed int64, height, width int, density float64) *mask.Mask {
	rng := rand.New(rand.NewSource(seed))
	m, _ := mask.New(height, width)
	for i := range m.Pix {
		if rng.Float64() < density {
			m.Pix[i] = mask.Foreground
		}
	}

	return m
}

// bruteForce measures every cell against every background cell.
func bruteForce(m *mask.Mask) []float64 {
	out := make([]float64, len(m.Pix))
	for row := 0; row < m.Height; row++ {
		for col := 0; col < m.Width; col++ {
			if m.At(row, col) == mask.Background {
				continue
			}
			best := math.Inf(1)
			for r := 0; r < m.Height; r++ {
				for c := 0; c < m.Width; c++ {
					if m.At(r, c) != mask.Background {
						continue
					}
					if d := math.Hypot(float64(row-r), float64(col-c)); d < best {
						best = d
					}
				}
			}
			out[row*m.Width+col] = best
		}
	}

	return out
}

func TestSquareBlockEndToEnd(t *testing.T) {
	for _, metric := range []Metric{MetricExact, MetricChamfer5} {
		t.Run(metric.String(), func(t *testing.T) {
			field, err := Build(squareBlockMask(t), metric)
			if err != nil {
				t.Fatal(err)
			}

			if got := field.At(5, 5); math.Abs(got-1.0) > tolerance {
				t.Errorf("Center = %v, want 1.0", got)
			}

			// Background bordering the block
			for i := 1; i <= 9; i++ {
				for _, rc := range [][2]int{{1, i}, {9, i}, {i, 1}, {i, 9}} {
					if got := field.At(rc[0], rc[1]); got != 0 {
						t.Errorf("Background (%d,%d) = %v, want 0", rc[0], rc[1], got)
					}
				}
			}

			// The block's outermost ring is one pixel from background, and
			// the center is four
			for i := 2; i <= 8; i++ {
				for _, rc := range [][2]int{{2, i}, {8, i}, {i, 2}, {i, 8}} {
					if got := field.At(rc[0], rc[1]); math.Abs(got-0.25) > tolerance {
						t.Errorf("Edge (%d,%d) = %v, want 0.25", rc[0], rc[1], got)
					}
				}
			}
		})
	}
}

func TestNormalizationRange(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		m := randomMask(seed, 23, 31, 0.7)

		field, err := Build(m, MetricExact)
		if err != nil {
			t.Fatal(err)
		}

		for i, v := range field.Values {
			if v < 0 || v > 1 {
				t.Fatalf("Seed %d: value %d = %v is outside [0, 1]", seed, i, v)
			}
		}

		if field.Min() != 0 {
			t.Errorf("Seed %d: min = %v, want 0", seed, field.Min())
		}
		if math.Abs(field.Max()-1) > tolerance {
			t.Errorf("Seed %d: max = %v, want 1", seed, field.Max())
		}
	}
}

func TestAllBackground(t *testing.T) {
	m, err := mask.New(7, 5)
	if err != nil {
		t.Fatal(err)
	}

	for _, metric := range []Metric{MetricExact, MetricChamfer5} {
		field, err := Build(m, metric)
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range field.Values {
			if v != 0 || math.IsNaN(v) {
				t.Fatalf("%v: value %d = %v, want 0", metric, i, v)
			}
		}
	}
}

func TestAllForeground(t *testing.T) {
	m, err := mask.New(5, 7)
	if err != nil {
		t.Fatal(err)
	}
	for i := range m.Pix {
		m.Pix[i] = mask.Foreground
	}

	raw, err := Transform(m, MetricExact)
	if err != nil {
		t.Fatal(err)
	}

	// Corner cells touch the virtual border, the center is 3 from the top
	if raw.At(0, 0) != 1 || raw.At(2, 3) != 3 {
		t.Errorf("Unexpected border distances: corner %v, center %v", raw.At(0, 0), raw.At(2, 3))
	}

	field := Normalize(raw, Epsilon)
	for i, v := range field.Values {
		if math.IsNaN(v) || v < 0 || v > 1 {
			t.Fatalf("Value %d = %v is outside [0, 1]", i, v)
		}
	}
}

func TestExactMatchesBruteForce(t *testing.T) {
	for seed := int64(10); seed < 16; seed++ {
		m := randomMask(seed, 17, 13, 0.85)
		if m.Count() == len(m.Pix) {
			continue
		}

		raw, err := Transform(m, MetricExact)
		if err != nil {
			t.Fatal(err)
		}

		want := bruteForce(m)
		for i := range want {
			if math.Abs(raw.Values[i]-want[i]) > 1e-9 {
				t.Fatalf("Seed %d: cell %d = %v, want %v", seed, i, raw.Values[i], want[i])
			}
		}
	}
}

func TestChamferApproximatesExact(t *testing.T) {
	m := randomMask(42, 40, 40, 0.97)

	exact, err := Transform(m, MetricExact)
	if err != nil {
		t.Fatal(err)
	}
	approx, err := Transform(m, MetricChamfer5)
	if err != nil {
		t.Fatal(err)
	}

	for i := range exact.Values {
		e, a := exact.Values[i], approx.Values[i]
		if e == 0 {
			if a != 0 {
				t.Fatalf("Cell %d is background but chamfer reads %v", i, a)
			}
			continue
		}
		if rel := math.Abs(a-e) / e; rel > 0.05 {
			t.Errorf("Cell %d: chamfer %v vs exact %v (relative error %.3f)", i, a, e, rel)
		}
	}
}

func TestBackgroundIsExactlyZero(t *testing.T) {
	m := randomMask(7, 19, 19, 0.5)

	for _, metric := range []Metric{MetricExact, MetricChamfer5} {
		raw, err := Transform(m, metric)
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range m.Pix {
			if v == mask.Background && raw.Values[i] != 0 {
				t.Fatalf("%v: background cell %d reads %v", metric, i, raw.Values[i])
			}
		}
	}
}

func TestDeterministicAndInputUntouched(t *testing.T) {
	m := randomMask(3, 25, 25, 0.8)
	before := append([]uint8(nil), m.Pix...)

	a, err := Build(m, MetricExact)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(m, MetricExact)
	if err != nil {
		t.Fatal(err)
	}

	for i := range a.Values {
		if math.Float64bits(a.Values[i]) != math.Float64bits(b.Values[i]) {
			t.Fatalf("Cell %d differs between runs: %v vs %v", i, a.Values[i], b.Values[i])
		}
	}

	for i := range before {
		if before[i] != m.Pix[i] {
			t.Fatalf("Mask cell %d was modified", i)
		}
	}
}

func TestTransformRejectsInvalidMask(t *testing.T) {
	if _, err := Transform(nil, MetricExact); err == nil {
		t.Error("Expected an error for a nil mask")
	}
	if _, err := Transform(&mask.Mask{Height: 2, Width: 2, Pix: []uint8{0}}, MetricExact); err == nil {
		t.Error("Expected an error for a mask with the wrong number of cells")
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    Metric
		wantErr bool
	}{
		{"", MetricExact, false},
		{"exact", MetricExact, false},
		{"Chamfer5", MetricChamfer5, false},
		{"opencv", MetricChamfer5, false},
		{"manhattan", MetricExact, true},
	}

	for _, tt := range tests {
		got, err := ParseMetric(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMetric(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMetric(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFloat32(t *testing.T) {
	f := &Field{Height: 1, Width: 3, Values: []float64{0, 0.5, 1}}
	got := f.Float32()
	if len(got) != 3 || got[1] != 0.5 || got[2] != 1 {
		t.Errorf("Unexpected float32 values %v", got)
	}
}
