package discretizer

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func cartpoleBounds() []r1.Interval {
	return []r1.Interval{
		{Min: -2.4, Max: 2.4},
		{Min: -1, Max: 1},
		{Min: 78 * math.Pi / 180, Max: 102 * math.Pi / 180},
		{Min: -2, Max: 2},
	}
}

func TestEdges(t *testing.T) {
	d, err := New([]r1.Interval{{Min: 0, Max: 10}}, 10)
	if err != nil {
		t.Fatal(err)
	}

	edges := d.Edges(0)
	if len(edges) != 9 {
		t.Fatalf("got %d edges, want 9", len(edges))
	}
	for i, edge := range edges {
		if math.Abs(edge-float64(i+1)) > 1e-12 {
			t.Errorf("edge %d = %v, want %v", i, edge, i+1)
		}
	}
}

func TestDigitize(t *testing.T) {
	d, err := New([]r1.Interval{{Min: 0, Max: 10}}, 10)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		value float64
		bin   int
	}{
		{-100, 0},
		{0, 0},
		{0.99, 0},
		{1, 1}, // values on an edge belong to the bin above it
		{5.5, 5},
		{9, 9},
		{10, 9},
		{1e9, 9},
	}

	for _, test := range tests {
		got := d.Digitize(mat.NewVecDense(1, []float64{test.value}))[0]
		if got != test.bin {
			t.Errorf("digitize(%v) = %v, want %v", test.value, got, test.bin)
		}
	}
}

func TestMidpointRoundTrip(t *testing.T) {
	d, err := New(cartpoleBounds(), 10)
	if err != nil {
		t.Fatal(err)
	}

	for index := 0; index < d.NumStates(); index++ {
		ids := d.Decode(index)
		if got := d.Index(d.Midpoint(ids)); got != index {
			t.Fatalf("index of midpoint of bins %v = %v, want %v", ids, got,
				index)
		}
	}
}

func TestDigitConcatenation(t *testing.T) {
	d, err := New(cartpoleBounds(), 10)
	if err != nil {
		t.Fatal(err)
	}

	if got := d.Encode([]int{1, 0, 9, 4}); got != 1094 {
		t.Errorf("encode(1, 0, 9, 4) = %v, want 1094", got)
	}
	if got := d.Encode([]int{0, 0, 0, 7}); got != 7 {
		t.Errorf("encode(0, 0, 0, 7) = %v, want 7", got)
	}
	if d.NumStates() != 10000 {
		t.Errorf("number of states = %v, want 10000", d.NumStates())
	}
}

func TestIndexInjective(t *testing.T) {
	for _, bins := range []int{2, 3, 10, 12} {
		bounds := []r1.Interval{
			{Min: 0, Max: 1}, {Min: 0, Max: 1}, {Min: 0, Max: 1}, {Min: 0, Max: 1},
		}
		d, err := New(bounds, bins)
		if err != nil {
			t.Fatal(err)
		}

		seen := make(map[int][]int, d.NumStates())
		ids := make([]int, 4)
		for ids[0] = 0; ids[0] < bins; ids[0]++ {
			for ids[1] = 0; ids[1] < bins; ids[1]++ {
				for ids[2] = 0; ids[2] < bins; ids[2]++ {
					for ids[3] = 0; ids[3] < bins; ids[3]++ {
						index := d.Encode(ids)
						if index < 0 || index >= d.NumStates() {
							t.Fatalf("bins %d: index %d of %v out of range",
								bins, index, ids)
						}
						if other, ok := seen[index]; ok {
							t.Fatalf("bins %d: %v and %v share index %d", bins,
								other, ids, index)
						}
						seen[index] = append([]int(nil), ids...)
					}
				}
			}
		}

		if len(seen) != d.NumStates() {
			t.Errorf("bins %d: %d distinct indices, want %d", bins, len(seen),
				d.NumStates())
		}
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name   string
		bounds []r1.Interval
		bins   int
	}{
		{"no dimensions", nil, 10},
		{"zero bins", cartpoleBounds(), 0},
		{"empty interval", []r1.Interval{{Min: 1, Max: 1}}, 10},
		{"overflow", make([]r1.Interval, 64), 10},
	}

	for _, test := range tests {
		if _, err := New(test.bounds, test.bins); err == nil {
			t.Errorf("%v: expected error", test.name)
		}
	}
}

func BenchmarkIndex(b *testing.B) {
	d, err := New(cartpoleBounds(), 10)
	if err != nil {
		b.Fatal(err)
	}
	v := mat.NewVecDense(4, []float64{0.3, -0.2, math.Pi / 2, 0.1})

	for i := 0; i < b.N; i++ {
		d.Index(v)
	}
}
