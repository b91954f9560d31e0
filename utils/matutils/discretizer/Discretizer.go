// Package discretizer implements uniform binning of bounded vectors into
// a single table index
package discretizer

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Discretizer maps continuous vectors onto a finite set of indices.
// Each dimension i is split into n equal-width bins over bounds[i], and
// a value is placed into the bin given by the number of bin edges less
// than or equal to it. Values below the lower bound fall into bin 0 and
// values above the upper bound into bin n-1.
//
// The bin ids of a d-dimensional vector are combined into a single
// index with the mixed-radix encoding
//
//	index = Σ bin[i] · n^(d-1-i)
//
// For n = 10 this is the same as concatenating the decimal digits of
// the bin ids, so that the bins (1, 0, 9, 4) have index 1094. Unlike
// digit concatenation, the encoding stays injective for n > 10.
type Discretizer struct {
	bounds []r1.Interval
	edges  [][]float64
	bins   int
	states int
}

// New returns a new Discretizer splitting each of the intervals in
// bounds into bins bins
func New(bounds []r1.Interval, bins int) (*Discretizer, error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("new: at least one dimension is required")
	}
	if bins < 1 {
		return nil, fmt.Errorf("new: number of bins must be positive, "+
			"got %d", bins)
	}

	states := 1
	for range bounds {
		if states > math.MaxInt/bins {
			return nil, fmt.Errorf("new: %d bins over %d dimensions "+
				"overflows the index", bins, len(bounds))
		}
		states *= bins
	}

	edges := make([][]float64, len(bounds))
	for i, bound := range bounds {
		if !(bound.Min < bound.Max) {
			return nil, fmt.Errorf("new: dimension %d has empty bounds %v",
				i, bound)
		}

		// Outer edges are dropped so that out-of-range values are
		// placed in the outermost bins
		span := floats.Span(make([]float64, bins+1), bound.Min, bound.Max)
		edges[i] = span[1:bins]
	}

	b := make([]r1.Interval, len(bounds))
	copy(b, bounds)

	return &Discretizer{b, edges, bins, states}, nil
}

// Digitize returns the bin id of each dimension of v
func (d *Discretizer) Digitize(v mat.Vector) []int {
	if v.Len() != len(d.edges) {
		panic(fmt.Sprintf("digitize: expected vector of length %d, got %d",
			len(d.edges), v.Len()))
	}

	ids := make([]int, v.Len())
	for i, edges := range d.edges {
		value := v.AtVec(i)
		ids[i] = sort.Search(len(edges), func(j int) bool {
			return edges[j] > value
		})
	}
	return ids
}

// Index returns the table index of the vector v
func (d *Discretizer) Index(v mat.Vector) int {
	return d.Encode(d.Digitize(v))
}

// Encode combines bin ids into a single table index
func (d *Discretizer) Encode(ids []int) int {
	index := 0
	for _, id := range ids {
		index = index*d.bins + id
	}
	return index
}

// Decode returns the bin ids of a table index
func (d *Discretizer) Decode(index int) []int {
	ids := make([]int, len(d.edges))
	for i := len(ids) - 1; i >= 0; i-- {
		ids[i] = index % d.bins
		index /= d.bins
	}
	return ids
}

// Midpoint returns the vector at the centre of the bins ids
func (d *Discretizer) Midpoint(ids []int) *mat.VecDense {
	mid := make([]float64, len(ids))
	for i, id := range ids {
		width := (d.bounds[i].Max - d.bounds[i].Min) / float64(d.bins)
		mid[i] = d.bounds[i].Min + (float64(id)+0.5)*width
	}
	return mat.NewVecDense(len(mid), mid)
}

// NumStates returns the number of distinct table indices
func (d *Discretizer) NumStates() int {
	return d.states
}

// Bins returns the number of bins per dimension
func (d *Discretizer) Bins() int {
	return d.bins
}

// Dims returns the number of dimensions discretized
func (d *Discretizer) Dims() int {
	return len(d.edges)
}

// Edges returns the interior bin edges of dimension i
func (d *Discretizer) Edges(i int) []float64 {
	edges := make([]float64, len(d.edges[i]))
	copy(edges, d.edges[i])
	return edges
}
