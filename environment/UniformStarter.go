package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting conditions independently and
// uniformly from one interval per dimension. Degenerate intervals with
// Min == Max always produce Min.
type UniformStarter struct {
	bounds []r1.Interval
	rand   *distmv.Uniform
}

// NewUniformStarter returns a new UniformStarter sampling dimension i
// from bounds[i]
func NewUniformStarter(bounds []r1.Interval, seed uint64) *UniformStarter {
	source := rand.NewSource(seed)
	rand := distmv.NewUniform(bounds, source)

	b := make([]r1.Interval, len(bounds))
	copy(b, bounds)

	return &UniformStarter{b, rand}
}

// Start samples and returns a new vector of starting conditions
func (u *UniformStarter) Start() *mat.VecDense {
	sample := u.rand.Rand(nil)
	return mat.NewVecDense(len(sample), sample)
}

// Bounds returns the sampling interval of each dimension
func (u *UniformStarter) Bounds() []r1.Interval {
	b := make([]r1.Interval, len(u.bounds))
	copy(b, u.bounds)
	return b
}
