package montecarlo

import (
	"math"
	"math/rand/v2"
)

// Source supplies uniform samples in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSeededSource returns a reproducible PCG-backed source.
func NewSeededSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RandomSeed draws a seed from the runtime generator so an unseeded run can
// still be reported and replayed.
func RandomSeed() uint64 {
	return rand.Uint64()
}

// NormalSampler turns a uniform source into standard normal variates with the
// Box–Muller transform.
type NormalSampler struct {
	src Source
}

// NewNormalSampler wraps src.
func NewNormalSampler(src Source) *NormalSampler {
	return &NormalSampler{src: src}
}

// uniform maps [0, 1) onto (0, 1] so the logarithm below never sees zero.
func (n *NormalSampler) uniform() float64 {
	return 1 - n.src.Float64()
}

// Next draws two uniforms and returns one standard normal sample.
func (n *NormalSampler) Next() float64 {
	u1 := n.uniform()
	u2 := n.uniform()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
