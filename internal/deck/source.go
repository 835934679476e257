// internal/deck/source.go
package deck

import (
	"math/rand"
	"time"
)

// Source yields floats in [0, 1). Implementations need not be safe for concurrent use.
type Source interface {
	Next() float64
}

// RandSource adapts a math/rand generator to Source.
type RandSource struct {
	r *rand.Rand
}

// NewSource returns a deterministic Source for the given seed.
func NewSource(seed int64) *RandSource {
	return &RandSource{r: rand.New(rand.NewSource(seed))}
}

// NewTimeSource returns a Source seeded from the current time.
func NewTimeSource() *RandSource {
	return NewSource(time.Now().UnixNano())
}

// Next returns the next float in [0, 1).
func (s *RandSource) Next() float64 {
	return s.r.Float64()
}
