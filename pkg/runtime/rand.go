package runtime

import "math/rand"

// Rand is the injectable randomness source. Every probabilistic effect in
// the engine draws from one of these, so tests can pin outcomes.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

type sysRand struct {
	r *rand.Rand
}

func (s sysRand) Float64() float64 { return s.r.Float64() }
func (s sysRand) Intn(n int) int   { return s.r.Intn(n) }

// NewRand returns a seeded pseudo-random source.
func NewRand(seed int64) Rand {
	return sysRand{r: rand.New(rand.NewSource(seed))}
}

// SequenceRand replays fixed float draws (Intn scales the next draw). When
// the sequence runs out it repeats the last element.
type SequenceRand struct {
	Seq []float64
	pos int
}

func (s *SequenceRand) next() float64 {
	if len(s.Seq) == 0 {
		return 0
	}
	v := s.Seq[s.pos]
	if s.pos < len(s.Seq)-1 {
		s.pos++
	}
	return v
}

func (s *SequenceRand) Float64() float64 { return s.next() }

func (s *SequenceRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(s.next() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
