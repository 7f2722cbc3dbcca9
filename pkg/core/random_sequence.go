package core

import (
	"math"
	"math/rand/v2"
)

// RandomSequence is a replayable stream of uniform draws.
//
// Every value handed out is recorded. After Reset the same values are returned again
// in order, so sampling code driven by the sequence retraces the same path. Marks split
// the recorded draws into segments; Mutate flags draws for a small perturbation that is
// applied the next time they are read. Draws past the end of the record come fresh from
// the sequence's own source and are appended.
type RandomSequence struct {
	values    []float64
	cursor    int
	marks     []int
	markIndex int
	pending   map[int]float64 // index -> perturbation width
	source    *rand.Rand // PCG: small enough to create one per proposal
}

// NewRandomSequence creates an empty sequence whose fresh draws come from seed
func NewRandomSequence(seed int64) *RandomSequence {
	return &RandomSequence{
		pending: make(map[int]float64),
		source:  rand.New(rand.NewPCG(uint64(seed), uint64(seed)*0x9e3779b97f4a7c15)),
	}
}

// Next returns the next draw in [0, 1)
func (s *RandomSequence) Next() float64 {
	if s.cursor < len(s.values) {
		v := s.values[s.cursor]
		if width, ok := s.pending[s.cursor]; ok {
			v = wrap01(v + (2*s.source.Float64()-1)*width)
			s.values[s.cursor] = v
			delete(s.pending, s.cursor)
		}
		s.cursor++
		return v
	}

	v := s.source.Float64()
	s.values = append(s.values, v)
	s.cursor++
	return v
}

// Mark commits a segment boundary at the cursor. The i-th Mark after a Reset
// overwrites the i-th boundary, so replays keep marks consistent.
func (s *RandomSequence) Mark() {
	if s.markIndex < len(s.marks) {
		s.marks[s.markIndex] = s.cursor
	} else {
		s.marks = append(s.marks, s.cursor)
	}
	s.markIndex++
}

// Clone returns an independent copy of the draws consumed so far.
// Its fresh draws come from a source seeded off this sequence's source.
func (s *RandomSequence) Clone() *RandomSequence {
	c := &RandomSequence{
		values:  append([]float64(nil), s.values[:s.cursor]...),
		cursor:  s.cursor,
		pending: make(map[int]float64),
		source:  rand.New(rand.NewPCG(s.source.Uint64(), s.source.Uint64())),
	}
	for _, m := range s.marks {
		if m > s.cursor {
			break
		}
		c.marks = append(c.marks, m)
	}
	c.markIndex = len(c.marks)
	for i, w := range s.pending {
		if i < s.cursor {
			c.pending[i] = w
		}
	}
	return c
}

// Reset rewinds to the first draw
func (s *RandomSequence) Reset() {
	s.cursor = 0
	s.markIndex = 0
}

// Mutate flags the recorded draws from the cursor up to the next mark
func (s *RandomSequence) Mutate(width float64) {
	end := len(s.values)
	if s.markIndex < len(s.marks) {
		end = s.marks[s.markIndex]
	}
	s.flag(s.cursor, end, width)
}

// MutateSegment flags the draws of segment k: those between mark k-1 and mark k.
// The segment after the last mark runs to the end of the record.
func (s *RandomSequence) MutateSegment(k int, width float64) {
	start := 0
	if k > 0 {
		if k-1 >= len(s.marks) {
			return
		}
		start = s.marks[k-1]
	}
	end := len(s.values)
	if k < len(s.marks) {
		end = s.marks[k]
	}
	s.flag(start, end, width)
}

// MutateAll flags every recorded draw
func (s *RandomSequence) MutateAll(width float64) {
	s.flag(0, len(s.values), width)
}

func (s *RandomSequence) flag(start, end int, width float64) {
	if width <= 0 {
		return
	}
	for i := start; i < end && i < len(s.values); i++ {
		s.pending[i] = width
	}
}

// Len returns the number of recorded draws
func (s *RandomSequence) Len() int {
	return len(s.values)
}

// Cursor returns the index of the next draw
func (s *RandomSequence) Cursor() int {
	return s.cursor
}

// Get1D returns the next draw
func (s *RandomSequence) Get1D() float64 {
	return s.Next()
}

// Get2D returns the next two draws
func (s *RandomSequence) Get2D() Vec2 {
	x := s.Next()
	return NewVec2(x, s.Next())
}

// Get3D returns the next three draws
func (s *RandomSequence) Get3D() Vec3 {
	x := s.Next()
	y := s.Next()
	return NewVec3(x, y, s.Next())
}

// wrap01 folds v into [0, 1)
func wrap01(v float64) float64 {
	v -= math.Floor(v)
	if v >= 1 {
		return 0
	}
	return v
}
