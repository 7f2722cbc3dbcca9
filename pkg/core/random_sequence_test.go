package core

import (
	"testing"
)

func drawN(s *RandomSequence, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Next()
	}
	return out
}

func TestRandomSequence_ReplayAfterReset(t *testing.T) {
	seq := NewRandomSequence(42)
	first := drawN(seq, 20)

	seq.Reset()
	second := drawN(seq, 20)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Draw %d differs on replay: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestRandomSequence_SameSeedSameDraws(t *testing.T) {
	a := drawN(NewRandomSequence(7), 10)
	b := drawN(NewRandomSequence(7), 10)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Draw %d differs between equal seeds", i)
		}
	}
}

func TestRandomSequence_CloneReplaysIdentically(t *testing.T) {
	seq := NewRandomSequence(3)
	original := drawN(seq, 12)
	seq.Mark()

	clone := seq.Clone()
	clone.Reset()
	replayed := drawN(clone, 12)

	for i := range original {
		if original[i] != replayed[i] {
			t.Fatalf("Clone draw %d = %v, want %v", i, replayed[i], original[i])
		}
	}

	// Advancing the clone must not disturb the parent
	clone.MutateAll(0.5)
	clone.Reset()
	drawN(clone, 12)
	seq.Reset()
	again := drawN(seq, 12)
	for i := range original {
		if original[i] != again[i] {
			t.Fatalf("Parent draw %d changed after clone mutation", i)
		}
	}
}

func TestRandomSequence_CloneTruncatesAtCursor(t *testing.T) {
	seq := NewRandomSequence(5)
	drawN(seq, 10)
	seq.Reset()
	drawN(seq, 4)

	clone := seq.Clone()
	if clone.Len() != 4 {
		t.Errorf("Expected clone to keep 4 draws, got %d", clone.Len())
	}
}

func TestRandomSequence_MarksAreIdempotentOnReplay(t *testing.T) {
	seq := NewRandomSequence(11)
	drawN(seq, 3)
	seq.Mark()
	drawN(seq, 2)
	seq.Mark()

	seq.Reset()
	drawN(seq, 3)
	seq.Mark()
	drawN(seq, 2)
	seq.Mark()

	if len(seq.marks) != 2 {
		t.Fatalf("Expected 2 marks after replay, got %d", len(seq.marks))
	}
	if seq.marks[0] != 3 || seq.marks[1] != 5 {
		t.Errorf("Expected marks [3 5], got %v", seq.marks)
	}
}

func TestRandomSequence_MutateSegmentTouchesOnlySegment(t *testing.T) {
	seq := NewRandomSequence(19)
	before := drawN(seq, 3)
	seq.Mark()
	before = append(before, drawN(seq, 2)...)
	seq.Mark()
	before = append(before, drawN(seq, 4)...)
	seq.Mark()

	clone := seq.Clone()
	clone.Reset()
	clone.MutateSegment(1, 0.1)
	after := drawN(clone, 9)

	tests := []struct {
		name    string
		index   int
		changed bool
	}{
		{"first segment start", 0, false},
		{"first segment end", 2, false},
		{"image segment x", 3, true},
		{"image segment y", 4, true},
		{"eye segment", 5, false},
		{"eye segment end", 8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changed := before[tt.index] != after[tt.index]
			if changed != tt.changed {
				t.Errorf("Draw %d changed=%v, want %v", tt.index, changed, tt.changed)
			}
		})
	}

	for i := 3; i < 5; i++ {
		d := after[i] - before[i]
		if d > 0.5 {
			d -= 1
		} else if d < -0.5 {
			d += 1
		}
		if d < -0.1 || d > 0.1 {
			t.Errorf("Perturbation of draw %d is %f, outside width 0.1", i, d)
		}
	}
}

func TestRandomSequence_MutateFromCursor(t *testing.T) {
	seq := NewRandomSequence(23)
	before := drawN(seq, 2)
	seq.Mark()
	before = append(before, drawN(seq, 3)...)
	seq.Mark()

	seq.Reset()
	drawN(seq, 2)
	seq.Mark()
	seq.Mutate(0.2)
	after := append([]float64{before[0], before[1]}, drawN(seq, 3)...)

	for i := 2; i < 5; i++ {
		if after[i] == before[i] {
			t.Errorf("Expected draw %d to be perturbed", i)
		}
	}
}

func TestRandomSequence_ValuesStayInUnitInterval(t *testing.T) {
	seq := NewRandomSequence(31)
	drawN(seq, 50)
	for round := 0; round < 20; round++ {
		seq.Reset()
		seq.MutateAll(0.9)
		for i, v := range drawN(seq, 50) {
			if v < 0 || v >= 1 {
				t.Fatalf("Round %d draw %d out of range: %f", round, i, v)
			}
		}
	}
}

func TestWrap01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.25, 0.25},
		{1.25, 0.25},
		{-0.25, 0.75},
		{1.0, 0.0},
	}
	for _, tt := range tests {
		if got := wrap01(tt.in); got != tt.want {
			t.Errorf("wrap01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRandomSequence_ClonesDrawIndependently(t *testing.T) {
	fresh := func(seed int64) ([]float64, []float64) {
		seq := NewRandomSequence(seed)
		drawN(seq, 10)
		a, b := seq.Clone(), seq.Clone()
		return drawN(a, 8), drawN(b, 8)
	}

	a, b := fresh(5)
	same := 0
	for i := range a {
		if a[i] == b[i] {
			same++
		}
	}
	if same == len(a) {
		t.Error("Successive clones must not share fresh draws")
	}

	again, _ := fresh(5)
	for i := range a {
		if a[i] != again[i] {
			t.Fatalf("Fresh draw %d differs between equal seeds: %v vs %v", i, a[i], again[i])
		}
	}
}

func BenchmarkRandomSequence_Clone(b *testing.B) {
	seq := NewRandomSequence(1)
	drawN(seq, 64)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		clone := seq.Clone()
		clone.Reset()
		clone.MutateAll(0.05)
		drawN(clone, 64)
	}
}
