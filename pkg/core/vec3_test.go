package core

import (
	"math"
	"testing"
)

func TestVec3_Reflect(t *testing.T) {
	tests := []struct {
		name     string
		vector   Vec3
		normal   Vec3
		expected Vec3
	}{
		{
			name:     "Straight down onto floor",
			vector:   NewVec3(0, -1, 0),
			normal:   NewVec3(0, 1, 0),
			expected: NewVec3(0, 1, 0),
		},
		{
			name:     "45 degree incidence",
			vector:   NewVec3(1, -1, 0).Normalize(),
			normal:   NewVec3(0, 1, 0),
			expected: NewVec3(1, 1, 0).Normalize(),
		},
		{
			name:     "Grazing stays unchanged",
			vector:   NewVec3(1, 0, 0),
			normal:   NewVec3(0, 1, 0),
			expected: NewVec3(1, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.vector.Reflect(tt.normal)

			const tolerance = 1e-9
			if result.Subtract(tt.expected).Length() > tolerance {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestVec3_Divide(t *testing.T) {
	v := NewVec3(2, 4, 6)
	if got := v.Divide(2); got != NewVec3(1, 2, 3) {
		t.Errorf("Expected (1,2,3), got %v", got)
	}
	if got := v.Divide(0); !got.IsZero() {
		t.Errorf("Expected zero vector on division by zero, got %v", got)
	}
}

func TestVec3_HasNaN(t *testing.T) {
	if NewVec3(1, 2, 3).HasNaN() {
		t.Error("Finite vector reported NaN")
	}
	if !NewVec3(1, math.NaN(), 3).HasNaN() {
		t.Error("NaN component not detected")
	}
}

func TestVec3_Luminance(t *testing.T) {
	white := NewVec3(1, 1, 1)
	if math.Abs(white.Luminance()-1.0) > 1e-12 {
		t.Errorf("Expected white luminance 1, got %f", white.Luminance())
	}
}
