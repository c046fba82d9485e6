package database

import (
	"math"
	"testing"
)

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{-1, 0, 0},
			expected: 2.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0},
			b:        []float32{0, 1},
			expected: 1.0,
		},
		{
			name:     "scaled vectors are identical",
			a:        []float32{1, 2, 3},
			b:        []float32{2, 4, 6},
			expected: 0.0,
		},
		{
			name:     "mismatched lengths",
			a:        []float32{1, 2},
			b:        []float32{1, 2, 3},
			expected: 2.0,
		},
		{
			name:     "empty vectors",
			a:        []float32{},
			b:        []float32{},
			expected: 2.0,
		},
		{
			name:     "zero vector",
			a:        []float32{0, 0, 0},
			b:        []float32{1, 2, 3},
			expected: 2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CosineDistance(tt.a, tt.b)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("CosineDistance(%v, %v) = %v, want %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestValidateVector(t *testing.T) {
	if err := ValidateVector([]float32{1, 2, 3}, 3); err != nil {
		t.Errorf("expected valid vector, got error: %v", err)
	}

	if err := ValidateVector([]float32{1, 2}, 3); err == nil {
		t.Error("expected dimension error, got nil")
	}

	if err := ValidateVector([]float32{1, float32(math.NaN()), 3}, 3); err == nil {
		t.Error("expected NaN error, got nil")
	}

	if err := ValidateVector([]float32{1, float32(math.Inf(1)), 3}, 3); err == nil {
		t.Error("expected Inf error, got nil")
	}
}
