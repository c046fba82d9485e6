// Package match resolves a face embedding against the enrolled identity set.
package match

import (
	"fmt"

	"github.com/kozaktomas/face-sentry/internal/database"
)

// Result is the outcome of a nearest-neighbor lookup. Found is false when the
// database is empty or the best distance is at or above the threshold; Distance
// still carries the best distance seen (2.0 for an empty database).
type Result struct {
	Found       bool
	IdentityID  string
	DisplayName string
	Distance    float64
}

// Matcher resolves a query embedding to the best enrolled identity. The linear
// matcher and the HNSW matcher satisfy the same contract, so an approximate
// index can replace the scan without touching callers.
type Matcher interface {
	Match(query []float32) (Result, error)
}

// Linear is a brute-force cosine-distance scan over every enrolled row. At
// single-site enrollment scale (tens to low hundreds of identities) this is
// fast enough and exact; ties break to the first row encountered.
type Linear struct {
	db        *database.DB
	threshold float64
}

// NewLinear creates a linear matcher over the given database.
func NewLinear(db *database.DB, threshold float64) *Linear {
	return &Linear{db: db, threshold: threshold}
}

// Match returns the enrolled row minimizing cosine distance to the query, or a
// not-found result if the minimum is at or above the threshold. A malformed
// query (wrong dimension, NaN/Inf) is an error, never a degenerate distance.
func (m *Linear) Match(query []float32) (Result, error) {
	if err := database.ValidateVector(query, m.db.Dim()); err != nil {
		return Result{}, fmt.Errorf("invalid query embedding: %w", err)
	}

	best := Result{Distance: 2.0}
	for _, row := range m.db.Rows() {
		distance := database.CosineDistance(query, row.Embedding)
		if distance < best.Distance || !best.Found {
			best = Result{
				Found:       true,
				IdentityID:  row.IdentityID,
				DisplayName: row.DisplayName,
				Distance:    distance,
			}
		}
	}

	if !best.Found || best.Distance >= m.threshold {
		return Result{Found: false, Distance: best.Distance}, nil
	}
	return best, nil
}

// HNSW matches against the in-memory HNSW index instead of scanning.
type HNSW struct {
	index     *database.HNSWIndex
	dim       int
	threshold float64
}

// NewHNSW creates a matcher over a prebuilt index.
func NewHNSW(index *database.HNSWIndex, dim int, threshold float64) *HNSW {
	return &HNSW{index: index, dim: dim, threshold: threshold}
}

// Match returns the approximate nearest enrolled row below the threshold.
func (m *HNSW) Match(query []float32) (Result, error) {
	if err := database.ValidateVector(query, m.dim); err != nil {
		return Result{}, fmt.Errorf("invalid query embedding: %w", err)
	}

	row, distance, ok := m.index.Nearest(query)
	if !ok {
		return Result{Found: false, Distance: 2.0}, nil
	}
	if distance >= m.threshold {
		return Result{Found: false, Distance: distance}, nil
	}
	return Result{
		Found:       true,
		IdentityID:  row.IdentityID,
		DisplayName: row.DisplayName,
		Distance:    distance,
	}, nil
}
