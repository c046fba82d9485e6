package database

import (
	"errors"

	"github.com/coder/hnsw"
)

// HNSWMaxNeighbors is the M parameter for the HNSW graph.
const HNSWMaxNeighbors = 16

// HNSWIndex wraps an HNSW graph over the enrolled embedding rows. Node keys are
// row positions in the DB, so a search result projects straight back to an
// Identity. The index is built once from an immutable DB and never mutated, so
// it needs no locking.
type HNSWIndex struct {
	graph *hnsw.Graph[int]
	db    *DB
}

// BuildHNSWIndex builds the index from every row of the database.
func BuildHNSWIndex(db *DB) (*HNSWIndex, error) {
	if db == nil {
		return nil, errors.New("nil database")
	}

	g := hnsw.NewGraph[int]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance

	for i, row := range db.Rows() {
		if len(row.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(i, row.Embedding))
	}

	return &HNSWIndex{graph: g, db: db}, nil
}

// Nearest returns the enrolled row closest to the query and its cosine distance.
// The distance is recomputed exactly from the node's embedding rather than
// trusting graph internals. ok is false when the index is empty.
func (h *HNSWIndex) Nearest(query []float32) (row Identity, distance float64, ok bool) {
	neighbors := h.graph.Search(query, 1)
	if len(neighbors) == 0 {
		return Identity{}, 0, false
	}

	n := neighbors[0]
	return h.db.Rows()[n.Key], CosineDistance(query, n.Value), true
}

// Len returns the number of indexed rows.
func (h *HNSWIndex) Len() int {
	return h.graph.Len()
}
