package matcher

import (
	"sync"

	"github.com/coder/hnsw"
)

// DuplicateIndex is an in-memory HNSW index over enrolled encodings, used to
// warn the admin when a newly enrolled face sits suspiciously close to another
// employee's. Approximate search is fine here; the authentication path always
// uses the exact scan in Match.
type DuplicateIndex struct {
	graph *hnsw.Graph[int64]
	mu    sync.RWMutex
}

const duplicateMaxNeighbors = 16

func NewDuplicateIndex() *DuplicateIndex {
	g := hnsw.NewGraph[int64]()
	g.M = duplicateMaxNeighbors
	g.Ml = 1.0 / float64(duplicateMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance
	return &DuplicateIndex{graph: g}
}

// Build populates the index from the current enrolled set, replacing any
// previous contents.
func (d *DuplicateIndex) Build(candidates []Candidate) {
	g := hnsw.NewGraph[int64]()
	g.M = duplicateMaxNeighbors
	g.Ml = 1.0 / float64(duplicateMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	for _, c := range candidates {
		if len(c.Vector) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(c.EmployeeID, c.Vector))
	}

	d.mu.Lock()
	d.graph = g
	d.mu.Unlock()
}

// Add inserts or replaces a single employee's encoding.
func (d *DuplicateIndex) Add(employeeID int64, vector []float32) {
	if len(vector) == 0 {
		return
	}
	d.mu.Lock()
	d.graph.Add(hnsw.MakeNode(employeeID, vector))
	d.mu.Unlock()
}

// Remove drops an employee's encoding from the index.
func (d *DuplicateIndex) Remove(employeeID int64) {
	d.mu.Lock()
	d.graph.Delete(employeeID)
	d.mu.Unlock()
}

// Nearest returns the closest enrolled employee other than excludeID, or
// ok=false when the index holds nothing comparable.
func (d *DuplicateIndex) Nearest(vector []float32, excludeID int64) (employeeID int64, distance float64, ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.graph.Len() == 0 {
		return 0, 0, false
	}

	// Ask for two so the employee's own node can be skipped.
	neighbors := d.graph.Search(vector, 2)
	for _, n := range neighbors {
		if n.Key == excludeID {
			continue
		}
		return n.Key, float64(hnsw.EuclideanDistance(vector, n.Value)), true
	}
	return 0, 0, false
}
