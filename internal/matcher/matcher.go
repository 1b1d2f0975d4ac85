// Package matcher decides which, if any, enrolled employee corresponds to a
// freshly captured face encoding.
package matcher

import (
	"errors"
	"log"

	"gonum.org/v1/gonum/floats"
)

// ErrNoMatch means no stored encoding was within tolerance of the probe.
// Authentication failed; it is not a system fault.
var ErrNoMatch = errors.New("no matching face found")

// Candidate is one stored encoding with its owning employee.
type Candidate struct {
	EmployeeID int64
	Vector     []float32
}

// Match is an accepted comparison result.
type Match struct {
	EmployeeID int64
	Distance   float64
}

// Matcher compares probe encodings against the full enrolled set.
type Matcher struct {
	// Tolerance is the maximum acceptable Euclidean distance for two
	// encodings to count as the same person. Single global value; higher
	// trades precision for recall.
	Tolerance float64
}

func New(tolerance float64) *Matcher {
	return &Matcher{Tolerance: tolerance}
}

// Match scans every candidate, computes the Euclidean distance to the probe
// and returns the employee with the true minimum, accepted only when that
// minimum is within tolerance. Candidates with malformed vectors (empty or a
// different length than the probe) are skipped and logged, never fatal.
// Equal minimum distances resolve to the lowest employee id.
func (m *Matcher) Match(probe []float32, candidates []Candidate) (Match, error) {
	if len(probe) == 0 {
		return Match{}, ErrNoMatch
	}

	p := toFloat64(probe)

	best := Match{Distance: -1}
	for _, c := range candidates {
		if len(c.Vector) == 0 || len(c.Vector) != len(probe) {
			log.Printf("matcher: skipping malformed encoding for employee %d (len=%d, want %d)",
				c.EmployeeID, len(c.Vector), len(probe))
			continue
		}

		d := floats.Distance(p, toFloat64(c.Vector), 2)
		if best.Distance < 0 || d < best.Distance || (d == best.Distance && c.EmployeeID < best.EmployeeID) {
			best = Match{EmployeeID: c.EmployeeID, Distance: d}
		}
	}

	if best.Distance < 0 || best.Distance > m.Tolerance {
		return Match{}, ErrNoMatch
	}
	return best, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
