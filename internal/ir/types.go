package ir

import (
	"fmt"
	"sort"
)

// Edge is one directed neighbor relation within a cutoff.
//
// For an undirected neighbor relation both directions appear as separate
// edges; several periodic images of the same ordered pair may coexist with
// distinct shifts.
type Edge struct {
	Source    int     `json:"source"`
	Target    int     `json:"target"`
	Shift     Shift   `json:"shift"`
	SourcePos Vec3    `json:"source_pos"`
	TargetPos Vec3    `json:"target_pos"`
	Vector    Vec3    `json:"vector"` // pos[Target] - pos[Source] + Shift·Cell
	Length    float64 `json:"length"`
}

// Triple is the integer identity of an edge within one neighbor list.
type Triple struct {
	Source int   `json:"source"`
	Target int   `json:"target"`
	Shift  Shift `json:"shift"`
}

// Pair is an ordered (source, target) pair, ignoring the image shift.
type Pair struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// Triple returns the identity key of the edge.
func (e Edge) Triple() Triple {
	return Triple{Source: e.Source, Target: e.Target, Shift: e.Shift}
}

// Pair returns the (source, target) key of the edge.
func (e Edge) Pair() Pair {
	return Pair{Source: e.Source, Target: e.Target}
}

// String formats the triple as "(i, j, [sx sy sz])".
func (t Triple) String() string {
	return fmt.Sprintf("(%d, %d, [%d %d %d])", t.Source, t.Target, t.Shift[0], t.Shift[1], t.Shift[2])
}

// Less orders triples lexicographically by source, target, then shift.
func (t Triple) Less(o Triple) bool {
	if t.Source != o.Source {
		return t.Source < o.Source
	}
	if t.Target != o.Target {
		return t.Target < o.Target
	}
	for k := 0; k < 3; k++ {
		if t.Shift[k] != o.Shift[k] {
			return t.Shift[k] < o.Shift[k]
		}
	}
	return false
}

// String formats the pair as "(i, j)".
func (p Pair) String() string {
	return fmt.Sprintf("(%d, %d)", p.Source, p.Target)
}

// Less orders pairs by source, then target.
func (p Pair) Less(o Pair) bool {
	if p.Source != o.Source {
		return p.Source < o.Source
	}
	return p.Target < o.Target
}

// SortTriples sorts ts in place in Triple.Less order.
func SortTriples(ts []Triple) {
	sort.Slice(ts, func(a, b int) bool { return ts[a].Less(ts[b]) })
}

// NeighborList is the edge set of one structure under one cutoff.
type NeighborList struct {
	Cutoff float64 `json:"cutoff"`
	Cell   *Mat3   `json:"cell,omitempty"`
	Edges  []Edge  `json:"edges"`
}

// Len returns the number of edges.
func (nl *NeighborList) Len() int {
	if nl == nil {
		return 0
	}
	return len(nl.Edges)
}

// Triples returns the identity keys of all edges in list order.
func (nl *NeighborList) Triples() []Triple {
	out := make([]Triple, len(nl.Edges))
	for i, e := range nl.Edges {
		out[i] = e.Triple()
	}
	return out
}

// PairCounts returns the number of edges per (source, target) pair.
func (nl *NeighborList) PairCounts() map[Pair]int {
	counts := make(map[Pair]int)
	for _, e := range nl.Edges {
		counts[e.Pair()]++
	}
	return counts
}

// Quantities are the physical outputs of evaluating a potential on one
// structure. Stress is nil for non-periodic structures.
type Quantities struct {
	Forces         []Vec3    `json:"forces"`
	AtomicEnergies []float64 `json:"atomic_energies"`
	TotalEnergy    float64   `json:"total_energy"`
	Stress         *Mat3     `json:"stress,omitempty"`
}

// EngineOutput holds the values an external engine dumped for one run, after
// inverse precision scaling but still in the engine's units and layout.
type EngineOutput struct {
	Forces            []Vec3      `json:"forces"`
	AtomicEnergies    []float64   `json:"atomic_energies"`
	PotentialEnergy   float64     `json:"potential_energy"`
	TotalAtomicEnergy float64     `json:"total_atomic_energy"`
	Stress            *[6]float64 `json:"stress,omitempty"` // flattened, engine component order
}

// Tolerance is the (absolute, relative) pair applied to every floating
// comparison of one run.
type Tolerance struct {
	Atol float64 `json:"atol" yaml:"atol"`
	Rtol float64 `json:"rtol" yaml:"rtol"`
}

// Bound returns the admissible absolute difference against ref.
func (t Tolerance) Bound(ref float64) float64 {
	if ref < 0 {
		ref = -ref
	}
	return t.Atol + t.Rtol*ref
}

// Within reports whether got agrees with ref: |got - ref| <= atol + rtol·|ref|.
func (t Tolerance) Within(ref, got float64) bool {
	d := got - ref
	if d < 0 {
		d = -d
	}
	return d <= t.Bound(ref)
}

// String formats the tolerance for messages.
func (t Tolerance) String() string {
	return fmt.Sprintf("atol=%.3g rtol=%.3g", t.Atol, t.Rtol)
}
