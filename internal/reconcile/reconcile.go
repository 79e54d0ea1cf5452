package reconcile

import (
	"fmt"
	"math"
	"sort"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// EchoTolerance is the absolute tolerance for endpoint position echo. The
// echo is a direct copy of input coordinates, not a derived quantity, so it
// does not follow the run tolerance.
const EchoTolerance = 1e-6

// Options configures a reconciliation.
type Options struct {
	// Tolerance applies to pair distances.
	Tolerance ir.Tolerance

	// Positions are the structure's raw atom positions, used by the echo
	// check.
	Positions []ir.Vec3

	// CheckEcho enables the endpoint echo check. Callers set it only for
	// non-skewed cells; engines may rigidly rotate triclinic cells.
	CheckEcho bool

	// LeftName and RightName label the lists in error messages.
	// Default "reference" and "engine".
	LeftName  string
	RightName string
}

func (o Options) names() (string, string) {
	l, r := o.LeftName, o.RightName
	if l == "" {
		l = "reference"
	}
	if r == "" {
		r = "engine"
	}
	return l, r
}

// Reconcile checks that left and right are equivalent neighbor lists.
//
// Checks run in order and stop at the first violation:
//  1. equal edge counts
//  2. no duplicate triple within either list, then equal triple sets
//  3. equal edge counts per (source, target) pair
//  4. equal sorted distances within each (source, target) group
//  5. endpoint echo of the raw positions, when enabled
//
// Swapping left and right never changes whether an error is returned.
func Reconcile(left, right *ir.NeighborList, opts Options) error {
	ln, rn := opts.names()
	le, re := edgesOf(left), edgesOf(right)

	fail := func(inv ir.Invariant, format string, args ...any) *ir.ReconciliationError {
		return &ir.ReconciliationError{
			Invariant: inv,
			Message:   fmt.Sprintf(format, args...),
			LeftName:  ln,
			RightName: rn,
		}
	}

	if len(le) != len(re) {
		e := fail(ir.InvariantCardinality, "edge counts differ")
		e.Left, e.Right = len(le), len(re)
		return e
	}

	lset, ldup := tripleSet(le)
	rset, rdup := tripleSet(re)
	if len(ldup) > 0 {
		e := fail(ir.InvariantUniqueness, "%s list repeats %d triple(s)", ln, len(ldup))
		e.Duplicates = ldup
		return e
	}
	if len(rdup) > 0 {
		e := fail(ir.InvariantUniqueness, "%s list repeats %d triple(s)", rn, len(rdup))
		e.Duplicates = rdup
		return e
	}

	onlyL, onlyR := difference(lset, rset), difference(rset, lset)
	if len(onlyL) > 0 || len(onlyR) > 0 {
		e := fail(ir.InvariantTripleSet, "(source, target, shift) sets differ in %d triple(s)", len(onlyL)+len(onlyR))
		e.OnlyLeft, e.OnlyRight = onlyL, onlyR
		return e
	}

	if pcs := pairCountDiff(le, re); len(pcs) > 0 {
		e := fail(ir.InvariantPairCounts, "edge counts differ for %d (source, target) pair(s)", len(pcs))
		e.Pairs = pcs
		return e
	}

	if err := compareDistances(le, re, opts.Tolerance, fail); err != nil {
		return err
	}

	if opts.CheckEcho {
		if err := checkEcho(ln, le, opts.Positions, fail); err != nil {
			return err
		}
		if err := checkEcho(rn, re, opts.Positions, fail); err != nil {
			return err
		}
	}
	return nil
}

// CheckCell verifies that the cell the engine used equals the cell it was
// given elementwise. For rotated triclinic cells structureCell is the
// engine-frame prism, not the structure's own lattice.
func CheckCell(structureCell, engineCell ir.Mat3, tol ir.Tolerance) error {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			a, b := structureCell[i][j], engineCell[i][j]
			if !closeSymmetric(a, b, tol) {
				return &ir.ReconciliationError{
					Invariant: ir.InvariantCell,
					Message:   "engine cell differs from structure cell",
					LeftName:  "structure",
					RightName: "engine",
					Detail:    fmt.Sprintf("cell[%d][%d]: structure=%.10g engine=%.10g (%s)", i, j, a, b, tol),
				}
			}
		}
	}
	return nil
}

type failFunc func(inv ir.Invariant, format string, args ...any) *ir.ReconciliationError

func edgesOf(nl *ir.NeighborList) []ir.Edge {
	if nl == nil {
		return nil
	}
	return nl.Edges
}

// tripleSet returns the set of triples and the sorted triples seen more
// than once.
func tripleSet(edges []ir.Edge) (map[ir.Triple]struct{}, []ir.Triple) {
	set := make(map[ir.Triple]struct{}, len(edges))
	dupSeen := make(map[ir.Triple]bool)
	var dups []ir.Triple
	for _, e := range edges {
		t := e.Triple()
		if _, ok := set[t]; ok {
			if !dupSeen[t] {
				dupSeen[t] = true
				dups = append(dups, t)
			}
			continue
		}
		set[t] = struct{}{}
	}
	ir.SortTriples(dups)
	return set, dups
}

// difference returns the sorted triples of a not in b.
func difference(a, b map[ir.Triple]struct{}) []ir.Triple {
	var out []ir.Triple
	for t := range a {
		if _, ok := b[t]; !ok {
			out = append(out, t)
		}
	}
	ir.SortTriples(out)
	return out
}

func pairCountDiff(le, re []ir.Edge) []ir.PairCount {
	lc, rc := pairCounts(le), pairCounts(re)
	keys := make(map[ir.Pair]struct{}, len(lc)+len(rc))
	for p := range lc {
		keys[p] = struct{}{}
	}
	for p := range rc {
		keys[p] = struct{}{}
	}

	var out []ir.PairCount
	for p := range keys {
		if lc[p] != rc[p] {
			out = append(out, ir.PairCount{Pair: p, Left: lc[p], Right: rc[p]})
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Pair.Less(out[b].Pair) })
	return out
}

func pairCounts(edges []ir.Edge) map[ir.Pair]int {
	counts := make(map[ir.Pair]int)
	for _, e := range edges {
		counts[e.Pair()]++
	}
	return counts
}

// groupLengths groups edge lengths by integer pair key and sorts each group.
func groupLengths(edges []ir.Edge) map[ir.Pair][]float64 {
	groups := make(map[ir.Pair][]float64)
	for _, e := range edges {
		groups[e.Pair()] = append(groups[e.Pair()], e.Length)
	}
	for _, g := range groups {
		sort.Float64s(g)
	}
	return groups
}

func compareDistances(le, re []ir.Edge, tol ir.Tolerance, fail failFunc) error {
	lg, rg := groupLengths(le), groupLengths(re)

	pairs := make([]ir.Pair, 0, len(lg))
	for p := range lg {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].Less(pairs[b]) })

	for _, p := range pairs {
		a, b := lg[p], rg[p]
		for rank := range a {
			if !closeSymmetric(a[rank], b[rank], tol) {
				e := fail(ir.InvariantDistances, "distances differ for pair %s", p)
				e.Detail = fmt.Sprintf("rank %d of %d: %s=%.10g %s=%.10g |diff|=%.4g (%s)",
					rank, len(a), e.LeftName, a[rank], e.RightName, b[rank], math.Abs(a[rank]-b[rank]), tol)
				return e
			}
		}
	}
	return nil
}

func checkEcho(name string, edges []ir.Edge, positions []ir.Vec3, fail failFunc) error {
	check := func(e ir.Edge, end string, idx int, got ir.Vec3) error {
		if idx >= len(positions) {
			err := fail(ir.InvariantEcho, "%s edge %s references atom %d of %d", name, e.Triple(), idx, len(positions))
			return err
		}
		want := positions[idx]
		for k := 0; k < 3; k++ {
			if math.Abs(got[k]-want[k]) > EchoTolerance {
				err := fail(ir.InvariantEcho, "%s edge %s does not echo the %s position", name, e.Triple(), end)
				err.Detail = fmt.Sprintf("atom %d: structure=%v edge=%v (atol=%g)", idx, want, got, EchoTolerance)
				return err
			}
		}
		return nil
	}

	for _, e := range edges {
		if err := check(e, "source", e.Source, e.SourcePos); err != nil {
			return err
		}
		if err := check(e, "target", e.Target, e.TargetPos); err != nil {
			return err
		}
	}
	return nil
}

// closeSymmetric is the allclose test with the relative term taken against
// the larger magnitude, so the verdict does not depend on argument order.
func closeSymmetric(a, b float64, tol ir.Tolerance) bool {
	ref := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= tol.Atol+tol.Rtol*ref
}
