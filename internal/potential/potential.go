package potential

import (
	"context"
	"strings"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
	"github.com/mstapelberg/pair-nequip-allegro/internal/structure"
)

// Potential evaluates forces, per-atom energies, total energy and, for
// periodic structures, the stress tensor.
type Potential interface {
	Evaluate(ctx context.Context, s *structure.Structure) (*ir.Quantities, error)
}

// Reference kinds accepted by New.
const (
	KindLennardJones = "lennard-jones"
)

// New builds the reference potential named kind.
func New(kind string, epsilon, sigma, cutoff float64) (Potential, error) {
	switch strings.ToLower(kind) {
	case KindLennardJones, "lj":
		lj := &LennardJones{Epsilon: epsilon, Sigma: sigma, Cutoff: cutoff}
		if err := lj.Validate(); err != nil {
			return nil, err
		}
		return lj, nil
	default:
		return nil, ir.NewConfigurationError("reference.kind", "unknown reference potential %q", kind)
	}
}
