// Package potential evaluates an interatomic potential directly on a
// structure, producing the reference side of a quantity comparison.
//
// The deployed machine-learning potential is opaque here; it is consumed
// through the Potential interface. LennardJones is a closed-form pair
// potential that follows the same conventions (full neighbor list, stress
// as the strain derivative of the energy per volume) and serves as the
// built-in reference.
package potential
