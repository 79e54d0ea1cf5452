package structure

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mstapelberg/pair-nequip-allegro/internal/ir"
)

// diagonalTol bounds the off-diagonal magnitude of a non-skewed cell.
const diagonalTol = 1e-12

// Dense converts m to a gonum matrix.
func Dense(m ir.Mat3) *mat.Dense {
	return mat.NewDense(3, 3, m.Flat())
}

// FromDense converts a 3x3 gonum matrix back to an ir.Mat3.
func FromDense(d mat.Matrix) ir.Mat3 {
	var m ir.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = d.At(i, j)
		}
	}
	return m
}

// Volume returns the absolute cell volume |det(cell)|.
func Volume(cell ir.Mat3) float64 {
	return math.Abs(mat.Det(Dense(cell)))
}

// Inverse returns cell⁻¹. Fractional coordinates of a Cartesian row vector x
// are x·cell⁻¹; column k of the inverse is the k-th reciprocal vector
// (without the 2π factor).
func Inverse(cell ir.Mat3) (ir.Mat3, error) {
	var inv mat.Dense
	if err := inv.Inverse(Dense(cell)); err != nil {
		return ir.Mat3{}, &ir.ConfigurationError{Field: "cell", Message: "cell is not invertible", Err: err}
	}
	return FromDense(&inv), nil
}

// IsDiagonal reports whether every off-diagonal entry of cell vanishes.
func IsDiagonal(cell ir.Mat3) bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i != j && math.Abs(cell[i][j]) > diagonalTol {
				return false
			}
		}
	}
	return true
}

// Fractional returns the fractional coordinates of pos given cell⁻¹.
func Fractional(pos ir.Vec3, inv ir.Mat3) ir.Vec3 {
	var f ir.Vec3
	for k := 0; k < 3; k++ {
		f[k] = pos[0]*inv[0][k] + pos[1]*inv[1][k] + pos[2]*inv[2][k]
	}
	return f
}

// reciprocalNorm returns |b_k|, the inverse spacing of lattice planes
// normal to the k-th reciprocal vector.
func reciprocalNorm(inv ir.Mat3, k int) float64 {
	return math.Sqrt(inv[0][k]*inv[0][k] + inv[1][k]*inv[1][k] + inv[2][k]*inv[2][k])
}
