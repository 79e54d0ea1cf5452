package ir

import "math"

// Vec3 is a Cartesian 3-vector.
type Vec3 [3]float64

// Shift is an integer periodic-image shift in units of the cell vectors.
type Shift [3]int

// Mat3 is a row-major 3x3 matrix. For cells, rows are lattice vectors.
type Mat3 [3][3]float64

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Scale returns s·v.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{s * v[0], s * v[1], s * v[2]}
}

// Dot returns the inner product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// IsZero reports whether the shift is the zero image.
func (s Shift) IsZero() bool {
	return s == Shift{}
}

// Neg returns the opposite image shift.
func (s Shift) Neg() Shift {
	return Shift{-s[0], -s[1], -s[2]}
}

// Apply returns the Cartesian offset s·cell.
func (s Shift) Apply(cell Mat3) Vec3 {
	var out Vec3
	for k := 0; k < 3; k++ {
		if s[k] == 0 {
			continue
		}
		out = out.Add(Vec3(cell[k]).Scale(float64(s[k])))
	}
	return out
}

// Scale returns s·m.
func (m Mat3) Scale(s float64) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = s * m[i][j]
		}
	}
	return out
}

// Flat returns the nine entries of m in row-major order.
func (m Mat3) Flat() []float64 {
	out := make([]float64, 0, 9)
	for i := 0; i < 3; i++ {
		out = append(out, m[i][:]...)
	}
	return out
}

// FlattenVecs returns the components of vs in row-major order.
func FlattenVecs(vs []Vec3) []float64 {
	out := make([]float64, 0, 3*len(vs))
	for _, v := range vs {
		out = append(out, v[:]...)
	}
	return out
}
