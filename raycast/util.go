package raycast

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

var r3Zero = r3.Vector{}

// applyToDirection rotates a direction by the upper-left 3x3 block of a
// homogeneous transform, ignoring translation.
func applyToDirection(m *mat.Dense, d r3.Vector) r3.Vector {
	return r3.Vector{
		X: m.At(0, 0)*d.X + m.At(0, 1)*d.Y + m.At(0, 2)*d.Z,
		Y: m.At(1, 0)*d.X + m.At(1, 1)*d.Y + m.At(1, 2)*d.Z,
		Z: m.At(2, 0)*d.X + m.At(2, 1)*d.Y + m.At(2, 2)*d.Z,
	}
}
