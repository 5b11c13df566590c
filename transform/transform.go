// Package transform composes the homogeneous matrices a ray-casting session
// needs: the sensor pose in the host's native convention and the world pose in
// the publishing convention.
package transform

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// axisConversion maps the host's native axis convention (X right, Y up,
// Z forward) onto the publishing convention (X forward, Y left, Z up):
// pub.x = host.z, pub.y = -host.x, pub.z = host.y.
var axisConversion = mat.NewDense(4, 4, []float64{
	0, 0, 1, 0,
	-1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0, 1,
})

// Matrices holds the two transforms dispatched with every capture.
type Matrices struct {
	// Native is the sensor-to-world transform in the host's convention.
	Native *mat.Dense
	// Publish is the world-to-sensor transform re-expressed in the
	// publishing convention.
	Publish *mat.Dense
}

// Compose builds the per-capture matrix pair from the sensor's current pose.
// The sensor may move between captures, so this is recomputed every time and
// performs no caching.
func Compose(sensorToWorld, worldToSensor *mat.Dense) (Matrices, error) {
	if err := check4x4("sensor to world", sensorToWorld); err != nil {
		return Matrices{}, err
	}
	if err := check4x4("world to sensor", worldToSensor); err != nil {
		return Matrices{}, err
	}
	publish := mat.NewDense(4, 4, nil)
	publish.Mul(axisConversion, worldToSensor)
	return Matrices{Native: sensorToWorld, Publish: publish}, nil
}

func check4x4(name string, m *mat.Dense) error {
	if m == nil {
		return errors.Errorf("%s matrix is nil", name)
	}
	if r, c := m.Dims(); r != 4 || c != 4 {
		return errors.Errorf("%s matrix must be 4x4, got %dx%d", name, r, c)
	}
	return nil
}

// Identity returns a new 4x4 identity matrix.
func Identity() *mat.Dense {
	out := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		out.Set(i, i, 1)
	}
	return out
}

// NewTranslation returns a pure translation matrix.
func NewTranslation(x, y, z float64) *mat.Dense {
	out := Identity()
	out.Set(0, 3, x)
	out.Set(1, 3, y)
	out.Set(2, 3, z)
	return out
}

// ApplyToPoint transforms a point by a 4x4 homogeneous matrix, assuming an
// affine bottom row.
func ApplyToPoint(m *mat.Dense, p r3.Vector) r3.Vector {
	return r3.Vector{
		X: m.At(0, 0)*p.X + m.At(0, 1)*p.Y + m.At(0, 2)*p.Z + m.At(0, 3),
		Y: m.At(1, 0)*p.X + m.At(1, 1)*p.Y + m.At(1, 2)*p.Z + m.At(1, 3),
		Z: m.At(2, 0)*p.X + m.At(2, 1)*p.Y + m.At(2, 2)*p.Z + m.At(2, 3),
	}
}
