package raycast

import (
	"context"
	"math"
	"math/rand"

	"github.com/robosim-modules/sim-lidar/capture"
	"github.com/robosim-modules/sim-lidar/transform"
)

// PlaneEngine is a CPU reference engine that intersects rays with a horizontal
// ground plane at a fixed height in the host's world frame. It exists for
// tests and for running the pipeline without an external GPU engine; it is not
// a substitute for a real scene tracer.
type PlaneEngine struct {
	// GroundHeight is the plane's Y coordinate in the host world frame.
	GroundHeight float64
	// Intensity is reported for every hit.
	Intensity float64

	// rng drives the gaussian distance noise. Nil disables noise regardless
	// of the request's noise parameters.
	rng *rand.Rand
}

// NewPlaneEngine returns a plane engine with noise drawn from the given seed.
func NewPlaneEngine(groundHeight float64, seed int64) *PlaneEngine {
	return &PlaneEngine{
		GroundHeight: groundHeight,
		Intensity:    100,
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// Trace intersects every configured ray with the ground plane, drops misses
// and returns beyond the range limit, and reports the surviving hits in both
// the native and publishing frames.
func (e *PlaneEngine) Trace(ctx context.Context, req TraceRequest) ([]capture.Hit, error) {
	hits := make([]capture.Hit, 0, len(req.Rays))
	origin := transform.ApplyToPoint(req.Native, r3Zero)

	for i, ray := range req.Rays {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// Rotate the ray direction into the world frame (direction: no
		// translation component).
		dir := applyToDirection(req.Native, ray.Direction)
		if math.Abs(dir.Y) < 1e-12 {
			continue // parallel to the plane, no intersection
		}
		t := (e.GroundHeight - origin.Y) / dir.Y
		if t <= 0 {
			continue
		}

		distance := t * dir.Norm()
		if e.rng != nil && !req.Noise.IsZero() {
			stddev := req.Noise.DistanceStdDevMeters + req.Noise.DistanceStdDevRisePerMeter*distance
			distance += e.rng.NormFloat64() * stddev
			t = distance / dir.Norm()
		}
		if distance > req.MaxRangeMeters {
			continue
		}

		native := origin.Add(dir.Mul(t))
		hits = append(hits, capture.Hit{
			Native:     native,
			Publish:    transform.ApplyToPoint(req.Publish, native),
			Distance:   distance,
			AzimuthDeg: ray.AzimuthDeg,
			Intensity:  e.Intensity,
			Ring:       req.RingIDs[i],
		})
	}
	return hits, nil
}
