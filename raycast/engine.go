// Package raycast drives an external ray-casting engine through per-capture
// sessions with an asynchronous dispatch / blocking synchronize protocol.
package raycast

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/robosim-modules/sim-lidar/capture"
	"github.com/robosim-modules/sim-lidar/lidarmodel"
)

// TraceRequest is the workload handed to the engine for one capture.
type TraceRequest struct {
	// Rays and RingIDs describe the beam layout, fixed for the session.
	Rays    []lidarmodel.RayPose
	RingIDs []uint16

	Noise          lidarmodel.NoiseParams
	MaxRangeMeters float64

	// Native is the sensor-to-world transform in the host's convention;
	// Publish is the world-to-sensor transform in the publishing convention.
	Native  *mat.Dense
	Publish *mat.Dense
}

// Engine is the external ray-casting collaborator. Implementations own ray
// generation, intersection and the noise model; they may run the workload on
// other threads or on a GPU. Trace must return all hits for one request at
// once: partial results are never observed by this package.
type Engine interface {
	Trace(ctx context.Context, req TraceRequest) ([]capture.Hit, error)
}
