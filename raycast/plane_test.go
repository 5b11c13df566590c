package raycast_test

import (
	"context"
	"testing"

	"go.viam.com/test"

	"github.com/robosim-modules/sim-lidar/lidarmodel"
	"github.com/robosim-modules/sim-lidar/raycast"
	"github.com/robosim-modules/sim-lidar/transform"
)

func TestPlaneEngine(t *testing.T) {
	ctx := context.Background()

	// Sensor two meters above the ground plane, beams pointed 45 degrees down.
	downward := lidarmodel.Configuration{
		Model: lidarmodel.ModelCustom,
		Rays: []lidarmodel.RayPose{
			lidarmodel.NewRayPose(0, -45),
			lidarmodel.NewRayPose(90, -45),
			lidarmodel.NewRayPose(0, 45), // points upward, never hits
		},
		RingIDs:        []uint16{0, 1, 2},
		MaxRangeMeters: 100,
		ReturnsPerRay:  1,
	}

	req := raycast.TraceRequest{
		Rays:           downward.Rays,
		RingIDs:        downward.RingIDs,
		Noise:          lidarmodel.ZeroNoise,
		MaxRangeMeters: downward.MaxRangeMeters,
		Native:         transform.NewTranslation(0, 2, 0),
		Publish:        transform.Identity(),
	}

	t.Run("downward rays hit the plane, upward rays miss", func(t *testing.T) {
		engine := raycast.NewPlaneEngine(0, 42)
		hits, err := engine.Trace(ctx, req)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(hits), test.ShouldEqual, 2)
		for _, hit := range hits {
			test.That(t, hit.Native.Y, test.ShouldAlmostEqual, 0, 1e-9)
			// 45 degrees down from two meters up: slant range is 2*sqrt(2).
			test.That(t, hit.Distance, test.ShouldAlmostEqual, 2.8284271247461903, 1e-9)
		}
		test.That(t, hits[0].Ring, test.ShouldEqual, uint16(0))
		test.That(t, hits[1].Ring, test.ShouldEqual, uint16(1))
	})

	t.Run("returns beyond max range are dropped", func(t *testing.T) {
		engine := raycast.NewPlaneEngine(0, 42)
		shortReq := req
		shortReq.MaxRangeMeters = 2
		hits, err := engine.Trace(ctx, shortReq)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(hits), test.ShouldEqual, 0)
	})

	t.Run("zero noise is deterministic", func(t *testing.T) {
		first, err := raycast.NewPlaneEngine(0, 1).Trace(ctx, req)
		test.That(t, err, test.ShouldBeNil)
		second, err := raycast.NewPlaneEngine(0, 2).Trace(ctx, req)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, first, test.ShouldResemble, second)
	})

	t.Run("distance noise perturbs the measured distance", func(t *testing.T) {
		engine := raycast.NewPlaneEngine(0, 7)
		noisyReq := req
		noisyReq.Noise = lidarmodel.NoiseParams{DistanceStdDevMeters: 0.1}
		hits, err := engine.Trace(ctx, noisyReq)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(hits), test.ShouldEqual, 2)
		test.That(t, hits[0].Distance, test.ShouldNotEqual, 2.8284271247461903)
	})
}
