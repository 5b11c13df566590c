package raycast_test

import (
	"context"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
	"go.viam.com/test"

	"github.com/robosim-modules/sim-lidar/capture"
	"github.com/robosim-modules/sim-lidar/lidarmodel"
	"github.com/robosim-modules/sim-lidar/raycast"
	"github.com/robosim-modules/sim-lidar/raycast/inject"
	"github.com/robosim-modules/sim-lidar/transform"
)

func fourRayConfig() lidarmodel.Configuration {
	return lidarmodel.Configuration{
		Model: lidarmodel.ModelCustom,
		Rays: []lidarmodel.RayPose{
			lidarmodel.NewRayPose(0, 0),
			lidarmodel.NewRayPose(90, 0),
			lidarmodel.NewRayPose(180, 0),
			lidarmodel.NewRayPose(270, 0),
		},
		RingIDs:        []uint16{0, 1, 2, 3},
		MaxRangeMeters: 100,
		ReturnsPerRay:  1,
	}
}

func twoHits() []capture.Hit {
	return []capture.Hit{
		{Native: r3.Vector{X: 1}, Publish: r3.Vector{X: 1}, Distance: 1, Ring: 0},
		{Native: r3.Vector{X: 2}, Publish: r3.Vector{X: 2}, Distance: 2, Ring: 1},
	}
}

func TestNewSession(t *testing.T) {
	logger := logging.NewTestLogger(t)
	engine := &inject.Engine{}

	t.Run("constructs a session for a valid layout", func(t *testing.T) {
		session, err := raycast.NewSession(engine, fourRayConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, session.Capacity(), test.ShouldEqual, 4)
		session.Close()
	})

	t.Run("rejects an empty ray layout", func(t *testing.T) {
		cfg := fourRayConfig()
		cfg.Rays = nil
		cfg.RingIDs = nil
		_, err := raycast.NewSession(engine, cfg, logger)
		test.That(t, errors.Is(err, raycast.ErrInvalidRayLayout), test.ShouldBeTrue)
	})

	t.Run("rejects a ring ID count mismatch", func(t *testing.T) {
		cfg := fourRayConfig()
		cfg.RingIDs = cfg.RingIDs[:3]
		_, err := raycast.NewSession(engine, cfg, logger)
		test.That(t, errors.Is(err, raycast.ErrInvalidRayLayout), test.ShouldBeTrue)
	})

	t.Run("rejects a missing engine", func(t *testing.T) {
		_, err := raycast.NewSession(nil, fourRayConfig(), logger)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("capacity counts returns, not beams", func(t *testing.T) {
		cfg := fourRayConfig()
		cfg.ReturnsPerRay = 2
		session, err := raycast.NewSession(engine, cfg, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, session.Capacity(), test.ShouldEqual, cfg.Capacity())
		test.That(t, session.Capacity(), test.ShouldEqual, 8)
		session.Close()
	})
}

func TestDispatchAndSynchronize(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	t.Run("a dispatch followed by synchronize downloads the hits", func(t *testing.T) {
		var gotMaxRange float64
		engine := &inject.Engine{
			TraceFunc: func(ctx context.Context, req raycast.TraceRequest) ([]capture.Hit, error) {
				gotMaxRange = req.MaxRangeMeters
				return twoHits(), nil
			},
		}
		session, err := raycast.NewSession(engine, fourRayConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		defer session.Close()

		buffers := capture.NewBuffers(session.Capacity())
		test.That(t, session.Dispatch(transform.Identity(), transform.Identity(), 100), test.ShouldBeNil)

		hitCount, err := session.SynchronizeAndDownload(ctx, buffers)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, hitCount, test.ShouldEqual, 2)
		test.That(t, gotMaxRange, test.ShouldEqual, 100.0)
		test.That(t, buffers.Data().Hits[0], test.ShouldResemble, r3.Vector{X: 1})
		test.That(t, buffers.Data().Hits[1], test.ShouldResemble, r3.Vector{X: 2})
	})

	t.Run("a multi-return configuration downloads into buffers sized to it", func(t *testing.T) {
		engine := &inject.Engine{
			TraceFunc: func(ctx context.Context, req raycast.TraceRequest) ([]capture.Hit, error) {
				return twoHits(), nil
			},
		}
		cfg := fourRayConfig()
		cfg.ReturnsPerRay = 2
		session, err := raycast.NewSession(engine, cfg, logger)
		test.That(t, err, test.ShouldBeNil)
		defer session.Close()

		buffers := capture.NewBuffers(cfg.Capacity())
		test.That(t, session.Dispatch(transform.Identity(), transform.Identity(), 100), test.ShouldBeNil)

		hitCount, err := session.SynchronizeAndDownload(ctx, buffers)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, hitCount, test.ShouldEqual, 2)
	})

	t.Run("a second dispatch before synchronize is a double dispatch", func(t *testing.T) {
		engine := &inject.Engine{
			TraceFunc: func(ctx context.Context, req raycast.TraceRequest) ([]capture.Hit, error) {
				return twoHits(), nil
			},
		}
		session, err := raycast.NewSession(engine, fourRayConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		defer session.Close()

		test.That(t, session.Dispatch(transform.Identity(), transform.Identity(), 100), test.ShouldBeNil)
		err = session.Dispatch(transform.Identity(), transform.Identity(), 100)
		test.That(t, errors.Is(err, raycast.ErrDoubleDispatch), test.ShouldBeTrue)

		// The original dispatch is still synchronizable.
		buffers := capture.NewBuffers(session.Capacity())
		hitCount, err := session.SynchronizeAndDownload(ctx, buffers)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, hitCount, test.ShouldEqual, 2)
	})

	t.Run("synchronize without a dispatch fails fast", func(t *testing.T) {
		engine := &inject.Engine{}
		session, err := raycast.NewSession(engine, fourRayConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		defer session.Close()

		_, err = session.SynchronizeAndDownload(ctx, capture.NewBuffers(session.Capacity()))
		test.That(t, errors.Is(err, raycast.ErrNoPendingDispatch), test.ShouldBeTrue)
	})

	t.Run("mis-sized buffers are rejected", func(t *testing.T) {
		engine := &inject.Engine{
			TraceFunc: func(ctx context.Context, req raycast.TraceRequest) ([]capture.Hit, error) {
				return twoHits(), nil
			},
		}
		session, err := raycast.NewSession(engine, fourRayConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		defer session.Close()

		test.That(t, session.Dispatch(transform.Identity(), transform.Identity(), 100), test.ShouldBeNil)
		_, err = session.SynchronizeAndDownload(ctx, capture.NewBuffers(2))
		test.That(t, errors.Is(err, capture.ErrBufferSizeMismatch), test.ShouldBeTrue)
	})

	t.Run("engine errors surface without touching the buffers", func(t *testing.T) {
		engine := &inject.Engine{
			TraceFunc: func(ctx context.Context, req raycast.TraceRequest) ([]capture.Hit, error) {
				return nil, errors.New("engine exploded")
			},
		}
		session, err := raycast.NewSession(engine, fourRayConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		defer session.Close()

		buffers := capture.NewBuffers(session.Capacity())
		test.That(t, session.Dispatch(transform.Identity(), transform.Identity(), 100), test.ShouldBeNil)
		_, err = session.SynchronizeAndDownload(ctx, buffers)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, buffers.Data().HitCount, test.ShouldEqual, 0)
	})

	t.Run("dispatch after close is rejected", func(t *testing.T) {
		engine := &inject.Engine{}
		session, err := raycast.NewSession(engine, fourRayConfig(), logger)
		test.That(t, err, test.ShouldBeNil)
		session.Close()

		err = session.Dispatch(transform.Identity(), transform.Identity(), 100)
		test.That(t, errors.Is(err, raycast.ErrSessionClosed), test.ShouldBeTrue)
	})
}

func TestSetNoise(t *testing.T) {
	logger := logging.NewTestLogger(t)
	ctx := context.Background()

	var gotNoise lidarmodel.NoiseParams
	engine := &inject.Engine{
		TraceFunc: func(ctx context.Context, req raycast.TraceRequest) ([]capture.Hit, error) {
			gotNoise = req.Noise
			return nil, nil
		},
	}

	cfg := fourRayConfig()
	cfg.Noise = lidarmodel.NoiseParams{DistanceStdDevMeters: 0.05}
	session, err := raycast.NewSession(engine, cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	defer session.Close()

	buffers := capture.NewBuffers(session.Capacity())

	test.That(t, session.Dispatch(transform.Identity(), transform.Identity(), 100), test.ShouldBeNil)
	_, err = session.SynchronizeAndDownload(ctx, buffers)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gotNoise.DistanceStdDevMeters, test.ShouldEqual, 0.05)

	// Zero noise disables the noise model while preserving the session.
	session.SetNoise(lidarmodel.ZeroNoise)
	test.That(t, session.Dispatch(transform.Identity(), transform.Identity(), 100), test.ShouldBeNil)
	_, err = session.SynchronizeAndDownload(ctx, buffers)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gotNoise.IsZero(), test.ShouldBeTrue)
}
