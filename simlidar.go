// Package simlidar implements the capture pipeline of a simulated range
// sensor: it turns a declarative sensor configuration into a periodic stream
// of 3D point measurements, encoded both for visualization and for a
// wire-ready point-cloud format.
package simlidar

import (
	"context"
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/zap/zapcore"
	"go.viam.com/rdk/logging"
	"gonum.org/v1/gonum/mat"

	"github.com/robosim-modules/sim-lidar/capture"
	vlConfig "github.com/robosim-modules/sim-lidar/config"
	"github.com/robosim-modules/sim-lidar/lidarmodel"
	"github.com/robosim-modules/sim-lidar/raycast"
	"github.com/robosim-modules/sim-lidar/telemetry"
	"github.com/robosim-modules/sim-lidar/transform"
)

var (
	// ErrClosed denotes that a method was called on a closed sim lidar.
	ErrClosed = errors.New("sim lidar is closed")
	// ErrMissingSceneCollaborator is fatal: with no scene state to capture
	// against, the sensor disables itself rather than trace undefined state.
	ErrMissingSceneCollaborator = errors.New("no scene collaborator provided")
	// ErrMissingPoseSource is fatal for the same reason: without the sensor's
	// world pose no transforms can be composed.
	ErrMissingPoseSource = errors.New("no pose source provided")
	// ErrNoActiveSession denotes a capture attempt while no usable tracing
	// session exists, e.g. after a failed reconfiguration.
	ErrNoActiveSession = errors.New("no active ray-casting session")
)

const (
	defaultCaptureRateHz = 10.0
	defaultNoiseEnabled  = true
)

// SceneRefresher advances or refreshes the host scene state. It is called once
// per capture, before transform composition, since poses may depend on the
// latest scene state.
type SceneRefresher interface {
	RefreshScene(ctx context.Context)
}

// PoseSource supplies the sensor's current local-to-world and world-to-local
// 4x4 homogeneous matrices in the host's native convention.
type PoseSource interface {
	SensorPose() (sensorToWorld, worldToSensor *mat.Dense)
}

// PointsVisualizer receives the trimmed native-frame point sequence after each
// capture. Fire and forget: no acknowledgment is consumed.
type PointsVisualizer interface {
	ShowPoints(points []r3.Vector)
}

// OutputCallback is invoked once per automatic capture with the capture's
// output record. The record is reused across captures: it is only valid until
// the next capture and must not be retained.
type OutputCallback func(out *capture.OutputData)

// Deps are the host-engine collaborators injected into a SimLidar. Scene and
// Poses are required; the rest are optional sinks.
type Deps struct {
	Scene      SceneRefresher
	Poses      PoseSource
	Visualizer PointsVisualizer
	Callback   OutputCallback
	// PCDDumpDirectory, when set, saves the trimmed points of every capture
	// as a timestamped PCD file under the given directory.
	PCDDumpDirectory string
}

// SimLidar is a simulated lidar instance: it owns the configuration surface,
// the tracing session lifecycle and the per-capture orchestration.
type SimLidar struct {
	mu     sync.Mutex
	logger logging.Logger
	engine raycast.Engine

	scene      SceneRefresher
	poses      PoseSource
	visualizer PointsVisualizer
	callback   OutputCallback
	pcdDumpDir string

	resolver     *lidarmodel.Resolver
	configParams map[string]string
	cfg          lidarmodel.Configuration
	noiseEnabled bool

	session   *raycast.Session
	buffers   *capture.Buffers
	scheduler *captureScheduler

	closed bool
}

// New validates the configuration and constructs a simulated lidar bound to
// the given ray-casting engine and host collaborators.
func New(
	ctx context.Context,
	engine raycast.Engine,
	deps Deps,
	conf *vlConfig.Config,
	logger logging.Logger,
) (*SimLidar, error) {
	_, span := trace.StartSpan(ctx, "simlidar::New")
	defer span.End()

	if deps.Scene == nil {
		return nil, ErrMissingSceneCollaborator
	}
	if deps.Poses == nil {
		return nil, ErrMissingPoseSource
	}
	if err := conf.Validate(""); err != nil {
		return nil, err
	}

	optional := vlConfig.GetOptionalParameters(conf, defaultCaptureRateHz, defaultNoiseEnabled, logger)

	sl := &SimLidar{
		logger:       logger,
		engine:       engine,
		scene:        deps.Scene,
		poses:        deps.Poses,
		visualizer:   deps.Visualizer,
		callback:     deps.Callback,
		pcdDumpDir:   deps.PCDDumpDirectory,
		resolver:     lidarmodel.NewResolver(),
		configParams: conf.ConfigParams,
		noiseEnabled: optional.NoiseEnabled,
		scheduler:    newCaptureScheduler(optional.CaptureRateHz),
	}

	if err := sl.applyConfiguration(lidarmodel.Model(conf.Model), nil); err != nil {
		return nil, err
	}

	logger.Infof("sim lidar configured with model %q, %d rays, capture rate %v Hz",
		conf.Model, sl.cfg.Capacity(), optional.CaptureRateHz)
	return sl, nil
}

// applyConfiguration resolves the next configuration epoch and rebuilds the
// session and output buffers for it. The previous session is discarded before
// the new one is constructed, so a construction failure leaves no dangling
// reference to a stale, differently-configured session; until the next
// successful apply, captures fail fast with ErrNoActiveSession.
func (sl *SimLidar) applyConfiguration(model lidarmodel.Model, explicit *lidarmodel.Configuration) error {
	if sl.session != nil {
		sl.session.Close()
		sl.session = nil
	}

	cfg, err := sl.resolver.Resolve(model, explicit)
	if err != nil {
		return err
	}
	cfg, err = vlConfig.ApplyConfigParams(cfg, sl.configParams, sl.logger)
	if err != nil {
		return err
	}

	session, err := raycast.NewSession(sl.engine, cfg, sl.logger)
	if err != nil {
		sl.logger.Errorw("ray-casting session construction failed", "error", err)
		return err
	}
	if !sl.noiseEnabled {
		session.SetNoise(lidarmodel.ZeroNoise)
	}

	sl.session = session
	sl.buffers = capture.NewBuffers(cfg.Capacity())
	sl.cfg = cfg
	return nil
}

// SetModel switches the active model. The configuration is replaced with the
// library default for that model and the session and buffers are rebuilt.
func (sl *SimLidar) SetModel(model lidarmodel.Model) error {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.closed {
		return ErrClosed
	}
	return sl.applyConfiguration(model, nil)
}

// SetConfiguration applies an explicit configuration override and rebuilds the
// session and buffers for it.
func (sl *SimLidar) SetConfiguration(cfg lidarmodel.Configuration) error {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.closed {
		return ErrClosed
	}
	return sl.applyConfiguration(cfg.Model, &cfg)
}

// SetNoiseEnabled toggles the noise model on the current session without
// reconstructing it.
func (sl *SimLidar) SetNoiseEnabled(enabled bool) error {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.closed {
		return ErrClosed
	}
	sl.noiseEnabled = enabled
	if sl.session == nil {
		return ErrNoActiveSession
	}
	if enabled {
		sl.session.SetNoise(sl.cfg.Noise)
	} else {
		sl.session.SetNoise(lidarmodel.ZeroNoise)
	}
	return nil
}

// SetCaptureRateHz replaces the automatic capture rate. A rate of zero
// disables automatic capture; manual captures remain available.
func (sl *SimLidar) SetCaptureRateHz(rateHz float64) error {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.closed {
		return ErrClosed
	}
	if rateHz < 0 {
		return errors.Errorf("capture rate must not be negative, got %v", rateHz)
	}
	sl.scheduler = newCaptureScheduler(rateHz)
	return nil
}

// Tick advances the capture scheduler by one host simulation tick. When a
// capture is due, it runs one capture and emits the result to the registered
// output callback. At most one capture fires per tick.
func (sl *SimLidar) Tick(ctx context.Context, deltaSeconds float64) error {
	ctx, span := trace.StartSpan(ctx, "simlidar::SimLidar::Tick")
	defer span.End()

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.closed {
		return ErrClosed
	}
	if !sl.scheduler.advance(deltaSeconds) {
		return nil
	}

	out, err := sl.captureOnce(ctx)
	if err != nil {
		return err
	}
	if sl.callback != nil {
		sl.callback(out)
	}
	return nil
}

// Capture runs one capture immediately, independent of the scheduler, and
// returns the output record directly to the caller. The record is reused by
// subsequent captures and is valid until then.
func (sl *SimLidar) Capture(ctx context.Context) (*capture.OutputData, error) {
	ctx, span := trace.StartSpan(ctx, "simlidar::SimLidar::Capture")
	defer span.End()

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.closed {
		return nil, ErrClosed
	}
	return sl.captureOnce(ctx)
}

// captureOnce runs the per-capture algorithm: refresh scene state, compose
// transforms, dispatch, synchronize and download, trim, hand off to sinks.
func (sl *SimLidar) captureOnce(ctx context.Context) (*capture.OutputData, error) {
	if sl.session == nil {
		return nil, ErrNoActiveSession
	}
	start := time.Now()

	// Scene state must be current before poses are read.
	sl.scene.RefreshScene(ctx)

	sensorToWorld, worldToSensor := sl.poses.SensorPose()
	matrices, err := transform.Compose(sensorToWorld, worldToSensor)
	if err != nil {
		return nil, errors.Wrap(err, "composing capture transforms")
	}

	if err := sl.session.Dispatch(matrices.Native, matrices.Publish, sl.cfg.MaxRangeMeters); err != nil {
		return nil, err
	}
	hitCount, err := sl.session.SynchronizeAndDownload(ctx, sl.buffers)
	if err != nil {
		return nil, err
	}

	telemetry.RecordCapture(ctx, hitCount, time.Since(start))
	if sl.logger.Level() == zapcore.DebugLevel {
		sl.logger.Debugf("capture complete: %d/%d hits", hitCount, sl.buffers.Capacity())
	}

	trimmed := sl.buffers.TrimmedPoints()
	if sl.visualizer != nil {
		sl.visualizer.ShowPoints(trimmed)
	}
	if sl.pcdDumpDir != "" {
		if err := dumpPCD(sl.pcdDumpDir, trimmed); err != nil {
			sl.logger.Warnw("failed to dump capture to PCD", "error", err)
		}
	}
	return sl.buffers.Data(), nil
}

// Configuration returns a copy of the active configuration.
func (sl *SimLidar) Configuration() lidarmodel.Configuration {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.cfg.Clone()
}

// Close shuts down the tracing session. Further captures return ErrClosed.
func (sl *SimLidar) Close(ctx context.Context) error {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.closed {
		sl.logger.Warn("Close() called multiple times")
		return nil
	}
	if sl.session != nil {
		sl.session.Close()
		sl.session = nil
	}
	sl.closed = true
	sl.logger.Info("sim lidar closed")
	return nil
}
