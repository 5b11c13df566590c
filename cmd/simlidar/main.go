// Package main runs a simulated lidar against the built-in ground-plane
// engine and logs capture statistics, as a smoke test of the full pipeline.
package main

import (
	"context"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/rdk/logging"
	goutils "go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	simlidar "github.com/robosim-modules/sim-lidar"
	"github.com/robosim-modules/sim-lidar/capture"
	vlConfig "github.com/robosim-modules/sim-lidar/config"
	"github.com/robosim-modules/sim-lidar/raycast"
	"github.com/robosim-modules/sim-lidar/telemetry"
	"github.com/robosim-modules/sim-lidar/transform"
)

// Versioning variables which are replaced by LD flags.
var (
	Version     = "development"
	GitRevision = ""
)

const tickSeconds = 0.02 // 50Hz host tick

// staticScene is a host stand-in: the scene never changes and the sensor sits
// two meters above the ground plane.
type staticScene struct{}

func (staticScene) RefreshScene(ctx context.Context) {}

type staticPose struct{}

func (staticPose) SensorPose() (*mat.Dense, *mat.Dense) {
	return transform.NewTranslation(0, 2, 0), transform.NewTranslation(0, -2, 0)
}

func main() {
	goutils.ContextualMain(mainWithArgs, logging.NewLogger("simlidar"))
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	logger.Infow("sim lidar", "version", Version, "git_rev", GitRevision)

	exporter, err := telemetry.Setup()
	if err != nil {
		return err
	}
	defer exporter.Stop()

	rate := 10.0
	conf := &vlConfig.Config{Model: "vlp16", CaptureRateHz: &rate}

	sl, err := simlidar.New(ctx, raycast.NewPlaneEngine(0, time.Now().UnixNano()), simlidar.Deps{
		Scene: staticScene{},
		Poses: staticPose{},
		Visualizer: pointLogger{logger},
		Callback: func(out *capture.OutputData) {
			logger.Infof("capture: %d hits, %d bytes compact, %d bytes extended",
				out.HitCount, out.HitCount*capture.RecordSizePCL24, out.HitCount*capture.RecordSizePCL48)
		},
	}, conf, logger)
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(func() error { return sl.Close(context.Background()) })

	ticker := time.NewTicker(time.Duration(tickSeconds * float64(time.Second)))
	defer ticker.Stop()
	for {
		if !goutils.SelectContextOrWaitChan(ctx, ticker.C) {
			return nil
		}
		if err := sl.Tick(ctx, tickSeconds); err != nil {
			return err
		}
	}
}

type pointLogger struct {
	logger logging.Logger
}

func (p pointLogger) ShowPoints(points []r3.Vector) {
	p.logger.Debugf("visualizing %d points", len(points))
}
