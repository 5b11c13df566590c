// Package telemetry defines the capture pipeline's opencensus stats and wires
// up their reporting.
package telemetry

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.viam.com/utils/perf"
)

var (
	captureHits = stats.Int64("sim_lidar/capture_hits",
		"Hits stored by one capture", stats.UnitDimensionless)
	captureLatencyMS = stats.Float64("sim_lidar/capture_latency",
		"Wall time of one capture", stats.UnitMilliseconds)
)

var captureViews = []*view.View{
	{
		Name:        "sim_lidar/captures",
		Description: "Number of completed captures",
		Measure:     captureHits,
		Aggregation: view.Count(),
	},
	{
		Name:        "sim_lidar/capture_hits",
		Description: "Distribution of hits per capture",
		Measure:     captureHits,
		Aggregation: view.Distribution(0, 1, 64, 512, 4096, 32768),
	},
	{
		Name:        "sim_lidar/capture_latency",
		Description: "Distribution of capture wall time",
		Measure:     captureLatencyMS,
		Aggregation: view.Distribution(0, 1, 5, 10, 25, 50, 100, 250),
	},
}

// Setup registers the capture views and starts a development exporter so
// capture spans and stats are reported. The caller owns stopping the returned
// exporter.
func Setup() (perf.Exporter, error) {
	if err := view.Register(captureViews...); err != nil {
		return nil, err
	}

	exporter := perf.NewDevelopmentExporterWithOptions(perf.DevelopmentExporterOptions{
		ReportingInterval: time.Second,
	})
	if err := exporter.Start(); err != nil {
		return nil, err
	}

	return exporter, nil
}

// RecordCapture reports the outcome of one completed capture. Without Setup
// the record is a no-op, so library users who skip the exporter pay nothing.
func RecordCapture(ctx context.Context, hitCount int, elapsed time.Duration) {
	stats.Record(ctx,
		captureHits.M(int64(hitCount)),
		captureLatencyMS.M(float64(elapsed)/float64(time.Millisecond)))
}
