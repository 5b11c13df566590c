// Package inject is used to mock a ray-casting engine.
package inject

import (
	"context"

	"github.com/pkg/errors"

	"github.com/robosim-modules/sim-lidar/capture"
	"github.com/robosim-modules/sim-lidar/raycast"
)

// Engine represents a fake instance of a ray-casting engine.
type Engine struct {
	TraceFunc func(ctx context.Context, req raycast.TraceRequest) ([]capture.Hit, error)
}

// Trace calls the injected TraceFunc or errors if none was provided.
func (e *Engine) Trace(ctx context.Context, req raycast.TraceRequest) ([]capture.Hit, error) {
	if e.TraceFunc == nil {
		return nil, errors.New("TraceFunc not implemented")
	}
	return e.TraceFunc(ctx, req)
}
