// Package inject provides mocks of the host-engine collaborators a sim lidar
// depends on.
package inject

import (
	"context"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// SceneRefresher represents a fake scene collaborator.
type SceneRefresher struct {
	RefreshSceneFunc func(ctx context.Context)
}

// RefreshScene calls the injected RefreshSceneFunc or does nothing.
func (s *SceneRefresher) RefreshScene(ctx context.Context) {
	if s.RefreshSceneFunc == nil {
		return
	}
	s.RefreshSceneFunc(ctx)
}

// PoseSource represents a fake pose source.
type PoseSource struct {
	SensorPoseFunc func() (sensorToWorld, worldToSensor *mat.Dense)
}

// SensorPose calls the injected SensorPoseFunc or returns nil matrices.
func (p *PoseSource) SensorPose() (*mat.Dense, *mat.Dense) {
	if p.SensorPoseFunc == nil {
		return nil, nil
	}
	return p.SensorPoseFunc()
}

// PointsVisualizer represents a fake visualization collaborator.
type PointsVisualizer struct {
	ShowPointsFunc func(points []r3.Vector)
}

// ShowPoints calls the injected ShowPointsFunc or does nothing.
func (v *PointsVisualizer) ShowPoints(points []r3.Vector) {
	if v.ShowPointsFunc == nil {
		return
	}
	v.ShowPointsFunc(points)
}
