// Package lidarmodel defines lidar beam configurations and resolves model
// selections into concrete, validated configurations.
package lidarmodel

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Model identifies a lidar configuration in the preset library.
type Model string

// Supported lidar models.
const (
	ModelVLP16      Model = "vlp16"
	ModelHDL32E     Model = "hdl32e"
	ModelSolidState Model = "solid_state"
	// ModelCustom marks a configuration supplied explicitly by the caller
	// rather than drawn from the preset library.
	ModelCustom Model = "custom"
)

// RayPose describes the direction of one beam relative to the sensor frame.
type RayPose struct {
	AzimuthDeg   float64
	ElevationDeg float64
	Direction    r3.Vector
}

// NewRayPose returns a RayPose with the unit direction derived from the given
// azimuth (rotation about the sensor's up axis, degrees clockwise from forward)
// and elevation (degrees above the sensor's horizontal plane).
func NewRayPose(azimuthDeg, elevationDeg float64) RayPose {
	az := azimuthDeg * math.Pi / 180.
	el := elevationDeg * math.Pi / 180.
	return RayPose{
		AzimuthDeg:   azimuthDeg,
		ElevationDeg: elevationDeg,
		Direction: r3.Vector{
			X: math.Cos(el) * math.Sin(az),
			Y: math.Sin(el),
			Z: math.Cos(el) * math.Cos(az),
		},
	}
}

// NoiseParams holds the gaussian noise parameters applied by the ray-casting
// engine. The zero value disables noise entirely.
type NoiseParams struct {
	DistanceStdDevMeters       float64
	DistanceStdDevRisePerMeter float64
	AngularStdDevDeg           float64
}

// ZeroNoise is the designated no-noise value. Passing it to a session disables
// noise without reconstructing the session.
var ZeroNoise = NoiseParams{}

// IsZero reports whether the parameters describe a noiseless sensor.
func (np NoiseParams) IsZero() bool {
	return np == NoiseParams{}
}

// Configuration is the immutable-per-epoch description of a lidar: its beam
// layout, per-beam ring assignment, noise model and range limit.
type Configuration struct {
	Model          Model
	Rays           []RayPose
	RingIDs        []uint16
	Noise          NoiseParams
	MaxRangeMeters float64
	ReturnsPerRay  int
}

// Capacity returns the maximum number of points a single capture can produce.
// It is always derived from the current ray layout, never cached.
func (c Configuration) Capacity() int {
	return len(c.Rays) * c.ReturnsPerRay
}

// Validate checks that the beam layout is usable by a ray-casting session.
func (c Configuration) Validate() error {
	if len(c.Rays) == 0 {
		return errors.New("ray pose sequence is empty")
	}
	if len(c.RingIDs) != len(c.Rays) {
		return errors.Errorf("ring ID count %d does not match ray pose count %d",
			len(c.RingIDs), len(c.Rays))
	}
	if c.MaxRangeMeters <= 0 {
		return errors.Errorf("max range must be positive, got %v", c.MaxRangeMeters)
	}
	if c.ReturnsPerRay < 1 {
		return errors.Errorf("returns per ray must be at least 1, got %d", c.ReturnsPerRay)
	}
	return nil
}

// Clone returns a deep copy. Assigning configurations must copy, never alias,
// so a runtime noise toggle on one sensor cannot mutate a shared library default.
func (c Configuration) Clone() Configuration {
	out := c
	out.Rays = make([]RayPose, len(c.Rays))
	copy(out.Rays, c.Rays)
	out.RingIDs = make([]uint16, len(c.RingIDs))
	copy(out.RingIDs, c.RingIDs)
	return out
}

// Resolver turns a model selection or an explicit configuration into the
// concrete configuration for the next epoch.
type Resolver struct {
	validated   bool
	activeModel Model
	active      Configuration
}

// NewResolver returns a Resolver with no prior validated state.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve applies the selection rules:
//   - on the very first resolution an explicit configuration is used verbatim,
//     even if it does not match the selected model's library default;
//   - a model change replaces a lingering explicit configuration (one written
//     for the previous model) with the library default for the new model;
//   - re-resolving the active model without an explicit configuration keeps
//     the configuration already in effect, explicit overrides included;
//   - otherwise an explicit configuration wins over the library default.
func (r *Resolver) Resolve(model Model, explicit *Configuration) (Configuration, error) {
	modelChanged := r.validated && model != r.activeModel

	var cfg Configuration
	switch {
	case explicit != nil && (!modelChanged || explicit.Model == model):
		cfg = explicit.Clone()
	case r.validated && !modelChanged:
		cfg = r.active.Clone()
	default:
		preset, err := DefaultConfiguration(model)
		if err != nil {
			return Configuration{}, err
		}
		cfg = preset
	}

	if err := cfg.Validate(); err != nil {
		return Configuration{}, errors.Wrapf(err, "invalid configuration for model %q", model)
	}

	r.validated = true
	r.activeModel = model
	r.active = cfg.Clone()
	return cfg, nil
}
