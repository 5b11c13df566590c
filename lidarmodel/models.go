package lidarmodel

import "github.com/pkg/errors"

const defaultReturnsPerRay = 1

// vlp16Elevations lists the vertical angles of the sixteen VLP-16 channels in
// firing order, interleaved low/high as on the physical unit.
var vlp16Elevations = []float64{
	-15, 1, -13, 3, -11, 5, -9, 7, -7, 9, -5, 11, -3, 13, -1, 15,
}

// presetGenerators is the immutable model library. Generators return fresh
// slices on every call so presets can never be mutated through a resolved
// configuration.
var presetGenerators = map[Model]func() Configuration{
	ModelVLP16: func() Configuration {
		return uniformScan(ModelVLP16, vlp16Elevations, 0, 360, 1.0, 100, NoiseParams{
			DistanceStdDevMeters:       0.01,
			DistanceStdDevRisePerMeter: 0.0002,
		})
	},
	ModelHDL32E: func() Configuration {
		elevations := make([]float64, 32)
		for i := range elevations {
			// 32 channels spanning -30.67 to +10.67 degrees.
			elevations[i] = -30.67 + float64(i)*(41.34/31.0)
		}
		return uniformScan(ModelHDL32E, elevations, 0, 360, 1.0, 100, NoiseParams{
			DistanceStdDevMeters:       0.02,
			DistanceStdDevRisePerMeter: 0.0002,
		})
	},
	ModelSolidState: func() Configuration {
		elevations := make([]float64, 32)
		for i := range elevations {
			// 32 lines spanning -16 to +15 degrees.
			elevations[i] = -16 + float64(i)
		}
		return uniformScan(ModelSolidState, elevations, -60, 60, 0.5, 200, NoiseParams{
			DistanceStdDevMeters: 0.005,
		})
	},
}

// DefaultConfiguration returns the library default for the given model.
func DefaultConfiguration(model Model) (Configuration, error) {
	gen, ok := presetGenerators[model]
	if !ok {
		return Configuration{}, errors.Errorf("no preset configuration for model %q", model)
	}
	return gen(), nil
}

// uniformScan builds a planar scan pattern: every vertical channel is swept
// across [minAzimuthDeg, maxAzimuthDeg) at the given horizontal resolution.
// The ring ID of each ray is its channel index.
func uniformScan(
	model Model,
	elevationsDeg []float64,
	minAzimuthDeg, maxAzimuthDeg, azimuthStepDeg float64,
	maxRangeMeters float64,
	noise NoiseParams,
) Configuration {
	steps := int((maxAzimuthDeg - minAzimuthDeg) / azimuthStepDeg)
	rays := make([]RayPose, 0, steps*len(elevationsDeg))
	rings := make([]uint16, 0, steps*len(elevationsDeg))
	for step := 0; step < steps; step++ {
		azimuth := minAzimuthDeg + float64(step)*azimuthStepDeg
		for channel, elevation := range elevationsDeg {
			rays = append(rays, NewRayPose(azimuth, elevation))
			rings = append(rings, uint16(channel))
		}
	}
	return Configuration{
		Model:          model,
		Rays:           rays,
		RingIDs:        rings,
		Noise:          noise,
		MaxRangeMeters: maxRangeMeters,
		ReturnsPerRay:  defaultReturnsPerRay,
	}
}
