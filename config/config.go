// Package config implements attribute evaluation for the simulated lidar.
package config

import (
	"strconv"

	"github.com/pkg/errors"
	"go.viam.com/rdk/logging"
	"go.viam.com/utils"

	"github.com/robosim-modules/sim-lidar/lidarmodel"
)

// newError returns an error specific to a failure in the sim lidar config.
func newError(configError string) error {
	return errors.Errorf("sim lidar configuration error: %s", configError)
}

// Config describes how to configure the simulated lidar.
type Config struct {
	Model         string            `json:"model"`
	CaptureRateHz *float64          `json:"capture_rate_hz"`
	NoiseEnabled  *bool             `json:"noise_enabled"`
	ConfigParams  map[string]string `json:"config_params"`
}

// Validate checks that the configuration is well formed.
func (config *Config) Validate(path string) error {
	if config.Model == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "model")
	}
	if config.CaptureRateHz != nil && *config.CaptureRateHz < 0 {
		return newError("cannot specify capture_rate_hz less than zero")
	}
	return nil
}

// OptionalConfigParams holds the optional config parameters after defaults
// have been applied.
type OptionalConfigParams struct {
	CaptureRateHz float64
	NoiseEnabled  bool
}

// GetOptionalParameters sets any unset optional config parameters to the
// defaults passed to this function, and returns them.
func GetOptionalParameters(
	config *Config,
	defaultCaptureRateHz float64,
	defaultNoiseEnabled bool,
	logger logging.Logger,
) OptionalConfigParams {
	optional := OptionalConfigParams{
		CaptureRateHz: defaultCaptureRateHz,
		NoiseEnabled:  defaultNoiseEnabled,
	}

	if config.CaptureRateHz == nil {
		logger.Debugf("no capture_rate_hz given, setting to default value of %v", defaultCaptureRateHz)
	} else {
		optional.CaptureRateHz = *config.CaptureRateHz
	}
	if optional.CaptureRateHz == 0 {
		logger.Info("capture_rate_hz is zero, automatic capture disabled; captures must be requested manually")
	}

	if config.NoiseEnabled == nil {
		logger.Debugf("no noise_enabled given, setting to default value of %v", defaultNoiseEnabled)
	} else {
		optional.NoiseEnabled = *config.NoiseEnabled
	}

	return optional
}

// ApplyConfigParams overlays the free-form config_params map onto a resolved
// lidar configuration. Unknown keys are logged and ignored.
func ApplyConfigParams(
	cfg lidarmodel.Configuration,
	configParams map[string]string,
	logger logging.Logger,
) (lidarmodel.Configuration, error) {
	for k, val := range configParams {
		switch k {
		case "max_range_meters":
			fVal, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return cfg, errors.Wrapf(err, "parsing config param %q", k)
			}
			cfg.MaxRangeMeters = fVal
		case "distance_noise_std_dev_meters":
			fVal, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return cfg, errors.Wrapf(err, "parsing config param %q", k)
			}
			cfg.Noise.DistanceStdDevMeters = fVal
		case "distance_noise_rise_per_meter":
			fVal, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return cfg, errors.Wrapf(err, "parsing config param %q", k)
			}
			cfg.Noise.DistanceStdDevRisePerMeter = fVal
		case "angular_noise_std_dev_degrees":
			fVal, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return cfg, errors.Wrapf(err, "parsing config param %q", k)
			}
			cfg.Noise.AngularStdDevDeg = fVal
		default:
			logger.Warnf("unused config param: %s: %s", k, val)
		}
	}
	return cfg, nil
}
