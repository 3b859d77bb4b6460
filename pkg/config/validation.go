package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/ipagw/internal/telemetry"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and the cross-field rules the tags
// cannot express. All failures are reported together.
func Validate(cfg *Config) error {
	var problems []string

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describeFieldError(fe))
		}
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		problems = append(problems, "telemetry.endpoint is required when telemetry is enabled")
	}
	if cfg.Telemetry.Profiling.Enabled {
		if cfg.Telemetry.Profiling.Endpoint == "" {
			problems = append(problems, "telemetry.profiling.endpoint is required when profiling is enabled")
		}
		if err := telemetry.ValidateProfileTypes(cfg.Telemetry.Profiling.ProfileTypes); err != nil {
			problems = append(problems, fmt.Sprintf("telemetry.profiling.profile_types: %v", err))
		}
	}
	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.Server.Port {
		problems = append(problems, fmt.Sprintf("metrics.port and server.port are both %d", cfg.Server.Port))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New(strings.Join(problems, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	if fe.Param() != "" {
		return fmt.Sprintf("%s: failed '%s=%s' validation (value: %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s: failed '%s' validation (value: %v)", field, fe.Tag(), fe.Value())
}
