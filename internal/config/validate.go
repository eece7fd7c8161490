package config

import (
	"errors"
	"fmt"

	"github.com/flemzord/sandscript/internal/script"
)

// Validate checks the structural validity of a Config. All problems are
// collected and reported together.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if cfg.Scripts.Dir == "" {
		errs = append(errs, errors.New("config: scripts.dir is required"))
	}

	if _, err := script.ParseDuplicatePolicy(cfg.Scripts.OnDuplicate); err != nil {
		errs = append(errs, fmt.Errorf("config: scripts.on_duplicate: %w", err))
	}

	if cfg.Scripts.Timeout < 0 {
		errs = append(errs, errors.New("config: scripts.timeout must not be negative"))
	}

	if cfg.Scripts.MaxOutputBytes < 0 {
		errs = append(errs, errors.New("config: scripts.max_output_bytes must not be negative"))
	}

	if cfg.Scripts.WatchInterval < 0 {
		errs = append(errs, errors.New("config: scripts.watch_interval must not be negative"))
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, errors.New("config: tracing.endpoint is required when tracing is enabled"))
	}

	return errors.Join(errs...)
}
