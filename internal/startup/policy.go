package startup

import (
	"errors"
	"fmt"
	"os"

	"photo-curator/internal/adaptive"
	"photo-curator/internal/duplicates"
	"photo-curator/internal/logging"

	"gopkg.in/yaml.v3"
)

// Policy holds the tunables that may be overridden from a YAML file.
//
// Example:
//
//	duplicates:
//	  threshold: 0.04
//	  creation_window: 5s
//	  policy:
//	    non_camera_origin: true
//	    edit_window: 2m
//	    exclude_located: true
//	adaptive:
//	  initial_mode: safe
//	  promotion_grace_batches: 5
type Policy struct {
	Duplicates duplicates.Config `yaml:"duplicates"`
	Adaptive   adaptive.Config   `yaml:"adaptive"`
}

// DefaultPolicy returns the built-in tunables.
func DefaultPolicy() Policy {
	return Policy{
		Duplicates: duplicates.DefaultConfig(),
		Adaptive:   adaptive.DefaultConfig(),
	}
}

// LoadPolicy reads the YAML policy file at path over the defaults. Keys the
// file omits keep their default values. An empty path returns the defaults.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	if err := policy.Validate(); err != nil {
		return policy, fmt.Errorf("invalid policy file %s: %w", path, err)
	}

	logging.Info("  Loaded policy from %s", path)
	return policy, nil
}

// Validate rejects tunables the pipeline cannot run with.
func (p Policy) Validate() error {
	var errs []error

	d := p.Duplicates
	if d.Threshold <= 0 || d.Threshold > 1 {
		errs = append(errs, fmt.Errorf("duplicates.threshold must be in (0, 1], got %v", d.Threshold))
	}
	if d.SizeTolerance < 0 {
		errs = append(errs, fmt.Errorf("duplicates.size_tolerance must not be negative, got %v", d.SizeTolerance))
	}
	if d.CreationWindow < 0 {
		errs = append(errs, fmt.Errorf("duplicates.creation_window must not be negative, got %v", d.CreationWindow))
	}

	a := p.Adaptive
	if a.FailureThreshold < 1 {
		errs = append(errs, fmt.Errorf("adaptive.failure_threshold must be at least 1, got %d", a.FailureThreshold))
	}
	if a.DemoteErrorRate < 0 || a.DemoteErrorRate > 1 {
		errs = append(errs, fmt.Errorf("adaptive.demote_error_rate must be in [0, 1], got %v", a.DemoteErrorRate))
	}
	if a.PromotionGraceBatches < 0 {
		errs = append(errs, fmt.Errorf("adaptive.promotion_grace_batches must not be negative, got %d", a.PromotionGraceBatches))
	}
	for name, share := range map[string]float64{
		"fast_share":     a.FastShare,
		"balanced_share": a.BalancedShare,
		"safe_share":     a.SafeShare,
	} {
		if share <= 0 || share > 1 {
			errs = append(errs, fmt.Errorf("adaptive.%s must be in (0, 1], got %v", name, share))
		}
	}

	return errors.Join(errs...)
}
