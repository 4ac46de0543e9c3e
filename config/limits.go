package config

import (
	"fmt"
	"math"

	"github.com/goliatone/go-directory/pkg/types"
	opts "github.com/goliatone/go-options"
)

const (
	keyMaxUsernameLength = "max_username_length"
	keyMaxBioLength      = "max_bio_length"
)

// ResolveLimits merges the built-in defaults, the environment and host
// overrides, in increasing precedence. Zero fields in a layer are unset.
func ResolveLimits(environment, overrides types.Limits) (types.Limits, error) {
	defaults := types.DefaultLimits()
	layers := []opts.Layer[map[string]any]{
		limitsLayer("defaults", "Built-in Defaults", opts.ScopePrioritySystem, defaults),
		limitsLayer("environment", "Environment", opts.ScopePriorityTenant, environment),
		limitsLayer("override", "Host Override", opts.ScopePriorityUser, overrides),
	}
	stack, err := opts.NewStack(layers...)
	if err != nil {
		return types.Limits{}, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return types.Limits{}, err
	}

	username, err := limitValue(merged.Value, keyMaxUsernameLength, defaults.MaxUsernameLength)
	if err != nil {
		return types.Limits{}, err
	}
	bio, err := limitValue(merged.Value, keyMaxBioLength, defaults.MaxBioLength)
	if err != nil {
		return types.Limits{}, err
	}
	return types.Limits{MaxUsernameLength: username, MaxBioLength: bio}, nil
}

func limitsLayer(name, label string, priority int, limits types.Limits) opts.Layer[map[string]any] {
	payload := make(map[string]any, 2)
	if limits.MaxUsernameLength > 0 {
		payload[keyMaxUsernameLength] = int64(limits.MaxUsernameLength)
	}
	if limits.MaxBioLength > 0 {
		payload[keyMaxBioLength] = int64(limits.MaxBioLength)
	}
	scope := opts.NewScope(name, priority, opts.WithScopeLabel(label))
	return opts.NewLayer(scope, payload, opts.WithSnapshotID[map[string]any](name))
}

func limitValue(values map[string]any, key string, fallback uint32) (uint32, error) {
	raw, ok := values[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	var v int64
	switch n := raw.(type) {
	case int:
		v = int64(n)
	case int64:
		v = n
	case uint32:
		v = int64(n)
	case float64:
		v = int64(n)
	default:
		return 0, fmt.Errorf("config: %s has unsupported type %T", key, raw)
	}
	if v <= 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("config: %s out of range: %d", key, v)
	}
	return uint32(v), nil
}
