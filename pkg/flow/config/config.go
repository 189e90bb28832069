// Package config loads engine settings from YAML. Values left out of the
// file keep the defaults of package core; per-node overrides are selected by
// the node tag.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/ib-77/flowgraph/pkg/flow/core"
)

// Retry holds the retry settings that are present in the file.
type Retry struct {
	MaxAttempts  *int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	InitialDelay *time.Duration `mapstructure:"initial_delay" yaml:"initial_delay"`
	MaxDelay     *time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
	Multiplier   *float64       `mapstructure:"multiplier" yaml:"multiplier"`
}

// Node holds the node settings that are present in the file.
type Node struct {
	Capacity            *int           `mapstructure:"capacity" yaml:"capacity"`
	RegistrationTimeout *time.Duration `mapstructure:"registration_timeout" yaml:"registration_timeout"`
	OutputCapacity      *int           `mapstructure:"output_capacity" yaml:"output_capacity"`
	IdleDelay           *time.Duration `mapstructure:"idle_delay" yaml:"idle_delay"`
	CloseTimeout        *time.Duration `mapstructure:"close_timeout" yaml:"close_timeout"`
	Retry               *Retry         `mapstructure:"retry" yaml:"retry"`
}

// Pool configures the scheduler pool of threaded wrappers.
type Pool struct {
	Workers     int           `mapstructure:"workers" yaml:"workers"`
	QueueSize   int           `mapstructure:"queue_size" yaml:"queue_size"`
	StopTimeout time.Duration `mapstructure:"stop_timeout" yaml:"stop_timeout"`
}

type Engine struct {
	LogLevel         string          `mapstructure:"log_level" yaml:"log_level"`
	LogFormat        string          `mapstructure:"log_format" yaml:"log_format"`
	MetricsNamespace string          `mapstructure:"metrics_namespace" yaml:"metrics_namespace"`
	Pool             Pool            `mapstructure:"pool" yaml:"pool"`
	Defaults         Node            `mapstructure:"defaults" yaml:"defaults"`
	Overrides        map[string]Node `mapstructure:"overrides" yaml:"overrides"`
}

func Default() Engine {
	return Engine{
		LogLevel:         "info",
		LogFormat:        "text",
		MetricsNamespace: "flowgraph",
		Pool: Pool{
			Workers:     4,
			QueueSize:   100,
			StopTimeout: 5 * time.Second,
		},
	}
}

// Load reads and parses the file at path.
func Load(path string) (Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Engine{}, fmt.Errorf("failed to read engine config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Unknown keys are an error.
func Parse(data []byte) (Engine, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Engine{}, fmt.Errorf("failed to parse engine config: %w", err)
	}

	e := Default()
	if len(raw) == 0 {
		return e, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      &e,
	})
	if err != nil {
		return Engine{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Engine{}, fmt.Errorf("failed to decode engine config: %w", err)
	}
	return e, e.Validate()
}

// Validate reports every invalid setting.
func (e Engine) Validate() error {
	var errs []error

	switch strings.ToLower(e.LogFormat) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format: unknown format %q", e.LogFormat))
	}
	if e.Pool.Workers < 0 {
		errs = append(errs, errors.New("pool.workers: must not be negative"))
	}
	if e.Pool.QueueSize < 0 {
		errs = append(errs, errors.New("pool.queue_size: must not be negative"))
	}

	errs = append(errs, e.Defaults.validate("defaults")...)
	for tag, n := range e.Overrides {
		errs = append(errs, n.validate("overrides."+tag)...)
	}
	return errors.Join(errs...)
}

func (n Node) validate(path string) []error {
	var errs []error
	positive := func(name string, v *int) {
		if v != nil && *v <= 0 {
			errs = append(errs, fmt.Errorf("%s.%s: must be positive", path, name))
		}
	}
	nonNegative := func(name string, v *time.Duration) {
		if v != nil && *v < 0 {
			errs = append(errs, fmt.Errorf("%s.%s: must not be negative", path, name))
		}
	}

	positive("capacity", n.Capacity)
	positive("output_capacity", n.OutputCapacity)
	nonNegative("registration_timeout", n.RegistrationTimeout)
	nonNegative("idle_delay", n.IdleDelay)
	nonNegative("close_timeout", n.CloseTimeout)

	if r := n.Retry; r != nil {
		if r.MaxAttempts != nil && *r.MaxAttempts < 0 {
			errs = append(errs, fmt.Errorf("%s.retry.max_attempts: must not be negative", path))
		}
		nonNegative("retry.initial_delay", r.InitialDelay)
		nonNegative("retry.max_delay", r.MaxDelay)
		if r.Multiplier != nil && *r.Multiplier < 1 {
			errs = append(errs, fmt.Errorf("%s.retry.multiplier: must be at least 1", path))
		}
	}
	return errs
}

// Options returns the options for a node tagged tag: the defaults first,
// then its override.
func (e Engine) Options(tag string) []core.Option {
	opts := e.Defaults.options()
	if n, ok := e.Overrides[tag]; ok && tag != "" {
		opts = append(opts, n.options()...)
	}
	if tag != "" {
		opts = append(opts, core.WithTag(tag))
	}
	return opts
}

func (n Node) options() []core.Option {
	var opts []core.Option
	if n.Capacity != nil {
		opts = append(opts, core.WithCapacity(*n.Capacity))
	}
	if n.RegistrationTimeout != nil {
		opts = append(opts, core.WithRegistrationTimeout(*n.RegistrationTimeout))
	}
	if n.OutputCapacity != nil {
		opts = append(opts, core.WithOutputCapacity(*n.OutputCapacity))
	}
	if n.IdleDelay != nil {
		opts = append(opts, core.WithIdleDelay(*n.IdleDelay))
	}
	if n.CloseTimeout != nil {
		opts = append(opts, core.WithCloseTimeout(*n.CloseTimeout))
	}
	if r := n.Retry; r != nil {
		opts = append(opts, func(o *core.Options) {
			if r.MaxAttempts != nil {
				o.Retry.MaxAttempts = *r.MaxAttempts
			}
			if r.InitialDelay != nil {
				o.Retry.InitialDelay = *r.InitialDelay
			}
			if r.MaxDelay != nil {
				o.Retry.MaxDelay = *r.MaxDelay
			}
			if r.Multiplier != nil {
				o.Retry.Multiplier = *r.Multiplier
			}
		})
	}
	return opts
}
