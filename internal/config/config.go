// Package config loads and validates the sweep description: the command
// template, the parameter definitions, and the extract rules.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mwiater/autorun/internal/extract"
	"github.com/mwiater/autorun/internal/sweep"
)

// DefaultFile is read when no alternate path is given.
const DefaultFile = "autorun.json"

// ParameterConfig is one entry of the "parameters" array.
type ParameterConfig struct {
	Name     string   `mapstructure:"name" json:"name"`
	Type     string   `mapstructure:"type" json:"type"`               // scaling, list or static
	Min      *float64 `mapstructure:"min" json:"min,omitempty"`       // scaling
	Max      *float64 `mapstructure:"max" json:"max,omitempty"`       // scaling
	Step     *float64 `mapstructure:"step" json:"step,omitempty"`     // scaling
	StepType string   `mapstructure:"step_type" json:"step_type"`     // add or mult
	List     []any    `mapstructure:"list" json:"list,omitempty"`     // list
	Value    any      `mapstructure:"value" json:"value,omitempty"`   // static
	Output   *bool    `mapstructure:"output" json:"output,omitempty"` // defaults to true
}

// ExtractConfig is one entry of the "extract" array.
type ExtractConfig struct {
	Name  string `mapstructure:"name" json:"name"`
	Regex string `mapstructure:"regex" json:"regex"`
	Type  string `mapstructure:"type" json:"type"` // numerical or anything else
}

// Config mirrors the autorun.json layout.
type Config struct {
	Command    string            `mapstructure:"command" json:"command"`
	Parameters []ParameterConfig `mapstructure:"parameters" json:"parameters"`
	Extract    []ExtractConfig   `mapstructure:"extract" json:"extract"`
}

// Sweep is the validated, immutable form of a Config.
type Sweep struct {
	Command string
	Space   *sweep.Space
	Rules   []extract.Rule
}

// ConfigurationError reports a malformed or unsupported definition. It is
// fatal: nothing is executed once one is returned.
type ConfigurationError struct {
	Parameter string
	Rule      string
	Field     string
	Reason    string
	Err       error
}

func (e *ConfigurationError) Error() string {
	var subject string
	switch {
	case e.Parameter != "":
		subject = fmt.Sprintf("parameter <%s>", e.Parameter)
	case e.Rule != "":
		subject = fmt.Sprintf("extract <%s>", e.Rule)
	default:
		subject = "config"
	}
	if e.Field != "" {
		subject += " field " + e.Field
	}
	msg := subject + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Load reads path with viper. The format follows the file extension; files
// without one are read as JSON. AUTORUN_* environment variables override
// top-level keys.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	v.SetEnvPrefix("AUTORUN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("could not read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Build validates every definition and assembles the sweep.
func (c *Config) Build() (*Sweep, error) {
	if c.Command == "" {
		return nil, &ConfigurationError{Field: "command", Reason: "command template is required"}
	}

	seen := make(map[string]bool, len(c.Parameters))
	params := make([]sweep.Parameter, 0, len(c.Parameters))
	for i, pc := range c.Parameters {
		if pc.Name == "" {
			return nil, &ConfigurationError{Field: "name", Reason: fmt.Sprintf("parameter %d has no name", i)}
		}
		if seen[pc.Name] {
			return nil, &ConfigurationError{Parameter: pc.Name, Reason: "declared more than once", Err: sweep.ErrDuplicateName}
		}
		seen[pc.Name] = true

		p, err := pc.build()
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}

	space, err := sweep.NewSpace(params)
	if err != nil {
		return nil, &ConfigurationError{Field: "parameters", Reason: "invalid parameter set", Err: err}
	}

	rules := make([]extract.Rule, 0, len(c.Extract))
	for i, ec := range c.Extract {
		if ec.Name == "" {
			return nil, &ConfigurationError{Field: "name", Reason: fmt.Sprintf("extract %d has no name", i)}
		}
		r, err := extract.NewRule(ec.Name, ec.Regex, extract.ParseType(ec.Type))
		if err != nil {
			return nil, &ConfigurationError{Rule: ec.Name, Field: "regex", Reason: "invalid pattern", Err: err}
		}
		rules = append(rules, r)
	}

	return &Sweep{Command: c.Command, Space: space, Rules: rules}, nil
}

type visibility interface {
	SetOutput(bool)
}

func (pc ParameterConfig) build() (sweep.Parameter, error) {
	fail := func(field, reason string, err error) error {
		return &ConfigurationError{Parameter: pc.Name, Field: field, Reason: reason, Err: err}
	}

	var (
		p   sweep.Parameter
		err error
	)
	switch sweep.Kind(pc.Type) {
	case sweep.KindScaling:
		bounds := []struct {
			field string
			v     *float64
		}{{"min", pc.Min}, {"max", pc.Max}, {"step", pc.Step}}
		for _, b := range bounds {
			if b.v == nil {
				return nil, fail(b.field, "required for scaling parameters", nil)
			}
		}
		st, serr := sweep.ParseStepType(pc.StepType)
		if serr != nil {
			return nil, fail("step_type", "invalid step type", serr)
		}
		p, err = sweep.NewScaling(pc.Name, *pc.Min, *pc.Max, *pc.Step, st)
		if err != nil {
			return nil, fail("step", "enumeration would never terminate", err)
		}
	case sweep.KindList:
		p, err = sweep.NewList(pc.Name, pc.List)
		if err != nil {
			return nil, fail("list", "invalid list", err)
		}
	case sweep.KindStatic:
		p, err = sweep.NewStatic(pc.Name, pc.Value)
		if err != nil {
			return nil, fail("value", "invalid static value", err)
		}
	default:
		return nil, fail("type", fmt.Sprintf("unrecognized type: %q", pc.Type), nil)
	}

	if pc.Output != nil {
		if vis, ok := p.(visibility); ok {
			vis.SetOutput(*pc.Output)
		}
	}
	return p, nil
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
