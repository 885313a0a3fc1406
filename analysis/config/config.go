// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/awslabs/ar-plc-tools/internal/funcutil"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// Config contains the tool options, the annotation markers and guard helpers, and the site-specific naming
// patterns used by the taint rules.
// If some field is not defined in the config file, it will be empty/zero in the struct and Load sets the default.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:"options"`

	sourceFile string

	// AnnotationMarkers lists the comment markers that declare a validation (e.g. @PlausibilityCheck)
	AnnotationMarkers []string `yaml:"annotation-markers"`

	// GuardHelpers lists the names of helper predicates that range-constrain their arguments, e.g. IN_RANGE(x)
	GuardHelpers []string `yaml:"guard-helpers"`

	// DisabledRules lists rule numbers that are not run
	DisabledRules []int `yaml:"disabled-rules"`

	// Taint extends the built-in naming conventions of the taint rules
	Taint TaintPatterns `yaml:"taint"`
}

// TaintPatterns are name patterns added to the built-in sources and sinks of the taint rules.
type TaintPatterns struct {
	// Sources are additional untrusted-origin variable name patterns
	Sources []NamePattern `yaml:"sources"`

	// Actuators are additional sensitive target name patterns
	Actuators []NamePattern `yaml:"actuators"`
}

// Options holds the scalar settings of the tool.
type Options struct {
	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// MaxDepth is the statement nesting depth past which recursive walks stop.
	// If provided MaxDepth is <= 0, the default is used.
	MaxDepth int `yaml:"max-depth"`

	// AnnotationGap is the number of lines above a statement searched for a validation marker.
	AnnotationGap int `yaml:"annotation-gap"`

	// Parallelism is the number of goroutines running rules. Values <= 1 run the rules sequentially.
	Parallelism int `yaml:"parallelism"`

	// MaxViolations sets a limit for the number of violations reported per rule. If MaxViolations > 0, then at
	// most MaxViolations will be reported. Otherwise it is ignored.
	MaxViolations int `yaml:"max-violations"`
}

// NewDefault returns the default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:        "",
		AnnotationMarkers: slices.Clone(DefaultAnnotationMarkers),
		GuardHelpers:      slices.Clone(DefaultGuardHelpers),
		DisabledRules:     nil,
		Options: Options{
			LogLevel:      int(InfoLevel),
			MaxDepth:      DefaultMaxDepth,
			AnnotationGap: DefaultAnnotationGap,
			Parallelism:   1,
			MaxViolations: 0,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	return LoadFromBytes(filename, b)
}

// LoadFromBytes parses the yaml configuration in b. filename is only used to resolve relative paths.
// Unknown keys are rejected so that misspelled options do not go unnoticed.
func LoadFromBytes(filename string, b []byte) (*Config, error) {
	cfg := NewDefault()
	// markers and helpers given in the file replace the defaults
	cfg.AnnotationMarkers = nil
	cfg.GuardHelpers = nil

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}
	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.LogLevel < int(ErrLevel) || cfg.LogLevel > int(TraceLevel) {
		return nil, fmt.Errorf("log-level %d out of range [%d, %d]", cfg.LogLevel, ErrLevel, TraceLevel)
	}

	// Set the MaxDepth default if it is <= 0
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.AnnotationGap <= 0 {
		cfg.AnnotationGap = DefaultAnnotationGap
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if len(cfg.AnnotationMarkers) == 0 {
		cfg.AnnotationMarkers = slices.Clone(DefaultAnnotationMarkers)
	}
	if len(cfg.GuardHelpers) == 0 {
		cfg.GuardHelpers = slices.Clone(DefaultGuardHelpers)
	}
	return cfg, nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// IsRuleDisabled returns true if the rule number has been disabled in the configuration
func (c Config) IsRuleDisabled(rule int) bool {
	return slices.Contains(c.DisabledRules, rule)
}

// IsExtraSource returns true if the variable name matches one of the configured source patterns
func (c Config) IsExtraSource(name string) bool {
	return funcutil.Exists(c.Taint.Sources, func(p NamePattern) bool { return p.Match(name) })
}

// IsExtraActuator returns true if the variable name matches one of the configured actuator patterns
func (c Config) IsExtraActuator(name string) bool {
	return funcutil.Exists(c.Taint.Actuators, func(p NamePattern) bool { return p.Match(name) })
}
