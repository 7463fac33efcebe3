package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	maxAttemptsLimit = 10
	maxTemperature   = 2.0
)

// default sampling temperature per stage
var defaultTemperatures = map[string]float64{
	"strategy":        0.7,
	"lyrics":          0.9,
	"strategy_lyrics": 0.85,
	"critics":         0.4,
	"review":          0.3,
	"post_process":    0.2,
}

// PipelinePolicy tunes retries, the lyrics quality gate and per-stage temperature
type PipelinePolicy struct {
	MaxAttempts     int                `yaml:"max_attempts"`
	BackoffBaseMS   int                `yaml:"backoff_base_ms"`
	JitterMS        int                `yaml:"jitter_ms"`
	MinLyricsLength int                `yaml:"min_lyrics_length"`
	Temperature     map[string]float64 `yaml:"temperature"`
}

// policyOverrides is the file form of PipelinePolicy; nil means "keep the default"
// so an explicit 0 stays distinguishable from an absent key
type policyOverrides struct {
	MaxAttempts     *int               `yaml:"max_attempts"`
	BackoffBaseMS   *int               `yaml:"backoff_base_ms"`
	JitterMS        *int               `yaml:"jitter_ms"`
	MinLyricsLength *int               `yaml:"min_lyrics_length"`
	Temperature     map[string]float64 `yaml:"temperature"`
}

// DefaultPipelinePolicy returns the built-in policy
func DefaultPipelinePolicy() *PipelinePolicy {
	temps := make(map[string]float64, len(defaultTemperatures))
	for stage, t := range defaultTemperatures {
		temps[stage] = t
	}
	return &PipelinePolicy{
		MaxAttempts:     3,
		BackoffBaseMS:   1000,
		JitterMS:        250,
		MinLyricsLength: 200,
		Temperature:     temps,
	}
}

// LoadPipeline reads a YAML policy file over the defaults. An empty path
// returns the defaults unchanged.
func LoadPipeline(path string) (*PipelinePolicy, error) {
	policy := DefaultPipelinePolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var overrides policyOverrides
	if err := decoder.Decode(&overrides); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing pipeline config YAML: %w", err)
	}

	if overrides.MaxAttempts != nil {
		policy.MaxAttempts = *overrides.MaxAttempts
	}
	if overrides.BackoffBaseMS != nil {
		policy.BackoffBaseMS = *overrides.BackoffBaseMS
	}
	if overrides.JitterMS != nil {
		policy.JitterMS = *overrides.JitterMS
	}
	if overrides.MinLyricsLength != nil {
		policy.MinLyricsLength = *overrides.MinLyricsLength
	}
	for stage, t := range overrides.Temperature {
		policy.Temperature[stage] = t
	}

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config %s: %w", path, err)
	}
	return policy, nil
}

// Validate rejects out-of-range values and unknown stage names
func (p *PipelinePolicy) Validate() error {
	if p.MaxAttempts < 1 || p.MaxAttempts > maxAttemptsLimit {
		return fmt.Errorf("max_attempts must be between 1 and %d, got %d", maxAttemptsLimit, p.MaxAttempts)
	}
	if p.BackoffBaseMS < 0 {
		return fmt.Errorf("backoff_base_ms must not be negative, got %d", p.BackoffBaseMS)
	}
	if p.JitterMS < 0 {
		return fmt.Errorf("jitter_ms must not be negative, got %d", p.JitterMS)
	}
	if p.MinLyricsLength < 0 {
		return fmt.Errorf("min_lyrics_length must not be negative, got %d", p.MinLyricsLength)
	}
	for stage, t := range p.Temperature {
		if _, ok := defaultTemperatures[stage]; !ok {
			return fmt.Errorf("unknown stage %q in temperature", stage)
		}
		if t < 0 || t > maxTemperature {
			return fmt.Errorf("temperature for %s must be between 0 and %.1f, got %.2f", stage, maxTemperature, t)
		}
	}
	return nil
}

// BackoffBase returns the base retry wait
func (p *PipelinePolicy) BackoffBase() time.Duration {
	return time.Duration(p.BackoffBaseMS) * time.Millisecond
}

// Jitter returns the maximum random offset applied to each wait
func (p *PipelinePolicy) Jitter() time.Duration {
	return time.Duration(p.JitterMS) * time.Millisecond
}

// TemperatureFor returns the sampling temperature for a stage
func (p *PipelinePolicy) TemperatureFor(stage string) float64 {
	if t, ok := p.Temperature[stage]; ok {
		return t
	}
	return defaultTemperatures[stage]
}
