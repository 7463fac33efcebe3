// Package pipeline sequences the generation stages. Each stage composes a
// payload, runs it under the retry controller and extracts a typed result that
// feeds the next stage.
package pipeline

import (
	"strings"
	"time"

	"github.com/Conceptual-Machines/lyricist-api/internal/config"
	"github.com/Conceptual-Machines/lyricist-api/internal/llm"
	"github.com/Conceptual-Machines/lyricist-api/internal/models"
	"github.com/Conceptual-Machines/lyricist-api/internal/observability"
	"github.com/Conceptual-Machines/lyricist-api/internal/prompt"
	"github.com/Conceptual-Machines/lyricist-api/internal/retry"
	"github.com/Conceptual-Machines/lyricist-api/internal/skills"
)

// Request is the input of every stage entry point. Stages that work on
// existing lyrics read Draft, or Text when Draft is nil.
type Request struct {
	Text          string                    `json:"text"`
	Settings      models.GenerationSettings `json:"settings"`
	Language      models.LanguageProfile    `json:"language"`
	Model         string                    `json:"model,omitempty"`
	FallbackModel string                    `json:"fallbackModel,omitempty"`
	AudioAnalysis *models.AudioAnalysis     `json:"audioAnalysis,omitempty"`
	KnowledgeBase string                    `json:"knowledgeBase,omitempty"`
	Strategy      *models.StrategyResult    `json:"strategy,omitempty"`
	Draft         *models.LyricsDraft       `json:"draft,omitempty"`
	Consensus     *models.CriticsConsensus  `json:"consensus,omitempty"`
}

// SkillsContext builds the activation context for the request
func (r Request) SkillsContext() skills.Context {
	return skills.NewContext(r.Text, r.Settings, r.Language, r.AudioAnalysis, r.KnowledgeBase)
}

func (r Request) draft() *models.LyricsDraft {
	if r.Draft != nil {
		return r.Draft
	}
	return &models.LyricsDraft{Lyrics: strings.TrimSpace(r.Text)}
}

// Metrics receives stage outcomes; *metrics.Client satisfies it
type Metrics interface {
	RecordStage(stage, model string, attempts int, usedFallback, success bool, duration time.Duration)
	RecordTokenUsage(model string, totalTokens, inputTokens, outputTokens int)
	RecordReviewDegraded(model string)
}

type noopMetrics struct{}

func (noopMetrics) RecordStage(string, string, int, bool, bool, time.Duration) {}
func (noopMetrics) RecordTokenUsage(string, int, int, int)                     {}
func (noopMetrics) RecordReviewDegraded(string)                                {}

// Orchestrator runs stages against one provider. It holds no per-run state;
// concurrent runs are independent.
type Orchestrator struct {
	provider        llm.Provider
	registry        *skills.Registry
	composer        *prompt.Composer
	policy          *config.PipelinePolicy
	controller      *retry.Controller
	retryOptions    []retry.Option
	defaultModel    string
	defaultFallback string
	tracer          *observability.LangfuseClient
	metrics         Metrics
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithRegistry replaces the built-in skill registry
func WithRegistry(registry *skills.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithPolicy sets retry, quality-gate and temperature policy
func WithPolicy(policy *config.PipelinePolicy) Option {
	return func(o *Orchestrator) {
		o.policy = policy
	}
}

// WithRetryOptions customises the retry controller (sleeper, jitter source)
func WithRetryOptions(opts ...retry.Option) Option {
	return func(o *Orchestrator) {
		o.retryOptions = append(o.retryOptions, opts...)
	}
}

// WithDefaultModels sets the models used when a request names none
func WithDefaultModels(model, fallback string) Option {
	return func(o *Orchestrator) {
		o.defaultModel = model
		o.defaultFallback = fallback
	}
}

// WithTracer sets the Langfuse client
func WithTracer(tracer *observability.LangfuseClient) Option {
	return func(o *Orchestrator) {
		o.tracer = tracer
	}
}

// WithMetrics sets the stage metrics sink
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// New creates an orchestrator over provider
func New(provider llm.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider: provider,
		registry: skills.Default(),
		policy:   config.DefaultPipelinePolicy(),
		tracer:   observability.GetClient(),
		metrics:  noopMetrics{},
	}
	for _, opt := range opts {
		opt(o)
	}

	o.composer = prompt.NewComposer(o.registry)
	o.controller = retry.NewController(retry.Policy{
		MaxAttempts: o.policy.MaxAttempts,
		BackoffBase: o.policy.BackoffBase(),
		Jitter:      o.policy.Jitter(),
	}, o.retryOptions...)
	return o
}

// Registry returns the skill registry the orchestrator activates against
func (o *Orchestrator) Registry() *skills.Registry {
	return o.registry
}

// Composer returns the prompt composer used for every stage
func (o *Orchestrator) Composer() *prompt.Composer {
	return o.composer
}

func (o *Orchestrator) target(req Request) retry.Target {
	target := retry.Target{Model: strings.TrimSpace(req.Model), FallbackModel: strings.TrimSpace(req.FallbackModel)}
	if target.Model == "" {
		target.Model = o.defaultModel
	}
	if target.FallbackModel == "" {
		target.FallbackModel = o.defaultFallback
	}
	return target
}
