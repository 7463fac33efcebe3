package pipeline

import (
	"context"
	"time"

	"github.com/Conceptual-Machines/lyricist-api/internal/errs"
	"github.com/Conceptual-Machines/lyricist-api/internal/extract"
	"github.com/Conceptual-Machines/lyricist-api/internal/llm"
	"github.com/Conceptual-Machines/lyricist-api/internal/logger"
	"github.com/Conceptual-Machines/lyricist-api/internal/metrics"
	"github.com/Conceptual-Machines/lyricist-api/internal/observability"
	"github.com/Conceptual-Machines/lyricist-api/internal/prompt"
	"github.com/Conceptual-Machines/lyricist-api/internal/retry"
)

// StageReport records how one stage execution went
type StageReport struct {
	Stage    prompt.Stage  `json:"stage"`
	Report   retry.Report  `json:"report"`
	Duration time.Duration `json:"duration_ns"`
	Kind     errs.Kind     `json:"kind,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Stage spans attach to whatever Sentry transaction the caller carries
var stageSpans = metrics.NewSentryMetrics()

// run is the per-invocation state shared by the stages of one pipeline run
type run struct {
	id      string
	trace   *observability.Trace
	reports []StageReport
}

func (r *run) record(report StageReport) {
	r.reports = append(r.reports, report)
}

// checkFunc inspects a decoded value inside the attempt; an error makes the
// attempt count as failed
type checkFunc[T any] func(value *T, payload *prompt.Payload) error

func runStage[T any](
	ctx context.Context,
	o *Orchestrator,
	r *run,
	req Request,
	stage prompt.Stage,
	in prompt.Input,
	check checkFunc[T],
) (*T, error) {
	start := time.Now()
	report := StageReport{Stage: stage}
	defer func() {
		report.Duration = time.Since(start)
		r.record(report)
	}()

	fail := func(err error) (*T, error) {
		classified := errs.Classify(err)
		report.Kind = classified.Kind
		report.Error = classified.Error()
		return nil, classified
	}

	target := o.target(req)
	if target.Model == "" {
		return fail(errs.New(errs.KindFatal, "no model configured", nil))
	}

	payload, err := o.composer.Compose(stage, in)
	if err != nil {
		return fail(errs.New(errs.KindFatal, "compose "+string(stage), err))
	}
	text := payload.Text()
	temperature := o.policy.TemperatureFor(string(stage))

	value, rep, err := retry.Execute(ctx, o.controller, target, func(ctx context.Context, call retry.Call) (*T, error) {
		gen := r.trace.Generation(string(stage), map[string]interface{}{
			"run_id":  r.id,
			"stage":   string(stage),
			"tier":    string(call.Tier),
			"attempt": call.Attempt,
		})
		defer gen.Finish()

		attemptStart := time.Now()
		resp, err := o.provider.Generate(ctx, &llm.GenerationRequest{
			Model:        call.Model,
			SystemPrompt: payload.SystemInstruction,
			Prompt:       text,
			Shape:        &payload.Shape,
			Temperature:  temperature,
		})
		if err != nil {
			gen.RecordAttempt(call.Model, text, nil, map[string]interface{}{"error": err.Error()})
			gen.SetLevel("ERROR")
			return nil, err
		}
		o.metrics.RecordTokenUsage(call.Model, resp.Usage.TotalTokens, resp.Usage.InputTokens, resp.Usage.OutputTokens)
		logger.LogGenerationRequest(ctx, call.Model, time.Since(attemptStart), resp.Usage.AsMap(), logger.Fields{
			"run_id":  r.id,
			"stage":   string(stage),
			"tier":    string(call.Tier),
			"attempt": call.Attempt,
			"cost":    observability.FormatCost(observability.CalculateCost(call.Model, resp.Usage)),
		})

		decoded, err := extract.Decode[T](resp.RawOutput, payload.Shape)
		if err == nil && check != nil {
			err = check(&decoded, payload)
		}
		if err != nil {
			gen.RecordAttempt(call.Model, text, resp, map[string]interface{}{"error": err.Error()})
			gen.SetLevel("ERROR")
			return nil, err
		}
		gen.RecordAttempt(call.Model, text, resp, nil)
		return &decoded, nil
	})
	report.Report = rep

	o.metrics.RecordStage(string(stage), target.Model, len(rep.Attempts), rep.UsedFallback, err == nil, time.Since(start))
	stageSpans.RecordStage(ctx, string(stage), target.Model, len(rep.Attempts), rep.UsedFallback, err == nil, time.Since(start))
	fields := logger.Fields{
		"run_id":        r.id,
		"stage":         string(stage),
		"model":         target.Model,
		"attempts":      len(rep.Attempts),
		"used_fallback": rep.UsedFallback,
		"duration_ms":   time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["kind"] = string(errs.KindOf(err))
		logger.Error("Stage failed", err, fields)
		return fail(err)
	}
	fields["served_by"] = rep.Model
	logger.Info("Stage completed", fields)
	return value, nil
}
