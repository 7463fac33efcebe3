package pipeline

import (
	"context"

	"github.com/Conceptual-Machines/lyricist-api/internal/errs"
	"github.com/Conceptual-Machines/lyricist-api/internal/logger"
	"github.com/Conceptual-Machines/lyricist-api/internal/models"
	"github.com/Conceptual-Machines/lyricist-api/internal/prompt"
	"github.com/Conceptual-Machines/lyricist-api/internal/skills"
	"github.com/google/uuid"
)

// standalone wraps a single stage call in its own trace
func (o *Orchestrator) standalone(ctx context.Context, stage prompt.Stage) (*run, func()) {
	r := &run{id: uuid.NewString()}
	r.trace = o.tracer.StartTrace(ctx, "lyricist."+string(stage), map[string]interface{}{
		"run_id": r.id,
		"stage":  string(stage),
	})
	return r, r.trace.Finish
}

// Strategy plans a song from the request
func (o *Orchestrator) Strategy(ctx context.Context, req Request) (*models.StrategyResult, error) {
	r, done := o.standalone(ctx, prompt.StageStrategy)
	defer done()
	return o.strategy(ctx, r, req, req.SkillsContext())
}

func (o *Orchestrator) strategy(ctx context.Context, r *run, req Request, sc skills.Context) (*models.StrategyResult, error) {
	return runStage[models.StrategyResult](ctx, o, r, req, prompt.StageStrategy, prompt.Input{Context: sc}, nil)
}

// Lyrics writes a draft, following req.Strategy when one is given
func (o *Orchestrator) Lyrics(ctx context.Context, req Request) (*models.LyricsDraft, error) {
	r, done := o.standalone(ctx, prompt.StageLyrics)
	defer done()
	return o.lyrics(ctx, r, req, req.SkillsContext(), req.Strategy)
}

func (o *Orchestrator) lyrics(
	ctx context.Context,
	r *run,
	req Request,
	sc skills.Context,
	strategy *models.StrategyResult,
) (*models.LyricsDraft, error) {
	draft, err := runStage[models.LyricsDraft](ctx, o, r, req, prompt.StageLyrics,
		prompt.Input{Context: sc, Strategy: strategy}, nonEmptyLyrics)
	if err != nil {
		return nil, err
	}
	if draft.Strategy == nil {
		draft.Strategy = strategy
	}
	return draft, nil
}

// StrategyAndLyrics plans and writes a song in one call. A draft shorter than
// the configured minimum counts as a failed attempt.
func (o *Orchestrator) StrategyAndLyrics(ctx context.Context, req Request) (*models.LyricsDraft, error) {
	r, done := o.standalone(ctx, prompt.StageStrategyAndLyrics)
	defer done()
	return o.strategyAndLyrics(ctx, r, req, req.SkillsContext())
}

func (o *Orchestrator) strategyAndLyrics(ctx context.Context, r *run, req Request, sc skills.Context) (*models.LyricsDraft, error) {
	return runStage[models.LyricsDraft](ctx, o, r, req, prompt.StageStrategyAndLyrics,
		prompt.Input{Context: sc}, minLengthGate(o.policy.MinLyricsLength))
}

// CriticsSwarm runs the persona debate over a draft
func (o *Orchestrator) CriticsSwarm(ctx context.Context, req Request) (*models.CriticsConsensus, error) {
	r, done := o.standalone(ctx, prompt.StageCritics)
	defer done()
	return o.critics(ctx, r, req, req.SkillsContext(), req.draft())
}

func (o *Orchestrator) critics(
	ctx context.Context,
	r *run,
	req Request,
	sc skills.Context,
	draft *models.LyricsDraft,
) (*models.CriticsConsensus, error) {
	if len(skills.Personas(o.registry.Activate(sc))) == 0 {
		err := errs.New(errs.KindFatal, "no critic personas are active for this request", nil)
		r.record(StageReport{Stage: prompt.StageCritics, Kind: err.Kind, Error: err.Error()})
		return nil, err
	}
	return runStage[models.CriticsConsensus](ctx, o, r, req, prompt.StageCritics,
		prompt.Input{Context: sc, Strategy: strategyOf(req, draft), Draft: draft}, checkDebate)
}

// Review revises a draft. It never fails: when the stage cannot produce a
// result the draft is returned unchanged and marked degraded.
func (o *Orchestrator) Review(ctx context.Context, req Request) *models.ReviewResult {
	r, done := o.standalone(ctx, prompt.StageReview)
	defer done()
	return o.review(ctx, r, req, req.SkillsContext(), req.draft(), req.Consensus)
}

func (o *Orchestrator) review(
	ctx context.Context,
	r *run,
	req Request,
	sc skills.Context,
	draft *models.LyricsDraft,
	consensus *models.CriticsConsensus,
) *models.ReviewResult {
	in := prompt.Input{Context: sc, Strategy: strategyOf(req, draft), Draft: draft, Consensus: consensus}
	result, err := runStage[models.ReviewResult](ctx, o, r, req, prompt.StageReview, in, checkReview)
	if err == nil {
		return result
	}

	model := o.target(req).Model
	logger.Warn("Review degraded, passing draft through", logger.Fields{
		"run_id": r.id,
		"model":  model,
		"kind":   string(errs.KindOf(err)),
	})
	o.metrics.RecordReviewDegraded(model)
	return &models.ReviewResult{Lyrics: draft.Lyrics, Degraded: true}
}

// PostProcess produces the compliance report and delivery artifacts
func (o *Orchestrator) PostProcess(ctx context.Context, req Request) (*models.PostProcessOutput, error) {
	r, done := o.standalone(ctx, prompt.StagePostProcess)
	defer done()
	return o.postProcess(ctx, r, req, req.SkillsContext(), req.draft())
}

func (o *Orchestrator) postProcess(
	ctx context.Context,
	r *run,
	req Request,
	sc skills.Context,
	draft *models.LyricsDraft,
) (*models.PostProcessOutput, error) {
	return runStage[models.PostProcessOutput](ctx, o, r, req, prompt.StagePostProcess,
		prompt.Input{Context: sc, Strategy: strategyOf(req, draft), Draft: draft}, checkPostProcess)
}

func strategyOf(req Request, draft *models.LyricsDraft) *models.StrategyResult {
	if draft != nil && draft.Strategy != nil {
		return draft.Strategy
	}
	return req.Strategy
}
