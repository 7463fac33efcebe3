package pipeline

import (
	"context"
	"time"

	"github.com/Conceptual-Machines/lyricist-api/internal/errs"
	"github.com/Conceptual-Machines/lyricist-api/internal/logger"
	"github.com/Conceptual-Machines/lyricist-api/internal/models"
	"github.com/google/uuid"
)

// State is a node of the run state machine
type State string

const (
	StateStrategy          State = "STRATEGY"
	StateLyrics            State = "LYRICS"
	StateStrategyAndLyrics State = "STRATEGY_AND_LYRICS"
	StateCriticsSwarm      State = "CRITICS_SWARM"
	StateReview            State = "REVIEW"
	StatePostProcess       State = "POST_PROCESS"
	StateDone              State = "DONE"
	StateFailed            State = "FAILED"
)

// RunOptions selects the optional branches of a run
type RunOptions struct {
	// Debate inserts CRITICS_SWARM between drafting and review
	Debate bool `json:"debate"`
	// Separate plans and writes in two calls instead of one
	Separate bool `json:"separate"`
}

// Result is everything a run produced. On failure it holds the stages that
// completed before the failing one.
type Result struct {
	RunID     string                    `json:"runId"`
	TraceID   string                    `json:"traceId,omitempty"`
	States    []State                   `json:"states"`
	Strategy  *models.StrategyResult    `json:"strategy,omitempty"`
	Draft     *models.LyricsDraft       `json:"draft,omitempty"`
	Consensus *models.CriticsConsensus  `json:"consensus,omitempty"`
	Review    *models.ReviewResult      `json:"review,omitempty"`
	Output    *models.PostProcessOutput `json:"output,omitempty"`
	Reports   []StageReport             `json:"reports"`
	Duration  time.Duration             `json:"duration_ns"`
}

// Final returns the last state the run reached
func (r *Result) Final() State {
	if len(r.States) == 0 {
		return ""
	}
	return r.States[len(r.States)-1]
}

func initialState(opts RunOptions) State {
	if opts.Separate {
		return StateStrategy
	}
	return StateStrategyAndLyrics
}

func nextState(s State, opts RunOptions) State {
	switch s {
	case StateStrategy:
		return StateLyrics
	case StateLyrics, StateStrategyAndLyrics:
		if opts.Debate {
			return StateCriticsSwarm
		}
		return StateReview
	case StateCriticsSwarm:
		return StateReview
	case StateReview:
		return StatePostProcess
	default:
		return StateDone
	}
}

// Run drives a request through the full pipeline. The returned Result is never
// nil; err is a classified error from the first stage that failed.
func (o *Orchestrator) Run(ctx context.Context, req Request, opts RunOptions) (*Result, error) {
	start := time.Now()
	r := &run{id: uuid.NewString()}
	r.trace = o.tracer.StartTrace(ctx, "lyricist.pipeline", map[string]interface{}{
		"run_id":   r.id,
		"debate":   opts.Debate,
		"separate": opts.Separate,
	})
	defer r.trace.Finish()

	result := &Result{RunID: r.id, TraceID: r.trace.ID()}
	sc := req.SkillsContext()

	logger.Info("Pipeline run started", logger.Fields{
		"run_id":   r.id,
		"model":    o.target(req).Model,
		"debate":   opts.Debate,
		"separate": opts.Separate,
	})

	var err error
	state := initialState(opts)
	for state != StateDone {
		result.States = append(result.States, state)

		switch state {
		case StateStrategy:
			result.Strategy, err = o.strategy(ctx, r, req, sc)
		case StateLyrics:
			result.Draft, err = o.lyrics(ctx, r, req, sc, result.Strategy)
		case StateStrategyAndLyrics:
			result.Draft, err = o.strategyAndLyrics(ctx, r, req, sc)
			if err == nil {
				result.Strategy = result.Draft.Strategy
			}
		case StateCriticsSwarm:
			result.Consensus, err = o.critics(ctx, r, req, sc, result.Draft)
		case StateReview:
			result.Review = o.review(ctx, r, req, sc, result.Draft, result.Consensus)
		case StatePostProcess:
			reviewed := &models.LyricsDraft{
				Title:    result.Draft.Title,
				Lyrics:   result.Review.Lyrics,
				Language: result.Draft.Language,
				Strategy: result.Strategy,
			}
			result.Output, err = o.postProcess(ctx, r, req, sc, reviewed)
		}

		if err != nil {
			result.States = append(result.States, StateFailed)
			break
		}
		state = nextState(state, opts)
	}
	if err == nil {
		result.States = append(result.States, StateDone)
	}

	result.Reports = r.reports
	result.Duration = time.Since(start)

	fields := logger.Fields{
		"run_id":      r.id,
		"final_state": string(result.Final()),
		"stages":      len(result.Reports),
		"duration_ms": result.Duration.Milliseconds(),
	}
	r.trace.SetMetadata(map[string]interface{}{
		"run_id":      r.id,
		"debate":      opts.Debate,
		"separate":    opts.Separate,
		"final_state": string(result.Final()),
	})
	if err != nil {
		fields["kind"] = string(errs.KindOf(err))
		logger.Error("Pipeline run failed", err, fields)
		return result, err
	}
	if result.Review != nil && result.Review.Degraded {
		fields["review_degraded"] = true
	}
	logger.Info("Pipeline run completed", fields)
	return result, nil
}
