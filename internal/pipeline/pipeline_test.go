package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Conceptual-Machines/lyricist-api/internal/config"
	"github.com/Conceptual-Machines/lyricist-api/internal/errs"
	"github.com/Conceptual-Machines/lyricist-api/internal/llm"
	"github.com/Conceptual-Machines/lyricist-api/internal/models"
	"github.com/Conceptual-Machines/lyricist-api/internal/prompt"
	"github.com/Conceptual-Machines/lyricist-api/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type reply struct {
	raw string
	err error
}

// scriptedProvider answers by output shape. Each shape pops its queue; the
// last reply repeats once the queue is drained.
type scriptedProvider struct {
	mu      sync.Mutex
	replies map[string][]reply
	calls   []llm.GenerationRequest
}

func newScripted() *scriptedProvider {
	return &scriptedProvider{replies: map[string][]reply{}}
}

func (p *scriptedProvider) on(shape string, replies ...reply) *scriptedProvider {
	p.replies[shape] = append(p.replies[shape], replies...)
	return p
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Generate(_ context.Context, req *llm.GenerationRequest) (*llm.GenerationResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, *req)

	queue := p.replies[req.Shape.Name]
	if len(queue) == 0 {
		return nil, errors.New("no scripted reply for " + req.Shape.Name)
	}
	next := queue[0]
	if len(queue) > 1 {
		p.replies[req.Shape.Name] = queue[1:]
	}
	if next.err != nil {
		return nil, next.err
	}
	return &llm.GenerationResponse{
		RawOutput: next.raw,
		Usage:     llm.Usage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150},
	}, nil
}

func (p *scriptedProvider) callsFor(shape string) []llm.GenerationRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []llm.GenerationRequest
	for _, c := range p.calls {
		if c.Shape.Name == shape {
			out = append(out, c)
		}
	}
	return out
}

type fakeMetrics struct {
	mu       sync.Mutex
	stages   []string
	degraded int
	tokens   int
}

func (m *fakeMetrics) RecordStage(stage, _ string, _ int, _, success bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := "ok"
	if !success {
		status = "failed"
	}
	m.stages = append(m.stages, stage+":"+status)
}

func (m *fakeMetrics) RecordTokenUsage(_ string, total, _, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens += total
}

func (m *fakeMetrics) RecordReviewDegraded(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.degraded++
}

var (
	serverErr = errors.New("Error 503, Status: UNAVAILABLE")
	fatalErr  = errors.New("invalid api key")
)

const (
	shapeStrategy = "strategy_result"
	shapeLyrics   = "lyrics_draft"
	shapeCombined = "strategy_and_lyrics"
	shapeCritics  = "critics_consensus"
	shapeReview   = "review_result"
	shapePost     = "post_process_output"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func testStrategy() models.StrategyResult {
	return models.StrategyResult{
		Navarasa:  "Shringara",
		Structure: "Verse-Chorus-Verse-Chorus-Bridge-Chorus",
		Blueprint: models.Blueprint{
			Title:           "Monsoon Letters",
			HookLine:        "the rain still knows your name",
			SectionsOutline: []string{"Verse 1", "Chorus", "Verse 2", "Chorus", "Bridge", "Chorus"},
		},
		Directives: models.StrategyDirectives{Linguistic: "simple", Cultural: "coastal", Musical: "slow build"},
		MusicalArchitecture: models.MusicalArchitecture{
			Instruments: []string{"sitar", "piano"},
		},
	}
}

func longLyrics() string {
	verse := "[Verse 1]\nThe rain still knows your name tonight\nIt taps the glass in silver light\n"
	return strings.Repeat(verse, 4)
}

func draftJSON(t *testing.T, lyrics string) string {
	s := testStrategy()
	return mustJSON(t, models.LyricsDraft{Title: "Monsoon Letters", Lyrics: lyrics, Strategy: &s})
}

func criticsJSON(t *testing.T, verdict models.FinalVerdict, plan string, personas ...string) string {
	entries := make([]models.DebateEntry, 0, len(personas))
	for _, p := range personas {
		entries = append(entries, models.DebateEntry{Persona: p, Verdict: models.VerdictNeedsPolish, Critique: "tighten the hook"})
	}
	return mustJSON(t, models.CriticsConsensus{DebateSummary: entries, ConsensusPlan: plan, FinalVerdict: verdict})
}

func reviewJSON(t *testing.T) string {
	return mustJSON(t, models.ReviewResult{Lyrics: "[Chorus]\nreviewed lyrics", Changes: []string{"fixed meter"}})
}

func postJSON(t *testing.T) string {
	return mustJSON(t, models.PostProcessOutput{
		ComplianceReport: models.ComplianceReport{RhymeAudit: "ok", MeterAudit: "ok", CulturalAudit: "ok", Score: 92},
		ReviewedLyrics:   "[Chorus]\nreviewed lyrics",
		FormattedLyrics:  "[Chorus]\nreviewed lyrics",
		StylePrompt:      "slow monsoon ballad, sitar and piano",
	})
}

func newOrchestrator(p llm.Provider, m Metrics) *Orchestrator {
	return New(p,
		WithDefaultModels("gemini-2.5-flash", "gemini-2.5-pro"),
		WithPolicy(config.DefaultPipelinePolicy()),
		WithMetrics(m),
		WithRetryOptions(retry.WithSleeper(func(ctx context.Context, _ time.Duration) error { return ctx.Err() })),
	)
}

func baseRequest() Request {
	return Request{
		Text:     "a love song about the monsoon",
		Settings: models.GenerationSettings{Style: "Ballad", RhymeScheme: "AABB"},
		Language: models.LanguageProfile{Primary: "Hindi"},
	}
}

func happyProvider(t *testing.T) *scriptedProvider {
	return newScripted().
		on(shapeStrategy, reply{raw: mustJSON(t, testStrategy())}).
		on(shapeLyrics, reply{raw: mustJSON(t, models.LyricsDraft{Title: "Monsoon Letters", Lyrics: longLyrics()})}).
		on(shapeCombined, reply{raw: draftJSON(t, longLyrics())}).
		on(shapeCritics, reply{raw: criticsJSON(t, models.FinalRewrite, "shorten verse two", "Hit Producer", "Cultural Guardian")}).
		on(shapeReview, reply{raw: reviewJSON(t)}).
		on(shapePost, reply{raw: postJSON(t)})
}

func TestRun_CombinedPath(t *testing.T) {
	p := happyProvider(t)
	m := &fakeMetrics{}
	o := newOrchestrator(p, m)

	result, err := o.Run(context.Background(), baseRequest(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, []State{StateStrategyAndLyrics, StateReview, StatePostProcess, StateDone}, result.States)
	assert.NotEmpty(t, result.RunID)
	require.NotNil(t, result.Strategy)
	assert.Equal(t, "Shringara", result.Strategy.Navarasa)
	assert.False(t, result.Review.Degraded)
	assert.Equal(t, 92, result.Output.ComplianceReport.Score)
	assert.Len(t, result.Reports, 3)
	assert.Equal(t, []string{"strategy_lyrics:ok", "review:ok", "post_process:ok"}, m.stages)
	assert.Equal(t, 450, m.tokens)
	assert.Empty(t, p.callsFor(shapeCritics))

	post := p.callsFor(shapePost)
	require.Len(t, post, 1)
	assert.Contains(t, post[0].Prompt, "reviewed lyrics")
	assert.Contains(t, post[0].Prompt, "Title: Monsoon Letters")
}

func TestRun_DebateAndSeparatePlanning(t *testing.T) {
	p := happyProvider(t)
	o := newOrchestrator(p, &fakeMetrics{})

	result, err := o.Run(context.Background(), baseRequest(), RunOptions{Debate: true, Separate: true})
	require.NoError(t, err)

	assert.Equal(t, []State{
		StateStrategy, StateLyrics, StateCriticsSwarm, StateReview, StatePostProcess, StateDone,
	}, result.States)
	require.NotNil(t, result.Draft.Strategy)
	assert.Equal(t, "Monsoon Letters", result.Draft.Strategy.Blueprint.Title)

	// entries come back in activation order
	require.Len(t, result.Consensus.DebateSummary, 2)
	assert.Equal(t, "Cultural Guardian", result.Consensus.DebateSummary[0].Persona)
	assert.Equal(t, "Hit Producer", result.Consensus.DebateSummary[1].Persona)

	review := p.callsFor(shapeReview)
	require.Len(t, review, 1)
	assert.Contains(t, review[0].Prompt, "CONSENSUS PLAN:\nshorten verse two")
	assert.Contains(t, review[0].Prompt, "AABB")
	assert.Empty(t, p.callsFor(shapeCombined))
}

func TestRun_StagesUseConfiguredTemperatures(t *testing.T) {
	p := happyProvider(t)
	o := newOrchestrator(p, &fakeMetrics{})

	_, err := o.Run(context.Background(), baseRequest(), RunOptions{})
	require.NoError(t, err)

	policy := config.DefaultPipelinePolicy()
	assert.Equal(t, policy.TemperatureFor("strategy_lyrics"), p.callsFor(shapeCombined)[0].Temperature)
	assert.Equal(t, policy.TemperatureFor("review"), p.callsFor(shapeReview)[0].Temperature)
	assert.NotEmpty(t, p.callsFor(shapeReview)[0].SystemPrompt)
}

func TestStrategyAndLyrics_QualityGate(t *testing.T) {
	short := draftJSON(t, "[Chorus]\ntoo short")

	t.Run("short drafts retry and fall back", func(t *testing.T) {
		p := newScripted().on(shapeCombined,
			reply{raw: short}, reply{raw: short}, reply{raw: short},
			reply{raw: draftJSON(t, longLyrics())},
		)
		o := newOrchestrator(p, &fakeMetrics{})

		draft, err := o.StrategyAndLyrics(context.Background(), baseRequest())
		require.NoError(t, err)
		assert.Equal(t, longLyrics(), draft.Lyrics)

		calls := p.callsFor(shapeCombined)
		require.Len(t, calls, 4)
		assert.Equal(t, "gemini-2.5-flash", calls[2].Model)
		assert.Equal(t, "gemini-2.5-pro", calls[3].Model)
	})

	t.Run("exhausted policy reports validation", func(t *testing.T) {
		p := newScripted().on(shapeCombined, reply{raw: short})
		o := newOrchestrator(p, &fakeMetrics{})

		_, err := o.StrategyAndLyrics(context.Background(), baseRequest())
		require.Error(t, err)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
		assert.Len(t, p.callsFor(shapeCombined), 6)
	})

	t.Run("missing required field is a parsing failure", func(t *testing.T) {
		p := newScripted().on(shapeCombined, reply{raw: `{"title":"x","lyrics":"y"}`})
		o := newOrchestrator(p, &fakeMetrics{})

		_, err := o.StrategyAndLyrics(context.Background(), baseRequest())
		assert.Equal(t, errs.KindParsing, errs.KindOf(err))
	})
}

func TestStrategy_AcceptsFencedOutput(t *testing.T) {
	p := newScripted().on(shapeStrategy, reply{raw: "Here you go:\n```json\n" + mustJSON(t, testStrategy()) + "\n```"})
	o := newOrchestrator(p, &fakeMetrics{})

	strategy, err := o.Strategy(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.Equal(t, "the rain still knows your name", strategy.Blueprint.HookLine)
}

func TestCriticsSwarm(t *testing.T) {
	req := baseRequest()
	req.Settings.Category = "Kids"
	req.Draft = &models.LyricsDraft{Title: "Rain", Lyrics: longLyrics()}
	all := []string{"Cultural Guardian", "Kids Content Specialist", "Hit Producer"}

	tests := []struct {
		name      string
		replies   []reply
		wantErr   errs.Kind
		wantCalls int
	}{
		{
			name:      "one entry per persona",
			replies:   []reply{{raw: criticsJSON(t, models.FinalReady, "", all...)}},
			wantCalls: 1,
		},
		{
			name: "missing persona is retried",
			replies: []reply{
				{raw: criticsJSON(t, models.FinalReady, "", "Cultural Guardian", "Hit Producer")},
				{raw: criticsJSON(t, models.FinalReady, "", all...)},
			},
			wantCalls: 2,
		},
		{
			name:      "rewrite without plan never validates",
			replies:   []reply{{raw: criticsJSON(t, models.FinalRewrite, "  ", all...)}},
			wantErr:   errs.KindValidation,
			wantCalls: 6,
		},
		{
			name:      "fatal provider error stops immediately",
			replies:   []reply{{err: fatalErr}},
			wantErr:   errs.KindFatal,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newScripted().on(shapeCritics, tt.replies...)
			o := newOrchestrator(p, &fakeMetrics{})

			consensus, err := o.CriticsSwarm(context.Background(), req)
			assert.Len(t, p.callsFor(shapeCritics), tt.wantCalls)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, errs.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Len(t, consensus.DebateSummary, 3)
			assert.Contains(t, p.callsFor(shapeCritics)[0].Prompt, "exactly 3 entries")
		})
	}
}

func TestReview_AlwaysFailingDegrades(t *testing.T) {
	p := newScripted().on(shapeReview, reply{err: serverErr})
	m := &fakeMetrics{}
	o := newOrchestrator(p, m)

	req := baseRequest()
	req.Draft = &models.LyricsDraft{Lyrics: "[Verse]\noriginal draft"}

	result := o.Review(context.Background(), req)
	require.NotNil(t, result)
	assert.True(t, result.Degraded)
	assert.Equal(t, "[Verse]\noriginal draft", result.Lyrics)
	assert.Equal(t, 1, m.degraded)
	assert.Len(t, p.callsFor(shapeReview), 6)
}

func TestRun_DegradedReviewStillCompletes(t *testing.T) {
	p := happyProvider(t)
	p.replies[shapeReview] = []reply{{raw: "I could not do it"}}
	o := newOrchestrator(p, &fakeMetrics{})

	result, err := o.Run(context.Background(), baseRequest(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, StateDone, result.Final())
	assert.True(t, result.Review.Degraded)
	assert.Equal(t, longLyrics(), result.Review.Lyrics)

	// the unchanged draft is what post-processing sees
	post := p.callsFor(shapePost)
	require.Len(t, post, 1)
	assert.Contains(t, post[0].Prompt, "The rain still knows your name tonight")
}

func TestRun_PostProcessFailureIsFatal(t *testing.T) {
	p := happyProvider(t)
	p.replies[shapePost] = []reply{{err: fatalErr}}
	o := newOrchestrator(p, &fakeMetrics{})

	result, err := o.Run(context.Background(), baseRequest(), RunOptions{})
	require.Error(t, err)
	assert.Equal(t, errs.KindFatal, errs.KindOf(err))
	assert.Equal(t, []State{StateStrategyAndLyrics, StateReview, StatePostProcess, StateFailed}, result.States)
	assert.NotNil(t, result.Draft)
	assert.Nil(t, result.Output)

	last := result.Reports[len(result.Reports)-1]
	assert.Equal(t, prompt.StagePostProcess, last.Stage)
	assert.Equal(t, errs.KindFatal, last.Kind)
}

func TestRun_CancelledContext(t *testing.T) {
	p := happyProvider(t)
	o := newOrchestrator(p, &fakeMetrics{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := o.Run(ctx, baseRequest(), RunOptions{})
	require.Error(t, err)
	assert.Equal(t, errs.KindFatal, errs.KindOf(err))
	assert.Equal(t, StateFailed, result.Final())
	assert.Empty(t, p.calls)
}

func TestRun_RequestModelOverridesDefault(t *testing.T) {
	p := happyProvider(t)
	o := newOrchestrator(p, &fakeMetrics{})

	req := baseRequest()
	req.Model = "gpt-5-mini"
	_, err := o.Run(context.Background(), req, RunOptions{})
	require.NoError(t, err)
	for _, c := range p.calls {
		assert.Equal(t, "gpt-5-mini", c.Model)
	}
}

func TestRun_NoModelConfigured(t *testing.T) {
	o := New(newScripted())

	_, err := o.Run(context.Background(), baseRequest(), RunOptions{})
	require.Error(t, err)
	assert.Equal(t, errs.KindFatal, errs.KindOf(err))
}
