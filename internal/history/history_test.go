package history

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Conceptual-Machines/lyricist-api/internal/database"
	"github.com/Conceptual-Machines/lyricist-api/internal/errs"
	"github.com/Conceptual-Machines/lyricist-api/internal/models"
	"github.com/Conceptual-Machines/lyricist-api/internal/pipeline"
	"github.com/Conceptual-Machines/lyricist-api/internal/prompt"
	"github.com/Conceptual-Machines/lyricist-api/internal/retry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		RunID:  "run-1",
		States: []pipeline.State{pipeline.StateStrategyAndLyrics, pipeline.StateReview, pipeline.StatePostProcess, pipeline.StateDone},
		Draft:  &models.LyricsDraft{Title: "Monsoon Letters", Lyrics: "..."},
		Review: &models.ReviewResult{Lyrics: "...", Degraded: true},
		Output: &models.PostProcessOutput{ComplianceReport: models.ComplianceReport{Score: 81}},
		Reports: []pipeline.StageReport{
			{Stage: prompt.StageStrategyAndLyrics, Report: retry.Report{
				Attempts:     []retry.Attempt{{Tier: retry.TierPrimary}, {Tier: retry.TierFallback}},
				UsedFallback: true,
				Model:        "gemini-2.5-pro",
			}},
			{Stage: prompt.StageReview, Report: retry.Report{Attempts: []retry.Attempt{{}, {}, {}}}},
		},
		Duration: 1500 * time.Millisecond,
	}
}

func TestSummarize(t *testing.T) {
	req := pipeline.Request{Model: "gemini-2.5-flash"}

	t.Run("completed run", func(t *testing.T) {
		run := Summarize("req-1", "42", req, pipeline.RunOptions{Debate: true}, sampleResult(), nil)

		assert.Equal(t, "run-1", run.ID)
		assert.Equal(t, "42", run.UserID)
		assert.Equal(t, models.RunStatusDone, run.Status)
		assert.True(t, run.UsedFallback)
		assert.True(t, run.ReviewDegraded)
		assert.True(t, run.Debate)
		assert.Equal(t, "gemini-2.5-pro", run.ServedBy)
		assert.Equal(t, 5, run.Attempts)
		assert.Equal(t, 81, run.Score)
		assert.Equal(t, int64(1500), run.DurationMS)
		assert.Empty(t, run.ErrorKind)
	})

	t.Run("failed run records the error kind", func(t *testing.T) {
		err := errs.New(errs.KindServer, "generation service failure", errors.New("503"))
		run := Summarize("req-2", "", req, pipeline.RunOptions{}, sampleResult(), err)

		assert.Equal(t, models.RunStatusFailed, run.Status)
		assert.Equal(t, string(errs.KindServer), run.ErrorKind)
	})
}

// TestStore_Postgres needs a disposable database
func TestStore_Postgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.Connect(url)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	store := NewStore(db)
	ctx := context.Background()
	user := "history-test-" + uuid.NewString()

	for i := 0; i < 3; i++ {
		run := Summarize("req", user, pipeline.Request{}, pipeline.RunOptions{}, sampleResult(), nil)
		run.ID = uuid.NewString()
		require.NoError(t, store.Create(ctx, run))
	}
	t.Cleanup(func() {
		db.Where("user_id = ?", user).Delete(&models.PipelineRun{})
	})

	runs, err := store.List(ctx, user, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	got, err := store.Get(ctx, runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, user, got.UserID)
}
