package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Conceptual-Machines/lyricist-api/internal/config"
	"github.com/Conceptual-Machines/lyricist-api/internal/llm"
	"github.com/Conceptual-Machines/lyricist-api/internal/observability"
	"github.com/Conceptual-Machines/lyricist-api/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	runFlags    requestFlags
	runDebate   bool
	runSeparate bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		req, err := runFlags.build()
		if err != nil {
			return err
		}
		if req.Text == "" {
			return fmt.Errorf("--text or a request file with text is required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		orchestrator, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}

		result, runErr := orchestrator.Run(ctx, req, pipeline.RunOptions{Debate: runDebate, Separate: runSeparate})
		if err := printJSON(cmd, result); err != nil {
			return err
		}
		return runErr
	},
}

func newOrchestrator(ctx context.Context) (*pipeline.Orchestrator, error) {
	cfg := config.Load()
	policy, err := config.LoadPipeline(cfg.PipelineConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg.GeminiAPIKey == "" && cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("set GEMINI_API_KEY or OPENAI_API_KEY")
	}

	return pipeline.New(llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey),
		pipeline.WithPolicy(policy),
		pipeline.WithDefaultModels(cfg.DefaultModel, cfg.FallbackModel),
		pipeline.WithTracer(observability.InitializeLangfuse(ctx, cfg)),
	), nil
}

func init() {
	runFlags.bind(runCmd)
	runCmd.Flags().BoolVar(&runDebate, "debate", false, "run the critics debate before review")
	runCmd.Flags().BoolVar(&runSeparate, "separate", false, "plan and write in two calls")
}
