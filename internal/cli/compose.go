package cli

import (
	"fmt"

	"github.com/Conceptual-Machines/lyricist-api/internal/prompt"
	"github.com/Conceptual-Machines/lyricist-api/internal/skills"
	"github.com/spf13/cobra"
)

var (
	composeFlags  requestFlags
	composeStage  string
	composeSystem bool
	composeSchema bool
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Print the payload a stage would send, without calling a model",
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, err := prompt.ParseStage(composeStage)
		if err != nil {
			return err
		}
		req, err := composeFlags.build()
		if err != nil {
			return err
		}

		payload, err := prompt.NewComposer(skills.Default()).Compose(stage, prompt.Input{
			Context:   req.SkillsContext(),
			Strategy:  req.Strategy,
			Draft:     req.Draft,
			Consensus: req.Consensus,
		})
		if err != nil {
			return fmt.Errorf("composing %s: %w", stage, err)
		}

		if composeSystem {
			cmd.Println("=== SYSTEM ===")
			cmd.Println(payload.SystemInstruction)
			cmd.Println("=== USER ===")
		}
		cmd.Println(payload.Text())
		if composeSchema {
			cmd.Println("=== SCHEMA ===")
			return printJSON(cmd, payload.Shape.JSONSchema())
		}
		return nil
	},
}

func init() {
	composeFlags.bind(composeCmd)
	composeCmd.Flags().StringVarP(&composeStage, "stage", "s", string(prompt.StageStrategyAndLyrics), "stage to compose")
	composeCmd.Flags().BoolVar(&composeSystem, "system", false, "also print the system instruction")
	composeCmd.Flags().BoolVar(&composeSchema, "schema", false, "also print the JSON schema sent to the model")
}
