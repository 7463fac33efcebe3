package cli

import (
	"fmt"

	"github.com/Conceptual-Machines/lyricist-api/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var policyFile string

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Validate a pipeline policy file and show it with defaults merged",
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := config.LoadPipeline(policyFile)
		if err != nil {
			return err
		}

		data, err := yaml.Marshal(policy)
		if err != nil {
			return fmt.Errorf("marshalling policy: %w", err)
		}
		cmd.Print(string(data))
		return nil
	},
}

func init() {
	policyCmd.Flags().StringVarP(&policyFile, "file", "f", "", "path to pipeline policy YAML (defaults when empty)")
}
