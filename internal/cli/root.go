package cli

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "lyricist",
	Short: "Operator CLI for the lyrics pipeline",
	Long: `lyricist inspects and runs the lyrics generation pipeline from a terminal.

"skills" and "compose" work offline and show what a request would activate and
send. "run" calls the configured models (GEMINI_API_KEY / OPENAI_API_KEY).`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(policyCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("lyricist " + version)
	},
}
