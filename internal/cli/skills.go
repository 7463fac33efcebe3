package cli

import (
	"github.com/Conceptual-Machines/lyricist-api/internal/prompt"
	"github.com/Conceptual-Machines/lyricist-api/internal/skills"
	"github.com/spf13/cobra"
)

var skillsFlags requestFlags

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List the capabilities a request activates",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := skillsFlags.build()
		if err != nil {
			return err
		}
		sc := req.SkillsContext()
		active := skills.Default().Activate(sc)

		for _, line := range prompt.SettingsLines(req.Settings) {
			cmd.Println(line)
		}
		if len(active) == 0 {
			cmd.Println("No capabilities active.")
			return nil
		}
		for _, s := range active {
			marker := " "
			if s.Persona {
				marker = "*"
			}
			cmd.Printf("%s %-20s %s\n", marker, s.ID, s.Label)
		}
		cmd.Println("(* = critic persona)")
		return nil
	},
}

func init() {
	skillsFlags.bind(skillsCmd)
}
