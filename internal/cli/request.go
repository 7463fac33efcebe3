package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Conceptual-Machines/lyricist-api/internal/models"
	"github.com/Conceptual-Machines/lyricist-api/internal/pipeline"
	"github.com/spf13/cobra"
)

// requestFlags builds a pipeline.Request from flags, optionally layered over
// a JSON request file
type requestFlags struct {
	file          string
	text          string
	model         string
	fallback      string
	settings      models.GenerationSettings
	language      models.LanguageProfile
	bpm           float64
	key           string
	meter         string
	knowledgeFile string
	draftFile     string
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.file, "request", "r", "", "JSON request file (flags override its fields)")
	fs.StringVarP(&f.text, "text", "t", "", "free-form song request")
	fs.StringVar(&f.model, "model", "", "primary model")
	fs.StringVar(&f.fallback, "fallback-model", "", "fallback model")

	fs.StringVar(&f.settings.Style, "style", "", "style (or Custom / Auto-Detect)")
	fs.StringVar(&f.settings.CustomStyle, "custom-style", "", "style text used with --style Custom")
	fs.StringVar(&f.settings.Theme, "theme", "", "theme")
	fs.StringVar(&f.settings.Mood, "mood", "", "mood")
	fs.StringVar(&f.settings.Complexity, "complexity", "", "complexity")
	fs.StringVar(&f.settings.Category, "category", "", "category")
	fs.StringVar(&f.settings.RhymeScheme, "rhyme-scheme", "", "rhyme scheme, e.g. AABB")
	fs.StringVar(&f.settings.SingerStyle, "singer-style", "", "singer style")
	fs.StringVar(&f.settings.Structure, "structure", "", "song structure")
	fs.StringVar(&f.settings.Dialect, "dialect", "", "regional dialect")
	fs.StringVar(&f.settings.Ceremony, "ceremony", "", "ceremony the song is for")

	fs.StringVar(&f.language.Primary, "language", "", "primary language")
	fs.StringVar(&f.language.Secondary, "secondary-language", "", "secondary language for code-mixing")
	fs.StringVar(&f.language.Tertiary, "tertiary-language", "", "tertiary language")

	fs.Float64Var(&f.bpm, "bpm", 0, "reference track tempo")
	fs.StringVar(&f.key, "key", "", "reference track key")
	fs.StringVar(&f.meter, "meter", "", "reference track meter")
	fs.StringVar(&f.knowledgeFile, "knowledge", "", "file with research notes")
	fs.StringVar(&f.draftFile, "draft", "", "file with existing lyrics for draft stages")
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (f *requestFlags) build() (pipeline.Request, error) {
	var req pipeline.Request
	if f.file != "" {
		raw, err := os.ReadFile(f.file)
		if err != nil {
			return req, fmt.Errorf("reading request file: %w", err)
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return req, fmt.Errorf("parsing request file: %w", err)
		}
	}

	override(&req.Text, f.text)
	override(&req.Model, f.model)
	override(&req.FallbackModel, f.fallback)

	s := &req.Settings
	override(&s.Style, f.settings.Style)
	override(&s.CustomStyle, f.settings.CustomStyle)
	override(&s.Theme, f.settings.Theme)
	override(&s.Mood, f.settings.Mood)
	override(&s.Complexity, f.settings.Complexity)
	override(&s.Category, f.settings.Category)
	override(&s.RhymeScheme, f.settings.RhymeScheme)
	override(&s.SingerStyle, f.settings.SingerStyle)
	override(&s.Structure, f.settings.Structure)
	override(&s.Dialect, f.settings.Dialect)
	override(&s.Ceremony, f.settings.Ceremony)

	override(&req.Language.Primary, f.language.Primary)
	override(&req.Language.Secondary, f.language.Secondary)
	override(&req.Language.Tertiary, f.language.Tertiary)

	if f.bpm > 0 {
		req.AudioAnalysis = &models.AudioAnalysis{BPM: f.bpm, Key: f.key, Meter: f.meter}
	}
	if f.knowledgeFile != "" {
		raw, err := os.ReadFile(f.knowledgeFile)
		if err != nil {
			return req, fmt.Errorf("reading knowledge file: %w", err)
		}
		req.KnowledgeBase = string(raw)
	}
	if f.draftFile != "" {
		raw, err := os.ReadFile(f.draftFile)
		if err != nil {
			return req, fmt.Errorf("reading draft file: %w", err)
		}
		req.Draft = &models.LyricsDraft{Lyrics: string(raw)}
	}
	return req, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
