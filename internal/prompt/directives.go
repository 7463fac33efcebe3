package prompt

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/lyricist-api/internal/skills"
)

var strategyDirectives = []string{
	"Name the dominant navarasa (or sentiment) that the song must sustain.",
	"Choose a song structure that suits the request and the settings.",
	"Write a blueprint: a title, a hook line and an ordered outline of sections.",
	"Give linguistic, cultural and musical directives the lyricist must follow.",
	"Describe the musical architecture: instruments, fusion element, vocal texture and quality tags.",
}

var lyricsDirectives = []string{
	"Write the complete lyrics in the primary language unless a code-mixing brief says otherwise.",
	"Mark every section with a bracketed heading on its own line.",
	"Keep the hook line intact and repeat it in every chorus.",
	"Keep syllable counts consistent between matching lines of repeated sections.",
}

// directivesFor returns the ordered checklist for a stage
func directivesFor(stage Stage, in Input, active []skills.Skill) []string {
	var out []string
	switch stage {
	case StageStrategy:
		out = append(out, strategyDirectives...)
		if in.Context.KnowledgeBase != "" {
			out = append(out, "Summarise the research facts you relied on in researchInsights.")
		}
	case StageLyrics:
		if in.Strategy != nil {
			out = append(out, "Follow the supplied strategy: its blueprint, directives and structure.")
		}
		out = append(out, lyricsDirectives...)
	case StageStrategyAndLyrics:
		out = append(out, strategyDirectives...)
		out = append(out, "Place the plan in the strategy field, then write the song it describes.")
		out = append(out, lyricsDirectives...)
	case StageCritics:
		personas := skills.Personas(active)
		labels := make([]string, 0, len(personas))
		for _, p := range personas {
			labels = append(labels, p.Label)
		}
		out = append(out,
			fmt.Sprintf("Run a debate with exactly %d entries, one per persona, in this order: %s.",
				len(labels), strings.Join(labels, ", ")),
			"Each entry gives the persona's verdict (Approve, Reject or NeedsPolish) and a specific critique.",
			"Set finalVerdict to Ready only if no persona rejects the draft; otherwise set it to Rewrite.",
			"When finalVerdict is Rewrite, consensusPlan must list the concrete changes to make.",
		)
	case StageReview:
		out = append(out, SelectRhymeAudit(in.Context.Settings).Text())
		out = append(out, "Check meter and syllable balance between matching lines.")
		if in.Consensus != nil && strings.TrimSpace(in.Consensus.ConsensusPlan) != "" {
			out = append(out, "Apply every point of the critics' consensus plan.")
		}
		out = append(out, "Return the full revised lyrics and list each change you made.")
	case StagePostProcess:
		out = append(out,
			SelectRhymeAudit(in.Context.Settings).Text(),
			"Audit meter and cultural accuracy and record each finding in the compliance report.",
			"Score overall compliance from 0 to 100.",
			"Produce formattedLyrics: clean section headings, one line per sung phrase, no commentary.",
			"Write a stylePrompt of at most 120 words describing genre, instruments, tempo, mood and vocals.",
		)
	}
	return out
}
