package pipeline

import (
	"strings"
	"unicode/utf8"

	"github.com/Conceptual-Machines/lyricist-api/internal/errs"
	"github.com/Conceptual-Machines/lyricist-api/internal/models"
	"github.com/Conceptual-Machines/lyricist-api/internal/prompt"
)

// minLengthGate rejects drafts whose lyrics are shorter than min runes
func minLengthGate(min int) checkFunc[models.LyricsDraft] {
	return func(d *models.LyricsDraft, _ *prompt.Payload) error {
		if d.Strategy == nil {
			return errs.Validation("draft is missing its strategy")
		}
		n := utf8.RuneCountInString(strings.TrimSpace(d.Lyrics))
		if n < min {
			return errs.Validation("lyrics too short: %d characters, minimum %d", n, min)
		}
		return nil
	}
}

func nonEmptyLyrics(d *models.LyricsDraft, _ *prompt.Payload) error {
	if strings.TrimSpace(d.Lyrics) == "" {
		return errs.Validation("lyrics are empty")
	}
	return nil
}

var validVerdicts = map[models.Verdict]bool{
	models.VerdictApprove:     true,
	models.VerdictReject:      true,
	models.VerdictNeedsPolish: true,
}

// checkDebate requires exactly one entry per active persona and a plan for
// every Rewrite. Entries are reordered to persona activation order.
func checkDebate(c *models.CriticsConsensus, payload *prompt.Payload) error {
	labels := payload.PersonaLabels()
	if len(c.DebateSummary) != len(labels) {
		return errs.Validation("debate has %d entries, expected %d", len(c.DebateSummary), len(labels))
	}

	byPersona := make(map[string]models.DebateEntry, len(c.DebateSummary))
	for _, entry := range c.DebateSummary {
		key := strings.ToLower(strings.TrimSpace(entry.Persona))
		if _, dup := byPersona[key]; dup {
			return errs.Validation("persona %q appears more than once", entry.Persona)
		}
		if !validVerdicts[entry.Verdict] {
			return errs.Validation("persona %q has unknown verdict %q", entry.Persona, entry.Verdict)
		}
		byPersona[key] = entry
	}

	ordered := make([]models.DebateEntry, 0, len(labels))
	for _, label := range labels {
		entry, ok := byPersona[strings.ToLower(label)]
		if !ok {
			return errs.Validation("debate is missing persona %q", label)
		}
		entry.Persona = label
		ordered = append(ordered, entry)
	}
	c.DebateSummary = ordered

	switch c.FinalVerdict {
	case models.FinalReady:
	case models.FinalRewrite:
		if strings.TrimSpace(c.ConsensusPlan) == "" {
			return errs.Validation("final verdict Rewrite requires a consensus plan")
		}
	default:
		return errs.Validation("unknown final verdict %q", c.FinalVerdict)
	}
	return nil
}

func checkReview(r *models.ReviewResult, _ *prompt.Payload) error {
	if strings.TrimSpace(r.Lyrics) == "" {
		return errs.Validation("reviewed lyrics are empty")
	}
	r.Degraded = false
	return nil
}

func checkPostProcess(p *models.PostProcessOutput, _ *prompt.Payload) error {
	if strings.TrimSpace(p.FormattedLyrics) == "" {
		return errs.Validation("formatted lyrics are empty")
	}
	if s := p.ComplianceReport.Score; s < 0 || s > 100 {
		return errs.Validation("compliance score %d out of range", s)
	}
	return nil
}
