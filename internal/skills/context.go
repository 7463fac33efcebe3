// Package skills holds the capability registry and the rule-based activation
// engine that decides which expert instructions join a generation payload.
package skills

import (
	"strings"

	"github.com/Conceptual-Machines/lyricist-api/internal/models"
)

// Context is the per-run input every activation predicate reads.
// Build it with NewContext and treat it as read-only afterwards.
type Context struct {
	UserRequest   string
	Settings      models.GenerationSettings
	Language      models.LanguageProfile
	Audio         *models.AudioAnalysis
	KnowledgeBase string
}

// NewContext builds a Context, taking a private copy of the audio analysis
func NewContext(
	userRequest string,
	settings models.GenerationSettings,
	language models.LanguageProfile,
	audio *models.AudioAnalysis,
	knowledgeBase string,
) Context {
	return Context{
		UserRequest:   strings.TrimSpace(userRequest),
		Settings:      settings,
		Language:      language,
		Audio:         audio.Clone(),
		KnowledgeBase: strings.TrimSpace(knowledgeBase),
	}
}

// Effective is shorthand for the resolved value of a settings field
func (c Context) Effective(field models.SettingField) string {
	return c.Settings.Effective(field)
}

// effectiveContains reports whether any of fields resolves to a value containing
// one of the needles, case-insensitively
func (c Context) effectiveContains(fields []models.SettingField, needles ...string) bool {
	for _, field := range fields {
		value := strings.ToLower(c.Effective(field))
		if value == "" {
			continue
		}
		for _, needle := range needles {
			if strings.Contains(value, needle) {
				return true
			}
		}
	}
	return false
}

// HasAudio reports whether a usable tempo measurement is present
func (c Context) HasAudio() bool {
	return c.Audio != nil && c.Audio.BPM > 0
}
