package skills

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/lyricist-api/internal/models"
)

// Skill ids, in registry order
const (
	MasterLyricist     = "master-lyricist"
	CulturalGuardian   = "cultural-guardian"
	RhymeArchitect     = "rhyme-architect"
	ClassicalExpert    = "classical-expert"
	FolkExpert         = "folk-expert"
	KidsSpecialist     = "kids-specialist"
	DevotionalScholar  = "devotional-scholar"
	CeremonySpecialist = "ceremony-specialist"
	DialectCoach       = "dialect-coach"
	CodeMixLinguist    = "code-mix-linguist"
	RhythmSync         = "rhythm-sync"
	ResearchAnalyst    = "research-analyst"
	HitProducer        = "hit-producer"
)

const maxKnowledgeExcerpt = 600

func always(Context) bool { return true }

func builtin() []Skill {
	return []Skill{
		{
			ID:    MasterLyricist,
			Label: "Master Lyricist",
			Instruction: "Write singable, original lyrics with a clear emotional arc. " +
				"Every line must serve the hook; avoid filler, cliches and forced rhymes.",
			Activates: always,
		},
		{
			ID:    CulturalGuardian,
			Label: "Cultural Guardian",
			Instruction: "Protect cultural authenticity. Reject stereotypes, misattributed traditions " +
				"and sacred references used casually. Keep idioms native to the chosen language.",
			Persona:   true,
			Activates: always,
		},
		{
			ID:          RhymeArchitect,
			Label:       "Rhyme Architect",
			Instruction: "Keep rhyme endings consistent within each stanza and prefer sound over spelling.",
			Activates:   always,
			Dynamic: func(ctx Context) string {
				scheme := ctx.Effective(models.FieldRhymeScheme)
				if scheme == "" {
					return ""
				}
				return fmt.Sprintf("Enforce the %s rhyme scheme in every stanza. "+
					"Match end sounds, not just spellings, and never break the pattern for convenience.", scheme)
			},
		},
		{
			ID:    ClassicalExpert,
			Label: "Classical Music Expert",
			Instruction: "Honour raga and tala discipline: vowel-rich lines that sustain on long notes, " +
				"syllable counts that sit on the beat cycle, and a refined literary register.",
			Persona: true,
			Activates: func(ctx Context) bool {
				return ctx.effectiveContains([]models.SettingField{models.FieldStyle}, "classical")
			},
		},
		{
			ID:    FolkExpert,
			Label: "Folk Traditions Expert",
			Instruction: "Use call-and-response, refrains the crowd can repeat, earthy imagery from " +
				"village life and the cadence of oral tradition.",
			Activates: func(ctx Context) bool {
				return ctx.effectiveContains([]models.SettingField{models.FieldStyle}, "folk")
			},
		},
		{
			ID:    KidsSpecialist,
			Label: "Kids Content Specialist",
			Instruction: "Keep vocabulary simple and concrete, lines short, repetition playful and every " +
				"theme age-appropriate. No fear, romance or violence.",
			Persona: true,
			Activates: func(ctx Context) bool {
				return ctx.effectiveContains([]models.SettingField{models.FieldCategory}, "kids")
			},
		},
		{
			ID:    DevotionalScholar,
			Label: "Devotional Scholar",
			Instruction: "Treat the deity and scripture with reverence. Use established epithets correctly " +
				"and let surrender, longing and grace drive the imagery.",
			Activates: func(ctx Context) bool {
				return ctx.effectiveContains(
					[]models.SettingField{models.FieldStyle, models.FieldCategory, models.FieldTheme},
					"devotional", "bhakti",
				)
			},
		},
		{
			ID:          CeremonySpecialist,
			Label:       "Ceremony Specialist",
			Instruction: "Fit the lyrics to the rituals and emotional beats of the occasion.",
			Activates: func(ctx Context) bool {
				return ctx.Effective(models.FieldCeremony) != ""
			},
			Dynamic: func(ctx Context) string {
				return fmt.Sprintf("This song is performed at a %s. Reference its rituals in the right order, "+
					"use the customary blessings and keep the tone the family would expect.",
					ctx.Effective(models.FieldCeremony))
			},
		},
		{
			ID:          DialectCoach,
			Label:       "Dialect Coach",
			Instruction: "Write in the requested regional dialect rather than the standard register.",
			Activates: func(ctx Context) bool {
				return ctx.Effective(models.FieldDialect) != ""
			},
			Dynamic: func(ctx Context) string {
				return fmt.Sprintf("Write in the %s dialect: its vocabulary, contractions and pronunciation-driven "+
					"spellings. Do not drift back into the standard literary form.",
					ctx.Effective(models.FieldDialect))
			},
		},
		{
			ID:          CodeMixLinguist,
			Label:       "Code-Mixing Linguist",
			Instruction: "Blend languages naturally, switching at phrase boundaries.",
			Activates: func(ctx Context) bool {
				return strings.TrimSpace(ctx.Language.Secondary) != ""
			},
			Dynamic: func(ctx Context) string {
				if strings.TrimSpace(ctx.Language.Primary) == "" {
					return ""
				}
				langs := ctx.Language.Languages()
				return fmt.Sprintf("Primary language is %s; weave in %s the way native speakers code-switch. "+
					"Switch at phrase boundaries, keep the hook in %s, and write every language in its own script.",
					langs[0], strings.Join(langs[1:], " and "), langs[0])
			},
		},
		{
			ID:          RhythmSync,
			Label:       "Rhythm Sync Engineer",
			Instruction: "Match syllable density to the reference track.",
			Activates:   Context.HasAudio,
			Dynamic: func(ctx Context) string {
				a := ctx.Audio
				parts := []string{fmt.Sprintf("The reference track runs at %.0f BPM", a.BPM)}
				if a.Key != "" {
					parts = append(parts, "in "+a.Key)
				}
				if a.Meter != "" {
					parts = append(parts, "with a "+a.Meter+" meter")
				}
				text := strings.Join(parts, " ") + ". Size every line so its stressed syllables land on the beat"
				if len(a.Sections) > 0 {
					text += " and follow the section map: " + strings.Join(a.Sections, ", ")
				}
				return text + "."
			},
		},
		{
			ID:          ResearchAnalyst,
			Label:       "Research Analyst",
			Instruction: "Ground references in the supplied research notes.",
			Activates: func(ctx Context) bool {
				return ctx.KnowledgeBase != ""
			},
			Dynamic: func(ctx Context) string {
				excerpt := ctx.KnowledgeBase
				if r := []rune(excerpt); len(r) > maxKnowledgeExcerpt {
					excerpt = string(r[:maxKnowledgeExcerpt]) + "..."
				}
				return "Use only facts supported by these research notes and summarise what you used " +
					"in researchInsights:\n" + excerpt
			},
		},
		{
			ID:    HitProducer,
			Label: "Hit Producer",
			Instruction: "Judge commercial appeal: a hook inside the first thirty seconds, a chorus people " +
				"can sing after one listen and a title worth searching for.",
			Persona:   true,
			Activates: always,
		},
	}
}
