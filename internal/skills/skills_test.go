package skills

import (
	"testing"

	"github.com/Conceptual-Machines/lyricist-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(skills []Skill) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		out = append(out, s.ID)
	}
	return out
}

func TestDefault_DeclarationOrder(t *testing.T) {
	assert.Equal(t, []string{
		MasterLyricist, CulturalGuardian, RhymeArchitect, ClassicalExpert, FolkExpert,
		KidsSpecialist, DevotionalScholar, CeremonySpecialist, DialectCoach, CodeMixLinguist,
		RhythmSync, ResearchAnalyst, HitProducer,
	}, ids(Default().All()))
}

func TestActivate(t *testing.T) {
	tests := []struct {
		name string
		ctx  Context
		want []string
	}{
		{
			name: "empty context keeps always-on skills only",
			ctx:  NewContext("", models.GenerationSettings{}, models.LanguageProfile{}, nil, ""),
			want: []string{MasterLyricist, CulturalGuardian, RhymeArchitect, HitProducer},
		},
		{
			name: "classical style",
			ctx:  NewContext("raga song", models.GenerationSettings{Style: "Classical"}, models.LanguageProfile{Primary: "Telugu"}, nil, ""),
			want: []string{MasterLyricist, CulturalGuardian, RhymeArchitect, ClassicalExpert, HitProducer},
		},
		{
			name: "kids category",
			ctx:  NewContext("", models.GenerationSettings{Category: "Kids"}, models.LanguageProfile{}, nil, ""),
			want: []string{MasterLyricist, CulturalGuardian, RhymeArchitect, KidsSpecialist, HitProducer},
		},
		{
			name: "custom style resolves before matching",
			ctx: NewContext("", models.GenerationSettings{Style: "Custom", CustomStyle: "Semi-Classical Folk fusion"},
				models.LanguageProfile{}, nil, ""),
			want: []string{MasterLyricist, CulturalGuardian, RhymeArchitect, ClassicalExpert, FolkExpert, HitProducer},
		},
		{
			name: "auto-detect style activates nothing extra",
			ctx:  NewContext("", models.GenerationSettings{Style: "Auto-Detect", CustomStyle: "classical"}, models.LanguageProfile{}, nil, ""),
			want: []string{MasterLyricist, CulturalGuardian, RhymeArchitect, HitProducer},
		},
		{
			name: "devotional theme",
			ctx:  NewContext("", models.GenerationSettings{Theme: "Bhakti"}, models.LanguageProfile{}, nil, ""),
			want: []string{MasterLyricist, CulturalGuardian, RhymeArchitect, DevotionalScholar, HitProducer},
		},
		{
			name: "ceremony dialect and code mixing",
			ctx: NewContext("",
				models.GenerationSettings{Ceremony: "Wedding", Dialect: "Telangana"},
				models.LanguageProfile{Primary: "Telugu", Secondary: "English"}, nil, ""),
			want: []string{MasterLyricist, CulturalGuardian, RhymeArchitect, CeremonySpecialist, DialectCoach, CodeMixLinguist, HitProducer},
		},
		{
			name: "audio without bpm is ignored",
			ctx:  NewContext("", models.GenerationSettings{}, models.LanguageProfile{}, &models.AudioAnalysis{Key: "C"}, ""),
			want: []string{MasterLyricist, CulturalGuardian, RhymeArchitect, HitProducer},
		},
		{
			name: "audio and knowledge base",
			ctx: NewContext("", models.GenerationSettings{}, models.LanguageProfile{},
				&models.AudioAnalysis{BPM: 96}, "notes about the festival"),
			want: []string{MasterLyricist, CulturalGuardian, RhymeArchitect, RhythmSync, ResearchAnalyst, HitProducer},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Default().Activate(tt.ctx)))
		})
	}
}

func TestActivate_IsDeterministic(t *testing.T) {
	ctx := NewContext("song", models.GenerationSettings{Style: "Folk", Category: "Kids", Dialect: "Rayalaseema"},
		models.LanguageProfile{Primary: "Telugu", Secondary: "Hindi"}, &models.AudioAnalysis{BPM: 120}, "kb")

	first := Default().Activate(ctx)
	second := Default().Activate(ctx)
	assert.Equal(t, ids(first), ids(second))

	// mutating a returned slice must not leak into the next activation
	first[0] = Skill{ID: "tampered"}
	assert.Equal(t, MasterLyricist, Default().Activate(ctx)[0].ID)
}

func TestAlwaysActiveSkillsAppearEverywhere(t *testing.T) {
	contexts := []Context{
		NewContext("", models.GenerationSettings{}, models.LanguageProfile{}, nil, ""),
		NewContext("x", models.GenerationSettings{Style: "Folk", Category: "Kids", Ceremony: "Custom", CustomCeremony: "Naming"},
			models.LanguageProfile{Primary: "Tamil", Secondary: "English", Tertiary: "Hindi"}, &models.AudioAnalysis{BPM: 80}, "kb"),
	}
	for _, ctx := range contexts {
		got := ids(Default().Activate(ctx))
		for _, id := range []string{MasterLyricist, CulturalGuardian, RhymeArchitect, HitProducer} {
			assert.Contains(t, got, id)
		}
	}
}

func TestPersonas(t *testing.T) {
	ctx := NewContext("", models.GenerationSettings{Style: "Classical", Category: "Kids"}, models.LanguageProfile{}, nil, "")
	assert.Equal(t, []string{CulturalGuardian, ClassicalExpert, KidsSpecialist, HitProducer}, ids(Personas(Default().Activate(ctx))))
}

func TestInstructionFor(t *testing.T) {
	rhyme, ok := Default().Get(RhymeArchitect)
	require.True(t, ok)

	plain := NewContext("", models.GenerationSettings{}, models.LanguageProfile{}, nil, "")
	assert.Equal(t, rhyme.Instruction, rhyme.InstructionFor(plain))

	withScheme := NewContext("", models.GenerationSettings{RhymeScheme: "AABB"}, models.LanguageProfile{}, nil, "")
	assert.Contains(t, rhyme.InstructionFor(withScheme), "AABB")

	sync, ok := Default().Get(RhythmSync)
	require.True(t, ok)
	audio := NewContext("", models.GenerationSettings{}, models.LanguageProfile{},
		&models.AudioAnalysis{BPM: 92.4, Key: "D minor", Meter: "6/8", Sections: []string{"intro", "chorus"}}, "")
	text := sync.InstructionFor(audio)
	assert.Contains(t, text, "92 BPM")
	assert.Contains(t, text, "D minor")
	assert.Contains(t, text, "6/8")
	assert.Contains(t, text, "intro, chorus")

	mix, ok := Default().Get(CodeMixLinguist)
	require.True(t, ok)
	lang := NewContext("", models.GenerationSettings{}, models.LanguageProfile{Primary: "Telugu", Secondary: "English"}, nil, "")
	assert.Contains(t, mix.InstructionFor(lang), "Primary language is Telugu; weave in English")

	secondaryOnly := NewContext("", models.GenerationSettings{}, models.LanguageProfile{Secondary: "English"}, nil, "")
	assert.True(t, mix.Activates(secondaryOnly))
	assert.Equal(t, mix.Instruction, mix.InstructionFor(secondaryOnly))
}

func TestNewContext_ClonesAudio(t *testing.T) {
	audio := &models.AudioAnalysis{BPM: 100, Sections: []string{"verse"}}
	ctx := NewContext("", models.GenerationSettings{}, models.LanguageProfile{}, audio, "")

	audio.BPM = 0
	audio.Sections[0] = "changed"

	assert.True(t, ctx.HasAudio())
	assert.Equal(t, []string{"verse"}, ctx.Audio.Sections)
}

func TestNewRegistry_Validation(t *testing.T) {
	_, err := NewRegistry(Skill{ID: "a", Activates: always}, Skill{ID: "a", Activates: always})
	assert.ErrorContains(t, err, "duplicate skill id")

	_, err = NewRegistry(Skill{ID: "", Activates: always})
	assert.ErrorContains(t, err, "no id")

	_, err = NewRegistry(Skill{ID: "b"})
	assert.ErrorContains(t, err, "no activation predicate")
}
