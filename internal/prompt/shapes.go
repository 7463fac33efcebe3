package prompt

import (
	"github.com/Conceptual-Machines/lyricist-api/internal/llm"
	"github.com/Conceptual-Machines/lyricist-api/internal/models"
)

func stringList(name string, required bool) llm.Field {
	return llm.Field{Name: name, Kind: llm.KindArray, Required: required, Item: &llm.Field{Kind: llm.KindString}}
}

var strategyFields = []llm.Field{
	{Name: "navarasa", Kind: llm.KindString, Required: true, Description: "dominant rasa or sentiment"},
	{Name: "structure", Kind: llm.KindString, Required: true},
	{Name: "blueprint", Kind: llm.KindObject, Required: true, Fields: []llm.Field{
		{Name: "title", Kind: llm.KindString, Required: true},
		{Name: "hookLine", Kind: llm.KindString, Required: true},
		stringList("sectionsOutline", true),
	}},
	{Name: "directives", Kind: llm.KindObject, Required: true, Fields: []llm.Field{
		{Name: "linguistic", Kind: llm.KindString, Required: true},
		{Name: "cultural", Kind: llm.KindString, Required: true},
		{Name: "musical", Kind: llm.KindString, Required: true},
	}},
	{Name: "musicalArchitecture", Kind: llm.KindObject, Required: true, Fields: []llm.Field{
		stringList("instruments", true),
		{Name: "fusionElement", Kind: llm.KindString},
		{Name: "vocalTexture", Kind: llm.KindString},
		stringList("qualityTags", false),
	}},
	{Name: "researchInsights", Kind: llm.KindString},
}

// StrategyShape describes models.StrategyResult
func StrategyShape() llm.Shape {
	return llm.Shape{Name: "strategy_result", Description: "Song strategy", Fields: strategyFields}
}

// LyricsShape describes models.LyricsDraft without an embedded strategy
func LyricsShape() llm.Shape {
	return llm.Shape{
		Name:        "lyrics_draft",
		Description: "Complete song lyrics",
		Fields: []llm.Field{
			{Name: "title", Kind: llm.KindString, Required: true},
			{Name: "lyrics", Kind: llm.KindString, Required: true, Description: "full lyrics with bracketed section headings"},
			{Name: "language", Kind: llm.KindString},
		},
	}
}

// StrategyAndLyricsShape describes models.LyricsDraft including its strategy
func StrategyAndLyricsShape() llm.Shape {
	shape := LyricsShape()
	shape.Name = "strategy_and_lyrics"
	shape.Description = "Song strategy and the lyrics written from it"
	shape.Fields = append(shape.Fields, llm.Field{
		Name: "strategy", Kind: llm.KindObject, Required: true, Fields: strategyFields,
	})
	return shape
}

// CriticsShape describes models.CriticsConsensus. Persona names are constrained
// to the labels of the personas taking part.
func CriticsShape(personas []string) llm.Shape {
	persona := llm.Field{Name: "persona", Kind: llm.KindString, Required: true}
	if len(personas) > 0 {
		persona.Kind = llm.KindEnum
		persona.EnumValues = personas
	}
	return llm.Shape{
		Name:        "critics_consensus",
		Description: "One debate entry per persona and the resulting consensus",
		Fields: []llm.Field{
			{Name: "debateSummary", Kind: llm.KindArray, Required: true, Item: &llm.Field{
				Kind: llm.KindObject,
				Fields: []llm.Field{
					persona,
					{Name: "verdict", Kind: llm.KindEnum, Required: true, EnumValues: []string{
						string(models.VerdictApprove), string(models.VerdictReject), string(models.VerdictNeedsPolish),
					}},
					{Name: "critique", Kind: llm.KindString, Required: true},
				},
			}},
			{Name: "consensusPlan", Kind: llm.KindString, Description: "required when finalVerdict is Rewrite"},
			{Name: "finalVerdict", Kind: llm.KindEnum, Required: true, EnumValues: []string{
				string(models.FinalReady), string(models.FinalRewrite),
			}},
		},
	}
}

// ReviewShape describes models.ReviewResult
func ReviewShape() llm.Shape {
	return llm.Shape{
		Name:        "review_result",
		Description: "Revised lyrics",
		Fields: []llm.Field{
			{Name: "lyrics", Kind: llm.KindString, Required: true},
			stringList("changes", false),
		},
	}
}

// PostProcessShape describes models.PostProcessOutput
func PostProcessShape() llm.Shape {
	return llm.Shape{
		Name:        "post_process_output",
		Description: "Delivery artifacts",
		Fields: []llm.Field{
			{Name: "complianceReport", Kind: llm.KindObject, Required: true, Fields: []llm.Field{
				{Name: "rhymeAudit", Kind: llm.KindString, Required: true},
				{Name: "meterAudit", Kind: llm.KindString, Required: true},
				{Name: "culturalAudit", Kind: llm.KindString, Required: true},
				stringList("issues", false),
				{Name: "score", Kind: llm.KindInt, Required: true, Description: "0 to 100"},
			}},
			{Name: "reviewedLyrics", Kind: llm.KindString, Required: true},
			{Name: "formattedLyrics", Kind: llm.KindString, Required: true},
			{Name: "stylePrompt", Kind: llm.KindString, Required: true, Description: "prompt for a music generator"},
		},
	}
}

// ShapeFor returns the output shape of a stage
func ShapeFor(stage Stage, personas []string) llm.Shape {
	switch stage {
	case StageStrategy:
		return StrategyShape()
	case StageLyrics:
		return LyricsShape()
	case StageStrategyAndLyrics:
		return StrategyAndLyricsShape()
	case StageCritics:
		return CriticsShape(personas)
	case StageReview:
		return ReviewShape()
	default:
		return PostProcessShape()
	}
}
