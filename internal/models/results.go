package models

// StrategyResult is the plan produced by the STRATEGY stage
type StrategyResult struct {
	Navarasa            string              `json:"navarasa"`
	Structure           string              `json:"structure"`
	Blueprint           Blueprint           `json:"blueprint"`
	Directives          StrategyDirectives  `json:"directives"`
	MusicalArchitecture MusicalArchitecture `json:"musicalArchitecture"`
	ResearchInsights    string              `json:"researchInsights,omitempty"`
}

// Blueprint outlines the song before any lyric is written
type Blueprint struct {
	Title           string   `json:"title"`
	HookLine        string   `json:"hookLine"`
	SectionsOutline []string `json:"sectionsOutline"`
}

// StrategyDirectives are the writing constraints handed to the lyricist
type StrategyDirectives struct {
	Linguistic string `json:"linguistic"`
	Cultural   string `json:"cultural"`
	Musical    string `json:"musical"`
}

// MusicalArchitecture describes the production the lyrics are written for
type MusicalArchitecture struct {
	Instruments   []string `json:"instruments"`
	FusionElement string   `json:"fusionElement,omitempty"`
	VocalTexture  string   `json:"vocalTexture,omitempty"`
	QualityTags   []string `json:"qualityTags,omitempty"`
}

// LyricsDraft is produced by the lyricist and the combined strategy+lyrics stage
type LyricsDraft struct {
	Title    string          `json:"title"`
	Lyrics   string          `json:"lyrics"`
	Language string          `json:"language,omitempty"`
	Strategy *StrategyResult `json:"strategy,omitempty"`
}

// Verdict is a single critic's opinion of a draft
type Verdict string

const (
	VerdictApprove     Verdict = "Approve"
	VerdictReject      Verdict = "Reject"
	VerdictNeedsPolish Verdict = "NeedsPolish"
)

// FinalVerdict is the consensus outcome of a debate
type FinalVerdict string

const (
	FinalReady   FinalVerdict = "Ready"
	FinalRewrite FinalVerdict = "Rewrite"
)

// DebateEntry is one persona's contribution to the critics debate
type DebateEntry struct {
	Persona  string  `json:"persona"`
	Verdict  Verdict `json:"verdict"`
	Critique string  `json:"critique"`
}

// CriticsConsensus is the result of the CRITICS_SWARM stage
type CriticsConsensus struct {
	DebateSummary []DebateEntry `json:"debateSummary"`
	ConsensusPlan string        `json:"consensusPlan"`
	FinalVerdict  FinalVerdict  `json:"finalVerdict"`
}

// ReviewResult is the output of the REVIEW stage. Degraded is set when the stage
// failed and the input draft was passed through unchanged.
type ReviewResult struct {
	Lyrics   string   `json:"lyrics"`
	Changes  []string `json:"changes,omitempty"`
	Degraded bool     `json:"degraded"`
}

// ComplianceReport summarises the audits run during POST_PROCESS
type ComplianceReport struct {
	RhymeAudit    string   `json:"rhymeAudit"`
	MeterAudit    string   `json:"meterAudit"`
	CulturalAudit string   `json:"culturalAudit"`
	Issues        []string `json:"issues,omitempty"`
	Score         int      `json:"score"`
}

// PostProcessOutput holds the delivery artifacts
type PostProcessOutput struct {
	ComplianceReport ComplianceReport `json:"complianceReport"`
	ReviewedLyrics   string           `json:"reviewedLyrics"`
	FormattedLyrics  string           `json:"formattedLyrics"`
	StylePrompt      string           `json:"stylePrompt"`
}
