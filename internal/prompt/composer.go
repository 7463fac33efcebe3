package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/lyricist-api/internal/llm"
	"github.com/Conceptual-Machines/lyricist-api/internal/models"
	"github.com/Conceptual-Machines/lyricist-api/internal/skills"
)

// BlockKind distinguishes expert briefs from context blocks
type BlockKind string

const (
	BlockContext BlockKind = "context"
	BlockExpert  BlockKind = "expert"
)

// Block is one labeled section of an instruction payload
type Block struct {
	Kind  BlockKind `json:"kind"`
	Label string    `json:"label"`
	Text  string    `json:"text"`
}

func (b Block) String() string {
	if b.Kind == BlockExpert {
		return fmt.Sprintf("[Active Expert: %s] %s", b.Label, b.Text)
	}
	return fmt.Sprintf("%s:\n%s", strings.ToUpper(b.Label), b.Text)
}

// Input carries everything a stage payload may draw on
type Input struct {
	Context   skills.Context
	Strategy  *models.StrategyResult
	Draft     *models.LyricsDraft
	Consensus *models.CriticsConsensus
}

// Payload is the composed instruction for one generation call
type Payload struct {
	Stage             Stage          `json:"stage"`
	SystemInstruction string         `json:"systemInstruction"`
	Blocks            []Block        `json:"blocks"`
	Directives        []string       `json:"directives"`
	Shape             llm.Shape      `json:"-"`
	Active            []skills.Skill `json:"-"`
}

// Text renders the payload sent as the user turn
func (p *Payload) Text() string {
	parts := make([]string, 0, len(p.Blocks)+2)
	for _, b := range p.Blocks {
		parts = append(parts, b.String())
	}
	if len(p.Directives) > 0 {
		var task strings.Builder
		task.WriteString("TASK:")
		for i, d := range p.Directives {
			fmt.Fprintf(&task, "\n%d. %s", i+1, d)
		}
		parts = append(parts, task.String())
	}
	parts = append(parts, p.Shape.Describe())
	return strings.Join(parts, "\n\n")
}

// ExpertBlocks returns only the capability blocks, in activation order
func (p *Payload) ExpertBlocks() []Block {
	var out []Block
	for _, b := range p.Blocks {
		if b.Kind == BlockExpert {
			out = append(out, b)
		}
	}
	return out
}

// PersonaLabels returns the labels of the active debate personas
func (p *Payload) PersonaLabels() []string {
	personas := skills.Personas(p.Active)
	labels := make([]string, 0, len(personas))
	for _, s := range personas {
		labels = append(labels, s.Label)
	}
	return labels
}

// Composer turns an activation context into stage payloads
type Composer struct {
	registry *skills.Registry
	loader   *Loader
}

// NewComposer creates a composer over registry
func NewComposer(registry *skills.Registry) *Composer {
	return &Composer{
		registry: registry,
		loader:   NewPromptLoader(),
	}
}

// Compose builds the payload for stage
func (c *Composer) Compose(stage Stage, in Input) (*Payload, error) {
	system, err := c.loader.GetSystemInstruction(stage)
	if err != nil {
		return nil, err
	}
	if stage.needsDraft() && (in.Draft == nil || strings.TrimSpace(in.Draft.Lyrics) == "") {
		return nil, fmt.Errorf("stage %s requires a lyrics draft", stage)
	}

	active := c.registry.Activate(in.Context)

	blocks := contextBlocks(in)
	for _, s := range active {
		blocks = append(blocks, Block{Kind: BlockExpert, Label: s.Label, Text: s.InstructionFor(in.Context)})
	}
	inputs, err := stageInputBlocks(stage, in)
	if err != nil {
		return nil, err
	}
	blocks = append(blocks, inputs...)

	payload := &Payload{
		Stage:             stage,
		SystemInstruction: system,
		Blocks:            blocks,
		Directives:        directivesFor(stage, in, active),
		Active:            active,
	}
	payload.Shape = ShapeFor(stage, payload.PersonaLabels())
	return payload, nil
}

func contextBlocks(in Input) []Block {
	var blocks []Block
	if in.Context.UserRequest != "" {
		blocks = append(blocks, Block{Kind: BlockContext, Label: "User request", Text: in.Context.UserRequest})
	}
	if langs := in.Context.Language.Languages(); len(langs) > 0 {
		blocks = append(blocks, Block{Kind: BlockContext, Label: "Languages", Text: strings.Join(langs, ", ")})
	}
	if lines := SettingsLines(in.Context.Settings); len(lines) > 0 {
		blocks = append(blocks, Block{Kind: BlockContext, Label: "Settings", Text: strings.Join(lines, "\n")})
	}
	return blocks
}

// SettingsLines renders one directive line per resolved setting.
// Auto-detected and empty fields produce no line.
func SettingsLines(settings models.GenerationSettings) []string {
	var lines []string
	for _, field := range models.SettingFields {
		if value := settings.Effective(field); value != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", field.Label(), value))
		}
	}
	return lines
}

func stageInputBlocks(stage Stage, in Input) ([]Block, error) {
	var blocks []Block
	if in.Strategy != nil && (stage == StageLyrics || stage.needsDraft()) {
		raw, err := json.MarshalIndent(in.Strategy, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode strategy: %w", err)
		}
		blocks = append(blocks, Block{Kind: BlockContext, Label: "Strategy", Text: string(raw)})
	}
	if stage.needsDraft() {
		text := in.Draft.Lyrics
		if in.Draft.Title != "" {
			text = "Title: " + in.Draft.Title + "\n\n" + text
		}
		blocks = append(blocks, Block{Kind: BlockContext, Label: "Draft", Text: text})
	}
	if stage == StageReview && in.Consensus != nil {
		plan := strings.TrimSpace(in.Consensus.ConsensusPlan)
		if plan != "" {
			blocks = append(blocks, Block{Kind: BlockContext, Label: "Consensus plan", Text: plan})
		}
	}
	return blocks, nil
}
