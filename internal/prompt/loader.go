package prompt

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/lyricist-api/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetSystemInstruction loads the embedded system instruction for a stage
func (l *Loader) GetSystemInstruction(stage Stage) (string, error) {
	var raw []byte
	switch stage {
	case StageStrategy:
		raw = embedded.StrategyPromptTxt
	case StageLyrics:
		raw = embedded.LyricsPromptTxt
	case StageStrategyAndLyrics:
		raw = embedded.StrategyLyricsPromptTxt
	case StageCritics:
		raw = embedded.CriticsPromptTxt
	case StageReview:
		raw = embedded.ReviewPromptTxt
	case StagePostProcess:
		raw = embedded.PostProcessPromptTxt
	default:
		return "", fmt.Errorf("no system instruction for stage %q", stage)
	}
	return strings.TrimSpace(string(raw)), nil
}
