package prompt

import "fmt"

// Stage identifies which pipeline step a payload is composed for
type Stage string

const (
	StageStrategy          Stage = "strategy"
	StageLyrics            Stage = "lyrics"
	StageStrategyAndLyrics Stage = "strategy_lyrics"
	StageCritics           Stage = "critics"
	StageReview            Stage = "review"
	StagePostProcess       Stage = "post_process"
)

// Stages lists every stage in pipeline order
var Stages = []Stage{
	StageStrategy,
	StageLyrics,
	StageStrategyAndLyrics,
	StageCritics,
	StageReview,
	StagePostProcess,
}

// ParseStage validates a stage name
func ParseStage(name string) (Stage, error) {
	for _, s := range Stages {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q (allowed: strategy, lyrics, strategy_lyrics, critics, review, post_process)", name)
}

// needsDraft reports whether the stage operates on existing lyrics
func (s Stage) needsDraft() bool {
	switch s {
	case StageCritics, StageReview, StagePostProcess:
		return true
	default:
		return false
	}
}
