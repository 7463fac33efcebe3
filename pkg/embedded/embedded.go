package embedded

import (
	_ "embed"
)

// Stage system instructions
//
//go:embed data/prompts/strategy.txt
var StrategyPromptTxt []byte

//go:embed data/prompts/lyrics.txt
var LyricsPromptTxt []byte

//go:embed data/prompts/strategy_lyrics.txt
var StrategyLyricsPromptTxt []byte

//go:embed data/prompts/critics.txt
var CriticsPromptTxt []byte

//go:embed data/prompts/review.txt
var ReviewPromptTxt []byte

//go:embed data/prompts/post_process.txt
var PostProcessPromptTxt []byte
