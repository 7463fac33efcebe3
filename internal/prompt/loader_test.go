package prompt

import (
	"strings"
	"testing"
)

func TestNewPromptLoader(t *testing.T) {
	loader := NewPromptLoader()
	if loader == nil {
		t.Fatal("NewPromptLoader() returned nil")
	}
}

func TestGetSystemInstruction(t *testing.T) {
	loader := NewPromptLoader()

	for _, stage := range Stages {
		t.Run(string(stage), func(t *testing.T) {
			content, err := loader.GetSystemInstruction(stage)
			if err != nil {
				t.Fatalf("GetSystemInstruction(%s) returned error: %v", stage, err)
			}
			if content == "" {
				t.Fatalf("GetSystemInstruction(%s) returned empty string", stage)
			}
			if !strings.Contains(content, "JSON object") {
				t.Errorf("GetSystemInstruction(%s) does not ask for a JSON object", stage)
			}
			if content != strings.TrimSpace(content) {
				t.Errorf("GetSystemInstruction(%s) has surrounding whitespace", stage)
			}
		})
	}
}

func TestGetSystemInstructionUnknownStage(t *testing.T) {
	if _, err := NewPromptLoader().GetSystemInstruction(Stage("mastering")); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}

func TestParseStage(t *testing.T) {
	if s, err := ParseStage("critics"); err != nil || s != StageCritics {
		t.Fatalf("ParseStage(critics) = %q, %v", s, err)
	}
	if _, err := ParseStage("CRITICS"); err == nil {
		t.Fatal("expected error for unknown stage name")
	}
}
