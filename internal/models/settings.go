package models

import "strings"

const (
	// CustomSentinel selects the paired free-text field as the effective value
	CustomSentinel = "Custom"
	// AutoDetectSentinel leaves the choice to the model; the directive is omitted
	AutoDetectSentinel = "Auto-Detect"
)

// SettingField names one enumerated option on GenerationSettings
type SettingField string

const (
	FieldStyle       SettingField = "style"
	FieldTheme       SettingField = "theme"
	FieldMood        SettingField = "mood"
	FieldComplexity  SettingField = "complexity"
	FieldCategory    SettingField = "category"
	FieldRhymeScheme SettingField = "rhymeScheme"
	FieldSingerStyle SettingField = "singerStyle"
	FieldStructure   SettingField = "structure"
	FieldDialect     SettingField = "dialect"
	FieldCeremony    SettingField = "ceremony"
)

// SettingFields lists every enumerated field in directive order
var SettingFields = []SettingField{
	FieldStyle,
	FieldTheme,
	FieldMood,
	FieldComplexity,
	FieldCategory,
	FieldRhymeScheme,
	FieldSingerStyle,
	FieldStructure,
	FieldDialect,
	FieldCeremony,
}

var settingLabels = map[SettingField]string{
	FieldStyle:       "Style",
	FieldTheme:       "Theme",
	FieldMood:        "Mood",
	FieldComplexity:  "Complexity",
	FieldCategory:    "Category",
	FieldRhymeScheme: "Rhyme Scheme",
	FieldSingerStyle: "Singer Style",
	FieldStructure:   "Structure",
	FieldDialect:     "Dialect",
	FieldCeremony:    "Ceremony",
}

// Label returns the human readable directive label for the field
func (f SettingField) Label() string {
	if label, ok := settingLabels[f]; ok {
		return label
	}
	return string(f)
}

// GenerationSettings holds the structured options chosen alongside a free-form request.
// Each option may be the Custom sentinel (use the paired Custom* text) or the
// Auto-Detect sentinel (let the model decide).
type GenerationSettings struct {
	Style             string `json:"style,omitempty"`
	CustomStyle       string `json:"customStyle,omitempty"`
	Theme             string `json:"theme,omitempty"`
	CustomTheme       string `json:"customTheme,omitempty"`
	Mood              string `json:"mood,omitempty"`
	CustomMood        string `json:"customMood,omitempty"`
	Complexity        string `json:"complexity,omitempty"`
	CustomComplexity  string `json:"customComplexity,omitempty"`
	Category          string `json:"category,omitempty"`
	CustomCategory    string `json:"customCategory,omitempty"`
	RhymeScheme       string `json:"rhymeScheme,omitempty"`
	CustomRhymeScheme string `json:"customRhymeScheme,omitempty"`
	SingerStyle       string `json:"singerStyle,omitempty"`
	CustomSingerStyle string `json:"customSingerStyle,omitempty"`
	Structure         string `json:"structure,omitempty"`
	CustomStructure   string `json:"customStructure,omitempty"`
	Dialect           string `json:"dialect,omitempty"`
	CustomDialect     string `json:"customDialect,omitempty"`
	Ceremony          string `json:"ceremony,omitempty"`
	CustomCeremony    string `json:"customCeremony,omitempty"`
}

// raw returns the option and its paired custom text
func (s GenerationSettings) raw(field SettingField) (string, string) {
	switch field {
	case FieldStyle:
		return s.Style, s.CustomStyle
	case FieldTheme:
		return s.Theme, s.CustomTheme
	case FieldMood:
		return s.Mood, s.CustomMood
	case FieldComplexity:
		return s.Complexity, s.CustomComplexity
	case FieldCategory:
		return s.Category, s.CustomCategory
	case FieldRhymeScheme:
		return s.RhymeScheme, s.CustomRhymeScheme
	case FieldSingerStyle:
		return s.SingerStyle, s.CustomSingerStyle
	case FieldStructure:
		return s.Structure, s.CustomStructure
	case FieldDialect:
		return s.Dialect, s.CustomDialect
	case FieldCeremony:
		return s.Ceremony, s.CustomCeremony
	default:
		return "", ""
	}
}

// Effective resolves the value a directive should carry for field.
// An empty result means the directive is omitted.
func (s GenerationSettings) Effective(field SettingField) string {
	value, custom := s.raw(field)
	value = strings.TrimSpace(value)
	custom = strings.TrimSpace(custom)

	if strings.EqualFold(value, CustomSentinel) {
		// Custom without text has nothing to stand in for it
		return custom
	}
	if IsAutoDetect(value) {
		return ""
	}
	return value
}

// IsAutoDetect reports whether v is the auto-detect sentinel
func IsAutoDetect(v string) bool {
	v = strings.TrimSpace(v)
	return strings.EqualFold(v, AutoDetectSentinel) || strings.EqualFold(v, "auto detect") || strings.EqualFold(v, "auto")
}

// LanguageProfile lists the languages a song should be written in, primary first
type LanguageProfile struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
	Tertiary  string `json:"tertiary,omitempty"`
}

// Languages returns the non-empty languages in priority order
func (l LanguageProfile) Languages() []string {
	var out []string
	for _, lang := range []string{l.Primary, l.Secondary, l.Tertiary} {
		if lang = strings.TrimSpace(lang); lang != "" {
			out = append(out, lang)
		}
	}
	return out
}

// AudioAnalysis carries optional measurements of a reference track
type AudioAnalysis struct {
	BPM       float64  `json:"bpm"`
	Key       string   `json:"key,omitempty"`
	Meter     string   `json:"meter,omitempty"`
	Energy    string   `json:"energy,omitempty"`
	Sections  []string `json:"sections,omitempty"`
	Reference string   `json:"reference,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate a shared analysis
func (a *AudioAnalysis) Clone() *AudioAnalysis {
	if a == nil {
		return nil
	}
	c := *a
	c.Sections = append([]string(nil), a.Sections...)
	return &c
}
