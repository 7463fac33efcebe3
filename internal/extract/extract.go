// Package extract recovers a structured document from free-form model output.
// Output may be wrapped in prose or code fences and may use typographic quotes.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Conceptual-Machines/lyricist-api/internal/errs"
	"github.com/Conceptual-Machines/lyricist-api/internal/llm"
)

// A fence marker only counts when it sits alone on its line. JSON strings
// cannot hold a raw newline, so this never touches document values.
var fenceLine = regexp.MustCompile("(?m)^[ \\t]*(?:```|~~~)[A-Za-z0-9_-]*[ \\t\\r]*$")

var quoteReplacer = strings.NewReplacer(
	"“", `"`, // left double quotation mark
	"”", `"`, // right double quotation mark
	"„", `"`,
	"‟", `"`,
	"″", `"`,
	"＂", `"`,
)

// Decode extracts the document embedded in raw, checks the shape's required
// fields and decodes it into T. Every failure is a PARSING error.
func Decode[T any](raw string, shape llm.Shape) (T, error) {
	var out T
	if err := Into(raw, shape, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Into is Decode for a caller-supplied destination. Candidate spans are tried
// outermost first and the first object carrying every required field wins.
func Into(raw string, shape llm.Shape, out any) error {
	text := StripFences(raw)
	if strings.TrimSpace(text) == "" {
		return errs.Parsing("empty output", errs.ErrEmptyOutput)
	}

	err := decodeFirst(text, shape, out)
	if err == nil {
		return nil
	}
	if normalized := NormalizeQuotes(text); normalized != text {
		if decodeFirst(normalized, shape, out) == nil {
			return nil
		}
	}
	return err
}

func decodeFirst(text string, shape llm.Shape, out any) error {
	spans := candidates(text)
	if len(spans) == 0 {
		return errs.Parsing("no balanced JSON document found in output", nil)
	}

	var shapeErr error
	for _, span := range spans {
		var doc map[string]any
		if err := json.Unmarshal([]byte(span), &doc); err != nil {
			continue
		}
		if err := CheckRequired(doc, shape.Fields); err != nil {
			if shapeErr == nil {
				shapeErr = err
			}
			continue
		}

		decoder := json.NewDecoder(bytes.NewReader([]byte(span)))
		if err := decoder.Decode(out); err != nil {
			return errs.Parsing(fmt.Sprintf("structured output does not match %s", shape.Name), err)
		}
		return nil
	}
	if shapeErr != nil {
		return shapeErr
	}
	return errs.Parsing("structured output is not an object", nil)
}

// Locate returns the outermost complete, valid JSON span in raw, earliest
// first. Quote normalization is tried only when the text as written yields
// nothing.
func Locate(raw string) (string, error) {
	text := StripFences(raw)
	if strings.TrimSpace(text) == "" {
		return "", errs.Parsing("empty output", errs.ErrEmptyOutput)
	}

	if spans := candidates(text); len(spans) > 0 {
		return spans[0], nil
	}
	if normalized := NormalizeQuotes(text); normalized != text {
		if spans := candidates(normalized); len(spans) > 0 {
			return spans[0], nil
		}
	}
	return "", errs.Parsing("no balanced JSON document found in output", nil)
}

// StripFences removes markdown code fence lines
func StripFences(raw string) string {
	return fenceLine.ReplaceAllString(raw, "")
}

// NormalizeQuotes replaces typographic double quotes with ASCII quotes
func NormalizeQuotes(text string) string {
	return quoteReplacer.Replace(text)
}

// candidates returns every balanced span in text that is valid JSON, ordered
// by start offset so an enclosing span always precedes the spans it contains.
func candidates(text string) []string {
	var spans []string
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		end, ok := balancedEnd(text, i)
		if !ok {
			continue
		}
		if candidate := text[i : end+1]; json.Valid([]byte(candidate)) {
			spans = append(spans, candidate)
		}
	}
	return spans
}

// balancedEnd returns the index closing the delimiter opened at start.
// Delimiters inside JSON strings are ignored; a mismatched closer fails the span.
func balancedEnd(text string, start int) (int, bool) {
	var stack []byte
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch ch {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// CheckRequired verifies every required field of fields is present and non-null
// in doc, descending into nested objects and arrays of objects.
func CheckRequired(doc map[string]any, fields []llm.Field) error {
	return checkRequired(doc, fields, "")
}

func checkRequired(doc map[string]any, fields []llm.Field, prefix string) error {
	for _, f := range fields {
		path := prefix + f.Name
		value, ok := doc[f.Name]
		if !ok || value == nil {
			if f.Required {
				return errs.Parsing("missing required field "+path, nil)
			}
			continue
		}

		switch f.Kind {
		case llm.KindObject:
			nested, ok := value.(map[string]any)
			if !ok {
				return errs.Parsing(fmt.Sprintf("field %s must be an object", path), nil)
			}
			if err := checkRequired(nested, f.Fields, path+"."); err != nil {
				return err
			}
		case llm.KindArray:
			items, ok := value.([]any)
			if !ok {
				return errs.Parsing(fmt.Sprintf("field %s must be an array", path), nil)
			}
			if f.Item == nil || f.Item.Kind != llm.KindObject {
				continue
			}
			for i, item := range items {
				nested, ok := item.(map[string]any)
				if !ok {
					return errs.Parsing(fmt.Sprintf("field %s[%d] must be an object", path, i), nil)
				}
				if err := checkRequired(nested, f.Item.Fields, fmt.Sprintf("%s[%d].", path, i)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
