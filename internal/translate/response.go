package translate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var jsonFenceRegex = regexp.MustCompile("```(?:json)?\\s*")

// decodeResponse pulls the translated items out of a model reply.
func decodeResponse(
	provider Provider,
	responseText string,
	expectedCount int,
) ([]TranslationResult, error) {
	if responseText == "" {
		return nil, fmt.Errorf("no text in %s response", provider)
	}

	responseText = cleanJSONResponse(responseText)

	results, err := extractTranslationResults(responseText)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to parse JSON response: %w (response: %s)",
			err,
			truncateString(responseText, 200),
		)
	}

	if len(results) != expectedCount {
		return nil, fmt.Errorf(
			"expected %d results, got %d",
			expectedCount,
			len(results),
		)
	}

	return results, nil
}

func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = jsonFenceRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// fixInvalidEscapes doubles the backslash of escapes JSON does not know,
// so ASS overrides such as \N and \h survive decoding literally.
func fixInvalidEscapes(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	i := 0
	for i < len(s) {
		if i < len(s)-1 && s[i] == '\\' {
			next := s[i+1]
			switch next {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				result.WriteByte(s[i])
				result.WriteByte(next)
			default:
				result.WriteString("\\\\")
				result.WriteByte(next)
			}
			i += 2
			continue
		}
		result.WriteByte(s[i])
		i++
	}

	return result.String()
}

func extractTranslationResults(text string) ([]TranslationResult, error) {
	text = fixInvalidEscapes(text)

	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}
		if results, ok := tryExtractResults(raw); ok && len(results) > 0 {
			return results, nil
		}
	}
	return nil, fmt.Errorf("no valid translation JSON found in response")
}

// accepts a bare array or an object wrapping one
func tryExtractResults(raw json.RawMessage) ([]TranslationResult, bool) {
	var results []TranslationResult
	if err := json.Unmarshal(raw, &results); err == nil && validateResults(results) {
		return results, true
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}

	for _, key := range []string{"results", "translations", "data", "items"} {
		if fieldRaw, exists := wrapper[key]; exists {
			if fieldResults, ok := unmarshalResults(fieldRaw); ok {
				return fieldResults, true
			}
		}
	}

	for _, fieldRaw := range wrapper {
		if fieldResults, ok := unmarshalResults(fieldRaw); ok {
			return fieldResults, true
		}
	}

	return nil, false
}

func unmarshalResults(raw json.RawMessage) ([]TranslationResult, bool) {
	var results []TranslationResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false
	}
	return results, validateResults(results)
}

func validateResults(results []TranslationResult) bool {
	for _, r := range results {
		if r.Text != "" {
			return true
		}
	}
	return false
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
