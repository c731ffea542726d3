package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// single text item to translate
type TranslationItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// translated text item
type TranslationResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// interface for text translation
type Translator interface {
	Translate(
		ctx context.Context,
		items []TranslationItem,
	) ([]TranslationResult, error)
}

// optional interface for translators that support concurrent batch processing
type ConcurrentTranslator interface {
	Translator
	TranslateWithConcurrency(
		ctx context.Context,
		items []TranslationItem,
		concurrency int,
	) ([]TranslationResult, error)
}

// translation service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ParseProvider accepts a provider name in any case.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported translation provider: %s", s)
	}
}

// environment variable holding the provider's API key
func (p Provider) APIKeyEnv() string {
	switch p {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

type Options struct {
	InputLanguage  string
	TargetLanguage string
	Model          string
	Prompt         string
	BatchSize      int // items per API request (default 50)
}

// creates Translator based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Translator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranslator(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

// rules every provider receives ahead of the input array
var promptRules = []string{
	"Translate ONLY the text content, preserving the meaning.",
	"Keep any override tags (like {\\i1} or {\\an8}) unchanged.",
	"Preserve line breaks (\\N) in the same positions.",
	"Return ONLY a JSON array with the same structure.",
	"Each object must have 'index' and 'text' fields.",
	"The 'index' values must match the input indices exactly.",
	"Do not add any explanation or markdown formatting.",
	"The texts are consecutive dialogue lines of one script.",
}

// BuildPrompt renders the instruction block followed by items as JSON.
func BuildPrompt(opts Options, items []TranslationItem) string {
	var sb strings.Builder

	source := ""
	if opts.InputLanguage != "" {
		source = opts.InputLanguage + " "
	}
	fmt.Fprintf(&sb, "Translate the following %ssubtitle texts to %s.\n\n",
		source, opts.TargetLanguage)

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	for i, rule := range promptRules {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rule)
	}
	sb.WriteString("\n")

	if opts.Prompt != "" {
		fmt.Fprintf(&sb, "Additional instructions: %s\n\n", opts.Prompt)
	}

	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.WriteString("Input JSON:\n")
	sb.Write(inputJSON)
	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}
