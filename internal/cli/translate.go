package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mgpai22/xls2ass/internal/subtitle"
	"github.com/mgpai22/xls2ass/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [ass_file]",
	Short: "Translate the dialogue of an ASS script using AI",
	Long: `Translate the dialogue of an existing ASS script, such as one written
by the convert command. Styles, actors and timing are kept; leading
override tags like {\i1} stay in front of the translated text.

The --overlay flag creates bilingual subtitles with the translated text
first, followed by the original text on the next line.

Examples:
  xls2ass translate reel1.ass --translate-to japanese
  xls2ass translate reel1.ass --translate-to es --overlay --provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)
	addTranslationFlags(translateCmd.Flags())
	translateCmd.Flags().
		String("encoding", string(subtitle.EncodingUTF8BOM), "Output encoding (utf-8-bom, utf-8, utf-16le)")
	_ = translateCmd.MarkFlagRequired("translate-to")
}

// flags shared by translate and convert
func addTranslationFlags(flags *pflag.FlagSet) {
	flags.String("translate-to", "", "Translate dialogue to this language")
	flags.Bool("overlay", false, "Keep the original line under the translation (bilingual subtitles)")
	flags.StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY)")
	flags.String("model", "", "Model to use for translation (provider-specific, uses sensible defaults)")
	flags.String("provider", string(translate.ProviderGemini), "Translation provider (gemini, openai, anthropic)")
	flags.Int("concurrency", translate.DefaultConcurrency, "Number of parallel translation requests")
	flags.Int("batch-size", translate.DefaultBatchSize, "Number of dialogue lines per API request")
	flags.String("prompt", "", "Extra instructions for the translator")
}

type translationSettings struct {
	target      string
	overlay     bool
	provider    translate.Provider
	apiKey      string
	concurrency int
	options     translate.Options
}

// reads the translation flags; ok is false when no target language is set
func translationFromFlags(cmd *cobra.Command) (translationSettings, bool, error) {
	target, _ := cmd.Flags().GetString("translate-to")
	target = strings.TrimSpace(target)
	if target == "" {
		return translationSettings{}, false, nil
	}

	overlay, _ := cmd.Flags().GetBool("overlay")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	providerStr, _ := cmd.Flags().GetString("provider")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	prompt, _ := cmd.Flags().GetString("prompt")
	inputLang, _ := cmd.Flags().GetString("language")

	provider, err := translate.ParseProvider(providerStr)
	if err != nil {
		return translationSettings{}, false, err
	}

	if inputLang != "" && strings.EqualFold(strings.TrimSpace(inputLang), target) {
		return translationSettings{}, false, fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			inputLang,
			target,
		)
	}

	if apiKey == "" {
		apiKey = os.Getenv(provider.APIKeyEnv())
	}
	if apiKey == "" {
		return translationSettings{}, false, fmt.Errorf(
			"API key is required: use --api-key flag or set %s environment variable",
			provider.APIKeyEnv(),
		)
	}

	if concurrency <= 0 {
		return translationSettings{}, false, fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if batchSize <= 0 {
		return translationSettings{}, false, fmt.Errorf("batch-size must be positive, got %d", batchSize)
	}

	return translationSettings{
		target:      target,
		overlay:     overlay,
		provider:    provider,
		apiKey:      apiKey,
		concurrency: concurrency,
		options: translate.Options{
			InputLanguage:  inputLang,
			TargetLanguage: target,
			Model:          model,
			Prompt:         prompt,
			BatchSize:      batchSize,
		},
	}, true, nil
}

func translateDocument(ctx context.Context, doc *subtitle.Document, ts translationSettings) error {
	translator, err := translate.Factory(ctx, ts.provider, ts.apiKey, ts.options)
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	logger.Infow("Translating dialogue",
		"provider", ts.provider,
		"target_language", ts.target,
		"events", len(doc.Events),
		"concurrency", ts.concurrency,
		"overlay", ts.overlay,
	)

	n, err := translate.TranslateDocument(ctx, translator, doc, translate.DocumentOptions{
		Concurrency: ts.concurrency,
		Overlay:     ts.overlay,
	})
	if err != nil {
		return err
	}

	logger.Infow("Translation complete", "translated", n)
	return nil
}

// reel1.ass -> reel1.ja.ass or reel1.ja.overlay.ass
func translatedPath(path, target string, overlay bool) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	tag := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(target), " ", "-"))
	if overlay {
		return fmt.Sprintf("%s.%s.overlay%s", base, tag, ext)
	}
	return fmt.Sprintf("%s.%s%s", base, tag, ext)
}

func runTranslate(cmd *cobra.Command, args []string) error {
	subtitlePath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	outputPath, _ := cmd.Flags().GetString("output")
	encStr, _ := cmd.Flags().GetString("encoding")

	if _, err := os.Stat(subtitlePath); os.IsNotExist(err) {
		return fmt.Errorf("subtitle file not found: %s", subtitlePath)
	}
	ext := strings.ToLower(filepath.Ext(subtitlePath))
	if ext != ".ass" && ext != ".ssa" {
		return fmt.Errorf("unsupported subtitle format %q: use .ass or .ssa", ext)
	}

	enc, err := subtitle.ParseEncoding(encStr)
	if err != nil {
		return err
	}

	ts, ok, err := translationFromFlags(cmd)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("target language is required")
	}

	if outputPath == "" {
		outputPath = translatedPath(subtitlePath, ts.target, ts.overlay)
	}

	logger.Infow("Starting subtitle translation",
		"input", subtitlePath,
		"output", outputPath,
		"target_language", ts.target,
	)

	doc, err := subtitle.OpenASS(subtitlePath)
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	if len(doc.Events) == 0 {
		return fmt.Errorf("subtitle file contains no dialogue")
	}

	if err := translateDocument(ctx, doc, ts); err != nil {
		return err
	}

	if err := subtitle.WriteFile(doc, outputPath, subtitle.FormatASS, enc); err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(outputPath)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Subtitles translated successfully: %s\n", absOutput)
	fmt.Fprintf(out, "  Events: %d\n", len(doc.Events))
	fmt.Fprintf(out, "  Target language: %s\n", ts.target)
	if ts.overlay {
		fmt.Fprintf(out, "  Mode: bilingual overlay\n")
	}

	return nil
}
