package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgpai22/xls2ass/internal/subtitle"
)

type DocumentOptions struct {
	// parallel batch requests; only used by ConcurrentTranslators
	Concurrency int
	// keep the original text on a second line under the translation
	Overlay bool
}

// TranslateDocument replaces the text of every non-empty event in doc with
// its translation. Leading override tags such as {\i1} are kept out of the
// request and put back in front of the translated text. It returns the
// number of events translated; doc is left untouched on error.
func TranslateDocument(
	ctx context.Context,
	tr Translator,
	doc *subtitle.Document,
	opts DocumentOptions,
) (int, error) {
	var (
		items []TranslationItem
		tags  = make(map[int]string)
		orig  = make(map[int]string)
	)
	for i, ev := range doc.Events {
		lead, body := subtitle.SplitLeadingTags(ev.Text)
		if strings.TrimSpace(body) == "" {
			continue
		}
		items = append(items, TranslationItem{Index: i, Text: body})
		tags[i] = lead
		orig[i] = body
	}
	if len(items) == 0 {
		return 0, nil
	}

	var (
		results []TranslationResult
		err     error
	)
	if ct, ok := tr.(ConcurrentTranslator); ok && opts.Concurrency > 1 {
		results, err = ct.TranslateWithConcurrency(ctx, items, opts.Concurrency)
	} else {
		results, err = tr.Translate(ctx, items)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to translate events: %w", err)
	}

	translated := make(map[int]string, len(results))
	for _, r := range results {
		if _, ok := orig[r.Index]; !ok {
			return 0, fmt.Errorf("translation returned unknown index %d", r.Index)
		}
		translated[r.Index] = r.Text
	}
	for _, item := range items {
		if _, ok := translated[item.Index]; !ok {
			return 0, fmt.Errorf("translation missing for event %d", item.Index)
		}
	}

	for idx, text := range translated {
		text = strings.TrimSpace(text)
		if opts.Overlay {
			text += `\N` + orig[idx]
		}
		doc.Events[idx].Text = tags[idx] + text
	}

	return len(translated), nil
}
