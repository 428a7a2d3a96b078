package rod

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-rod/rod"

	"deletion-agent/internal/domain/entity"
)

// fieldScanJS walks every input-like element and classifies its fill
// strategy: ARIA listbox -> option, ARIA combobox -> autocomplete, native
// select -> option, everything else -> text.
const fieldScanJS = `() => {
	return Array.from(document.querySelectorAll('input, select, textarea, [role="combobox"], [role="listbox"]'))
		.map(field => {
			let fieldType = 'text';
			if (field.getAttribute('role') === 'listbox') {
				fieldType = 'option';
			} else if (field.getAttribute('role') === 'combobox') {
				fieldType = 'autocomplete';
			} else if (field.tagName === 'SELECT') {
				fieldType = 'option';
			}
			return {
				id: field.id || field.name || '',
				name: field.name || '',
				type: fieldType,
				label: field.getAttribute('aria-label') || '',
				required: field.hasAttribute('required'),
				value: field.value || '',
				role: field.getAttribute('role') || ''
			};
		})
		.filter(f => f.id !== '');
}`

// submitTiers in discovery order; the first tier with a visible match wins.
var submitTiers = []struct {
	tier     string
	selector string
}{
	{entity.SubmitTierExplicit, `button[type="submit"], input[type="submit"]`},
	{entity.SubmitTierVocabulary, `button, input[type="button"], [role="button"]`},
	{entity.SubmitTierStyled, `button[class*="primary"], button[class*="action"], button[class*="submit"], [class*="btn-primary"]`},
}

// submitVocabulary is the visible-text vocabulary for tier two.
var submitVocabulary = map[string]bool{
	"submit": true, "send": true, "continue": true, "next": true,
	"proceed": true, "request": true, "delete": true, "remove": true,
}

// AnalyzeForm produces the normalized form description: ordered fillable
// fields plus the submit control, when one can be discovered. Failing to find
// a submit control is not fatal; SubmitForm retries the tiers at submit time.
func (b *BrowserAdapter) AnalyzeForm(ctx context.Context) (*entity.FormAnalysis, error) {
	page := b.page.Context(ctx)

	res, err := page.Eval(fieldScanJS)
	if err != nil {
		return nil, fmt.Errorf("form field scan failed: %w", err)
	}

	var fields []entity.FormField
	if err := json.Unmarshal([]byte(res.Value.JSON("", "")), &fields); err != nil {
		return nil, fmt.Errorf("form field scan returned unexpected shape: %w", err)
	}

	// Recover labels from <label for=...> markup when aria-label was empty.
	if html, err := page.HTML(); err == nil {
		labels := extractFieldLabels(html)
		for i := range fields {
			if fields[i].Label == "" {
				if text, ok := labels[fields[i].ID]; ok {
					fields[i].Label = text
				}
			}
		}
	}

	analysis := &entity.FormAnalysis{Fields: fields}
	if control, _, ok := b.findSubmitControl(ctx); ok {
		analysis.SubmitButton = control
	} else {
		b.logger.Debug("No submit control discovered during analysis")
	}

	b.logger.Info("Form analyzed", "fields", len(fields), "hasSubmit", analysis.SubmitButton != nil)
	return analysis, nil
}

func (b *BrowserAdapter) findSubmitControl(ctx context.Context) (*entity.SubmitControl, *rod.Element, bool) {
	page := b.page.Context(ctx)

	for _, t := range submitTiers {
		elements, err := page.Elements(t.selector)
		if err != nil {
			continue
		}
		for _, el := range elements {
			if visible, err := el.Visible(); err != nil || !visible {
				continue
			}
			text := controlText(el)

			if t.tier == entity.SubmitTierVocabulary && !submitVocabulary[strings.ToLower(text)] {
				continue
			}

			control := &entity.SubmitControl{
				Tier:     t.tier,
				Text:     text,
				Selector: t.selector,
			}
			if id, err := el.Attribute("id"); err == nil && id != nil && *id != "" {
				control.ID = *id
				control.Selector = "#" + cssEscape(*id)
			}
			return control, el, true
		}
	}
	return nil, nil, false
}

// SubmitForm clicks the analyzed submit control, falling back to a fresh walk
// of the discovery tiers when analysis found nothing (or its selector went
// stale).
func (b *BrowserAdapter) SubmitForm(ctx context.Context, control *entity.SubmitControl) error {
	page := b.page.Context(ctx)

	if control != nil && control.ID != "" {
		if has, el, err := page.Has(control.Selector); err == nil && has {
			return b.clickAndSettle(ctx, el)
		}
		b.logger.Warn("Analyzed submit control no longer present, re-running discovery",
			"selector", control.Selector)
	}

	if _, el, ok := b.findSubmitControl(ctx); ok {
		return b.clickAndSettle(ctx, el)
	}
	return fmt.Errorf("could not find a suitable submit control")
}
