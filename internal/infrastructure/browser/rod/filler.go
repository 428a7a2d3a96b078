package rod

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"deletion-agent/internal/domain/entity"
)

// FillField dispatches to the kind-specific strategy. It reports failure
// instead of propagating it, so a batch fill can continue past one bad field.
func (b *BrowserAdapter) FillField(ctx context.Context, fieldID, value string, kind entity.FieldKind) bool {
	var err error
	switch kind {
	case entity.FieldKindOption:
		err = b.fillOption(ctx, fieldID, value)
	case entity.FieldKindAutocomplete:
		err = b.fillAutocomplete(ctx, fieldID, value)
	default:
		err = b.fillText(ctx, fieldID, value)
	}
	if err != nil {
		b.logger.Warn("Field fill failed", "field", fieldID, "kind", string(kind), "error", err)
		return false
	}
	b.logger.Debug("Field filled", "field", fieldID, "kind", string(kind))
	return true
}

func (b *BrowserAdapter) fillText(ctx context.Context, fieldID, value string) error {
	el := b.findField(ctx, fieldID)
	if el == nil {
		return errFieldNotFound(fieldID)
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	return el.Input(value)
}

// listboxOptionsJS collects the visible option texts scoped to the listbox
// container, so options from unrelated widgets never enter the match.
const listboxOptionsJS = `() => {
	const optionElements = Array.from(this.querySelectorAll('[role="option"], div, li, span'));
	return optionElements
		.filter(el => el.offsetParent !== null)
		.map(el => el.textContent.trim())
		.filter(text => text.length > 0);
}`

const clickListboxOptionJS = `(text) => {
	const optionElements = Array.from(this.querySelectorAll('[role="option"], div, li, span'));
	const match = optionElements.find(el =>
		el.offsetParent !== null && el.textContent.trim() === text);
	if (!match) return false;
	match.scrollIntoView({block: 'center'});
	match.click();
	return true;
}`

func (b *BrowserAdapter) fillOption(ctx context.Context, fieldID, value string) error {
	el := b.findField(ctx, fieldID)
	if el == nil {
		return errFieldNotFound(fieldID)
	}

	// Native selects choose by option label directly.
	if tag := elementTag(el); tag == "select" {
		return el.Select([]string{value}, true, rod.SelectorTypeText)
	}

	// ARIA listbox: open it, fuzzy-match against its visible options, click
	// the best match.
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	b.wait(ctx, b.settleWait)

	res, err := el.Eval(listboxOptionsJS)
	if err != nil {
		return err
	}
	var options []string
	if err := json.Unmarshal([]byte(res.Value.JSON("", "")), &options); err != nil {
		return err
	}

	best, ok := closestMatch(value, options, matchCutoff)
	if !ok {
		return errNoOptionMatch(value, options)
	}
	b.logger.Debug("Listbox match", "target", value, "matched", best)

	clicked, err := el.Eval(clickListboxOptionJS, best)
	if err != nil {
		return err
	}
	if !clicked.Value.Bool() {
		return errNoOptionMatch(value, options)
	}
	return nil
}

// dropdownOptionSelectors is the small ordered list of generic selectors an
// autocomplete dropdown's options usually live under.
var dropdownOptionSelectors = []string{
	`[role="option"]`,
	`[role="listbox"] li`,
	`ul li`,
	`.autocomplete-item, [class*="autocomplete"] li, [class*="suggestion"]`,
}

func (b *BrowserAdapter) fillAutocomplete(ctx context.Context, fieldID, value string) error {
	el := b.findField(ctx, fieldID)
	if el == nil {
		return errFieldNotFound(fieldID)
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(value); err != nil {
		return err
	}

	// Fixed settle interval for the dropdown to render.
	b.wait(ctx, b.settleWait)

	deadline := time.Now().Add(2 * b.settleWait)
	page := b.page.Context(ctx)
	for {
		for _, sel := range dropdownOptionSelectors {
			elements, err := page.Elements(sel)
			if err != nil {
				continue
			}
			for _, opt := range elements {
				if visible, err := opt.Visible(); err != nil || !visible {
					continue
				}
				text, err := opt.Text()
				if err != nil {
					continue
				}
				text = strings.TrimSpace(text)
				if text == "" || !strings.Contains(strings.ToLower(text), strings.ToLower(value)) {
					continue
				}
				if err := opt.ScrollIntoView(); err == nil {
					if err := opt.Click(proto.InputMouseButtonLeft, 1); err == nil {
						b.wait(ctx, 500*time.Millisecond)
						return nil
					}
				}
			}
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return errNoDropdownOption(value)
		}
		b.wait(ctx, 250*time.Millisecond)
	}
}

func (b *BrowserAdapter) clickAndSettle(ctx context.Context, el *rod.Element) error {
	_ = el.ScrollIntoView()
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	b.page.Context(ctx).WaitIdle(5 * time.Second)
	return nil
}

// wait sleeps but wakes up on context cancellation.
func (b *BrowserAdapter) wait(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func elementTag(el *rod.Element) string {
	res, err := el.Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func controlText(el *rod.Element) string {
	text, err := el.Text()
	if err == nil {
		text = strings.TrimSpace(text)
	}
	if text == "" {
		if v, err := el.Attribute("value"); err == nil && v != nil {
			text = strings.TrimSpace(*v)
		}
	}
	return text
}
