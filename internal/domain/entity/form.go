package entity

// FieldKind is the closed set of fill strategies the filler knows about.
type FieldKind string

const (
	FieldKindText         FieldKind = "text"
	FieldKindOption       FieldKind = "option"
	FieldKindAutocomplete FieldKind = "autocomplete"
)

// ParseFieldKind normalizes the kind names the model (or a hand-authored
// config) may use. "select" and "option" are the same strategy, as are "text"
// and "textarea".
func ParseFieldKind(s string) (FieldKind, bool) {
	switch s {
	case "text", "textarea":
		return FieldKindText, true
	case "option", "select":
		return FieldKindOption, true
	case "autocomplete":
		return FieldKindAutocomplete, true
	}
	return "", false
}

// FormField is one fillable element discovered on the page. Produced fresh on
// every page visit, never persisted.
type FormField struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Kind     FieldKind `json:"type"`
	Label    string    `json:"label"`
	Required bool      `json:"required"`
	Value    string    `json:"value"`
	Role     string    `json:"role"`
}

// SubmitControl tiers, in discovery order.
const (
	SubmitTierExplicit   = "explicit"   // [type=submit]
	SubmitTierVocabulary = "vocabulary" // visible text matches the submit vocabulary
	SubmitTierStyled     = "styled"     // primary/action class marker
)

type SubmitControl struct {
	Tier     string `json:"tier"`
	ID       string `json:"id,omitempty"`
	Text     string `json:"text,omitempty"`
	Selector string `json:"selector"`
}

// FormAnalysis is the analyzer's normalized view of the page.
type FormAnalysis struct {
	Fields       []FormField    `json:"fields"`
	SubmitButton *SubmitControl `json:"submit_button,omitempty"`
}

func (a *FormAnalysis) FieldByID(id string) (FormField, bool) {
	for _, f := range a.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FormField{}, false
}

func (a *FormAnalysis) FieldIDs() []string {
	ids := make([]string, 0, len(a.Fields))
	for _, f := range a.Fields {
		ids = append(ids, f.ID)
	}
	return ids
}

// MappingEntry carries the resolved value for one field. UserKey records which
// user-data key the value came from, for diagnostics and config generation.
type MappingEntry struct {
	Value   string    `json:"value"`
	Kind    FieldKind `json:"type"`
	UserKey string    `json:"user_key"`
}

// FieldMapping maps field IDs to fill instructions. Both the deterministic
// path and the AI fallback produce this shape, so downstream stages do not
// care where a mapping came from. Every field ID must exist in the current
// FormAnalysis and every UserKey must exist in the current UserData.
type FieldMapping map[string]MappingEntry
