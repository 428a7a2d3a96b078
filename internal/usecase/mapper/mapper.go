package mapper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"deletion-agent/internal/application/port/output"
	"deletion-agent/internal/domain/entity"
)

const maxAttempts = 3

// Mapper asks the language model to propose a form-field -> user-data mapping
// and validates everything it says before anyone acts on it. The model only
// ever sees field metadata and user-data key names; real values are
// substituted back in after validation.
type Mapper struct {
	llm    output.LLMPort
	logger output.LoggerPort
}

func New(llm output.LLMPort, log output.LoggerPort) *Mapper {
	return &Mapper{llm: llm, logger: log}
}

// proposedEntry is the JSON shape the prompt demands per field.
type proposedEntry struct {
	UserDataKey string `json:"user_data_key"`
	FieldType   string `json:"field_type"`
}

// Map runs at most maxAttempts model calls and returns the first non-empty
// validated mapping. Entries that fail validation are dropped individually;
// an empty result after all attempts is an AIFallbackError.
func (m *Mapper) Map(ctx context.Context, analysis *entity.FormAnalysis, userData entity.UserData, brokerName string) (entity.FieldMapping, error) {
	prompt := m.buildPrompt(analysis, userData.Keys(), brokerName)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		m.logger.Info("AI mapping attempt", "broker", brokerName, "attempt", attempt, "max", maxAttempts)

		response, err := m.llm.Complete(ctx, prompt)
		if err != nil {
			lastErr = err
			m.logger.Warn("Model call failed", "attempt", attempt, "error", err)
			continue
		}

		proposed, err := parseProposal(response)
		if err != nil {
			lastErr = err
			m.logger.Warn("Model returned unparseable mapping", "attempt", attempt, "error", err)
			continue
		}

		mapping := m.validate(proposed, analysis, userData)
		if len(mapping) > 0 {
			m.logger.Info("AI mapping accepted", "broker", brokerName, "fields", len(mapping))
			return mapping, nil
		}
		lastErr = fmt.Errorf("no proposed entry survived validation")
	}

	return nil, &entity.AIFallbackError{
		BrokerName: brokerName,
		Message:    "failed to generate a valid field mapping",
		Attempts:   maxAttempts,
		Cause:      lastErr,
		Suggestions: []string{
			"author a full form_config for this broker instead of relying on the AI fallback",
			"verify the URL points at the actual privacy form",
		},
	}
}

// buildPrompt sends field metadata and user-data KEY NAMES only. Values are
// deliberately withheld from the model.
func (m *Mapper) buildPrompt(analysis *entity.FormAnalysis, userKeys []string, brokerName string) string {
	fieldsJSON, _ := json.MarshalIndent(analysis.Fields, "", "  ")
	keysJSON, _ := json.MarshalIndent(userKeys, "", "  ")

	return fmt.Sprintf(`You are a form analysis expert. Map form fields to user data fields for %s.

STRICT RULES:
1. Only return valid JSON - no explanations, no markdown
2. Only map fields that clearly correspond to user data
3. Use exact field IDs from the form analysis
4. Map to user data keys that exist
5. Include field type (text/select/autocomplete)

Form Fields Available:
%s

User Data Available:
%s

Return ONLY this JSON format:
{
  "field_id_1": {"user_data_key": "first_name", "field_type": "text"},
  "field_id_2": {"user_data_key": "state", "field_type": "autocomplete"}
}

Requirements:
- Map first_name, last_name, email if fields exist
- Map address fields if available
- Identify state field as autocomplete type if it's a dropdown/combobox
- Only include confident mappings
- Return empty object {} if no clear mappings found`, brokerName, fieldsJSON, keysJSON)
}

// parseProposal tolerates fenced code blocks around the JSON.
func parseProposal(response string) (map[string]proposedEntry, error) {
	cleaned := stripFences(strings.TrimSpace(response))

	var proposed map[string]proposedEntry
	if err := json.Unmarshal([]byte(cleaned), &proposed); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	return proposed, nil
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	var out []string
	inFence := false
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// validate drops any entry referencing an unknown field, an unknown user-data
// key, or an unrecognized field type, then substitutes the real values in.
func (m *Mapper) validate(proposed map[string]proposedEntry, analysis *entity.FormAnalysis, userData entity.UserData) entity.FieldMapping {
	mapping := entity.FieldMapping{}
	for fieldID, entry := range proposed {
		if _, ok := analysis.FieldByID(fieldID); !ok {
			m.logger.Warn("Mapping references unknown field, dropped", "field", fieldID)
			continue
		}
		value, ok := userData[entry.UserDataKey]
		if !ok {
			m.logger.Warn("Mapping references unknown user-data key, dropped",
				"field", fieldID, "key", entry.UserDataKey)
			continue
		}
		kind, ok := entity.ParseFieldKind(entry.FieldType)
		if !ok {
			m.logger.Warn("Mapping uses unrecognized field type, dropped",
				"field", fieldID, "type", entry.FieldType)
			continue
		}
		mapping[fieldID] = entity.MappingEntry{
			Value:   value,
			Kind:    kind,
			UserKey: entry.UserDataKey,
		}
	}
	return mapping
}
