package submission

import (
	"strings"

	"deletion-agent/internal/domain/entity"
)

// SubstituteTemplate recursively replaces {key} placeholders with user-data
// values in every string found inside nested maps and lists. Non-string
// leaves (numbers, booleans, null) pass through unchanged, and inputs with no
// placeholders come back identical.
func SubstituteTemplate(template any, data entity.UserData) any {
	switch v := template.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[key] = SubstituteTemplate(value, data)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = SubstituteTemplate(item, data)
		}
		return out
	case string:
		result := v
		for key, value := range data {
			result = strings.ReplaceAll(result, "{"+key+"}", value)
		}
		return result
	default:
		return v
	}
}
