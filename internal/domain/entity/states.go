package entity

import (
	"fmt"
	"sort"
	"strings"
)

const (
	StateFormatCode = "code"
	StateFormatFull = "full"
)

// StateTable is an immutable lookup between 2-letter US state codes and full
// names. Constructed once and injected where needed.
type StateTable struct {
	codeToName map[string]string
	nameToCode map[string]string
}

func NewStateTable() *StateTable {
	codeToName := map[string]string{
		"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
		"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
		"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
		"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
		"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
		"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
		"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
		"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
		"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
		"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
		"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
		"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
		"WI": "Wisconsin", "WY": "Wyoming", "DC": "District of Columbia",
	}
	nameToCode := make(map[string]string, len(codeToName))
	for code, name := range codeToName {
		nameToCode[strings.ToLower(name)] = code
	}
	// DC shows up in a few extra spellings.
	for _, v := range []string{"washington dc", "washington d.c.", "d.c."} {
		nameToCode[v] = "DC"
	}
	return &StateTable{codeToName: codeToName, nameToCode: nameToCode}
}

// Normalize accepts a 2-letter code or a full name and returns the code.
func (t *StateTable) Normalize(state string) (string, error) {
	state = strings.TrimSpace(state)
	upper := strings.ToUpper(state)
	if _, ok := t.codeToName[upper]; ok {
		return upper, nil
	}
	if code, ok := t.nameToCode[strings.ToLower(state)]; ok {
		return code, nil
	}
	codes := make([]string, 0, len(t.codeToName))
	for code := range t.codeToName {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return "", fmt.Errorf("invalid state %q: must be a 2-letter code (%s) or a full state name",
		state, strings.Join(codes, ", "))
}

// Format renders a normalized code in the broker's expected representation.
func (t *StateTable) Format(code, format string) (string, error) {
	switch format {
	case StateFormatCode:
		return code, nil
	case StateFormatFull:
		name, ok := t.codeToName[code]
		if !ok {
			return "", fmt.Errorf("unknown state code %q", code)
		}
		return name, nil
	}
	return "", fmt.Errorf("invalid state format %q: must be %q or %q", format, StateFormatCode, StateFormatFull)
}
