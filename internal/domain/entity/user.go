package entity

import (
	"fmt"
	"sort"
	"time"
)

// UserData maps semantic keys (first_name, last_name, email, date_of_birth,
// address, city, state, zip_code) to validated string values. Built once per
// broker per run; the state value is pre-formatted to the broker's expected
// representation before any fill or submission happens.
type UserData map[string]string

// Keys returns the key names in stable order. This is what the AI mapper puts
// in its prompt; values never leave the process through it.
func (u UserData) Keys() []string {
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UserProfile is the raw command-line-level user input, before per-broker
// formatting.
type UserProfile struct {
	FirstName   string
	LastName    string
	Email       string
	DateOfBirth string
	Address     string
	City        string
	State       string
	ZipCode     string
}

func (p UserProfile) FullName() string {
	return p.FirstName + " " + p.LastName
}

// PrepareUserData builds the per-broker UserData: optional fields are dropped
// when empty and the state is rendered in the broker's format.
func PrepareUserData(cfg *BrokerConfig, profile UserProfile, states *StateTable) (UserData, error) {
	data := UserData{
		"first_name": profile.FirstName,
		"last_name":  profile.LastName,
		"email":      profile.Email,
	}
	optional := map[string]string{
		"date_of_birth": profile.DateOfBirth,
		"address":       profile.Address,
		"city":          profile.City,
		"zip_code":      profile.ZipCode,
	}
	for k, v := range optional {
		if v != "" {
			data[k] = v
		}
	}
	if profile.State != "" {
		code, err := states.Normalize(profile.State)
		if err != nil {
			return nil, err
		}
		formatted, err := states.Format(code, cfg.StateFormat())
		if err != nil {
			return nil, err
		}
		data["state"] = formatted
	}
	return data, nil
}

// ValidateDateOfBirth checks MM/DD/YYYY format and rejects future dates.
func ValidateDateOfBirth(dob string) (string, error) {
	t, err := time.Parse("01/02/2006", dob)
	if err != nil {
		return "", fmt.Errorf("date of birth must be in MM/DD/YYYY format")
	}
	if t.After(time.Now()) {
		return "", fmt.Errorf("date of birth cannot be in the future")
	}
	return t.Format("01/02/2006"), nil
}
