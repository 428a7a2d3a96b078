package entity

import (
	"fmt"
	"strings"
	"time"
)

type BrokerType string

const (
	BrokerTypeWebForm   BrokerType = "web_form"
	BrokerTypeEmailOnly BrokerType = "email_only"
)

// SubmitMethodBrowser marks configs whose submission happens through the page's
// own submit control instead of a direct HTTP POST. Generated configs use it.
const SubmitMethodBrowser = "browser_submit"

// BrokerConfig is one broker's declarative configuration, loaded from a JSON
// file and immutable for the duration of a run.
type BrokerConfig struct {
	Name                 string      `json:"name"`
	Type                 BrokerType  `json:"type"`
	URL                  string      `json:"url,omitempty"`
	PrivacyEmail         string      `json:"privacy_email,omitempty"`
	EmailDomains         []string    `json:"email_domains,omitempty"`
	FormConfig           *FormConfig `json:"form_config,omitempty"`
	ConfirmationKeywords []string    `json:"confirmation_keywords,omitempty"`
	Generated            *Provenance `json:"_generated,omitempty"`
}

type FormConfig struct {
	StateFormat   string            `json:"state_format,omitempty"` // "code" or "full"
	FieldMappings map[string]string `json:"field_mappings,omitempty"`
	Submission    *SubmissionSpec   `json:"submission,omitempty"`
	CaptchaConfig *CaptchaConfig    `json:"captcha_config,omitempty"`
}

type SubmissionSpec struct {
	Method          string            `json:"method,omitempty"`
	Endpoint        string            `json:"endpoint,omitempty"`
	RequiresCaptcha bool              `json:"requires_captcha,omitempty"`
	RequiresJWT     bool              `json:"requires_jwt,omitempty"`
	PayloadTemplate map[string]any    `json:"payload_template,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
}

type CaptchaConfig struct {
	WebsiteKey string `json:"website_key"`
}

// Provenance marks a config that was generated from a successful AI-fallback
// run rather than authored by hand.
type Provenance struct {
	Timestamp    time.Time     `json:"timestamp"`
	AIGenerated  bool          `json:"ai_generated"`
	FormAnalysis *FormAnalysis `json:"form_analysis,omitempty"`
	Note         string        `json:"note,omitempty"`
}

// IsMinimal reports whether the config lacks the pieces the deterministic path
// needs: a submission method and endpoint, and a non-empty field mapping.
// Minimal configs are routed to the AI fallback.
func (c *BrokerConfig) IsMinimal() bool {
	if c.FormConfig == nil {
		return true
	}
	sub := c.FormConfig.Submission
	if sub == nil || sub.Method == "" || sub.Endpoint == "" {
		return true
	}
	if len(c.FormConfig.FieldMappings) == 0 {
		return true
	}
	return false
}

func (c *BrokerConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ConfigurationError{
			Message: "broker config is missing required field: name",
			Suggestions: []string{
				`add a "name" entry to the config file`,
			},
		}
	}
	switch c.Type {
	case BrokerTypeWebForm:
	case BrokerTypeEmailOnly:
		if strings.TrimSpace(c.PrivacyEmail) == "" {
			return &ConfigurationError{
				BrokerName: c.Name,
				Message:    "email_only broker is missing required field: privacy_email",
				Suggestions: []string{
					`add a "privacy_email" entry with the broker's privacy contact address`,
				},
			}
		}
	default:
		return &ConfigurationError{
			BrokerName: c.Name,
			Message:    fmt.Sprintf("unknown broker type %q", c.Type),
			Suggestions: []string{
				`set "type" to "web_form" or "email_only"`,
			},
		}
	}
	return nil
}

// NormalizedName is the broker name made safe for filenames.
func (c *BrokerConfig) NormalizedName() string {
	name := strings.ToLower(strings.TrimSpace(c.Name))
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, name)
}

// StateFormat returns the broker's expected state representation, defaulting
// to full names.
func (c *BrokerConfig) StateFormat() string {
	if c.FormConfig != nil && c.FormConfig.StateFormat != "" {
		return c.FormConfig.StateFormat
	}
	return StateFormatFull
}
