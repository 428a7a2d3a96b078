package entity

import "testing"

func fullConfig() *BrokerConfig {
	return &BrokerConfig{
		Name: "Acme Data",
		Type: BrokerTypeWebForm,
		URL:  "https://acme.example/privacy",
		FormConfig: &FormConfig{
			FieldMappings: map[string]string{"fname": "first_name"},
			Submission: &SubmissionSpec{
				Method:   "POST",
				Endpoint: "https://acme.example/api/requests",
			},
		},
	}
}

func TestIsMinimal_FullConfig(t *testing.T) {
	if fullConfig().IsMinimal() {
		t.Error("config with method, endpoint and mappings should not be minimal")
	}
}

func TestIsMinimal_MissingPieces(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*BrokerConfig)
	}{
		{"nil form config", func(c *BrokerConfig) { c.FormConfig = nil }},
		{"nil submission", func(c *BrokerConfig) { c.FormConfig.Submission = nil }},
		{"empty method", func(c *BrokerConfig) { c.FormConfig.Submission.Method = "" }},
		{"empty endpoint", func(c *BrokerConfig) { c.FormConfig.Submission.Endpoint = "" }},
		{"no field mappings", func(c *BrokerConfig) { c.FormConfig.FieldMappings = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := fullConfig()
			tc.mutate(cfg)
			if !cfg.IsMinimal() {
				t.Errorf("config with %s should be minimal", tc.name)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := fullConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	noName := fullConfig()
	noName.Name = "  "
	if err := noName.Validate(); err == nil {
		t.Error("expected error for missing name")
	}

	badType := fullConfig()
	badType.Type = "fax_only"
	if err := badType.Validate(); err == nil {
		t.Error("expected error for unknown type")
	}

	emailNoAddr := &BrokerConfig{Name: "MailBroker", Type: BrokerTypeEmailOnly}
	if err := emailNoAddr.Validate(); err == nil {
		t.Error("expected error for email_only broker without privacy_email")
	}

	emailOK := &BrokerConfig{Name: "MailBroker", Type: BrokerTypeEmailOnly, PrivacyEmail: "privacy@broker.example"}
	if err := emailOK.Validate(); err != nil {
		t.Errorf("valid email_only config rejected: %v", err)
	}
}

func TestNormalizedName(t *testing.T) {
	cfg := &BrokerConfig{Name: "Acme Data, Inc."}
	if got := cfg.NormalizedName(); got != "acme_data__inc_" {
		t.Errorf("NormalizedName = %q", got)
	}
}

func TestStateFormat_Default(t *testing.T) {
	cfg := &BrokerConfig{Name: "x"}
	if got := cfg.StateFormat(); got != StateFormatFull {
		t.Errorf("default state format = %q, want %q", got, StateFormatFull)
	}
	cfg.FormConfig = &FormConfig{StateFormat: StateFormatCode}
	if got := cfg.StateFormat(); got != StateFormatCode {
		t.Errorf("state format = %q, want %q", got, StateFormatCode)
	}
}
