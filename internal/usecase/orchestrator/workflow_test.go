package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"deletion-agent/internal/application/port/output"
	"deletion-agent/internal/domain/entity"
	"deletion-agent/internal/infrastructure/logger"
)

type stubConfigStore struct {
	configs []*entity.BrokerConfig
	loadErr error
	saved   []*entity.BrokerConfig
}

func (s *stubConfigStore) LoadAll() ([]*entity.BrokerConfig, error) { return s.configs, s.loadErr }

func (s *stubConfigStore) SaveGenerated(cfg *entity.BrokerConfig) (string, error) {
	s.saved = append(s.saved, cfg)
	return "configs/" + cfg.NormalizedName() + ".json", nil
}

type stubBrowser struct {
	analysis  *entity.FormAnalysis
	filled    map[string]string
	submitted bool
	url       string
	navErr    error
}

func (b *stubBrowser) Navigate(ctx context.Context, url string) error {
	b.url = url
	return b.navErr
}

func (b *stubBrowser) AnalyzeForm(ctx context.Context) (*entity.FormAnalysis, error) {
	return b.analysis, nil
}

func (b *stubBrowser) FillField(ctx context.Context, fieldID, value string, kind entity.FieldKind) bool {
	if b.filled == nil {
		b.filled = map[string]string{}
	}
	b.filled[fieldID] = value
	return true
}

func (b *stubBrowser) SubmitForm(ctx context.Context, control *entity.SubmitControl) error {
	b.submitted = true
	return nil
}

func (b *stubBrowser) HarvestAuth(ctx context.Context) (*entity.AuthBundle, error) {
	return &entity.AuthBundle{JWTToken: "eyJx.eyJy.z", JWTSource: "script"}, nil
}

func (b *stubBrowser) Screenshot(ctx context.Context) ([]byte, error) { return []byte{0xff}, nil }
func (b *stubBrowser) CurrentURL() string                             { return b.url }
func (b *stubBrowser) Close()                                         {}

type stubMapper struct {
	mapping entity.FieldMapping
	err     error
	calls   int
}

func (m *stubMapper) Map(ctx context.Context, analysis *entity.FormAnalysis, userData entity.UserData, brokerName string) (entity.FieldMapping, error) {
	m.calls++
	return m.mapping, m.err
}

type stubSubmitter struct {
	result *entity.SubmissionResult
	err    error
	calls  int
	spec   *entity.SubmissionSpec
	data   entity.UserData
}

func (s *stubSubmitter) Submit(ctx context.Context, spec *entity.SubmissionSpec, userData entity.UserData, auth *entity.AuthBundle, refererURL string) (*entity.SubmissionResult, error) {
	s.calls++
	s.spec = spec
	s.data = userData
	return s.result, s.err
}

type stubConfirmer struct {
	result *entity.ConfirmationResult
	calls  int
}

func (c *stubConfirmer) Poll(ctx context.Context, userEmail string, domains []string, submittedAt time.Time, keywords []string) (*entity.ConfirmationResult, error) {
	c.calls++
	if c.result == nil {
		return &entity.ConfirmationResult{}, nil
	}
	return c.result, nil
}

type stubEmailer struct {
	calls int
	err   error
}

func (e *stubEmailer) Send(ctx context.Context, cfg *entity.BrokerConfig, profile *entity.UserProfile) error {
	e.calls++
	return e.err
}

type stubCaptcha struct {
	token string
	calls int
}

func (c *stubCaptcha) Solve(ctx context.Context, siteURL, siteKey string) (string, error) {
	c.calls++
	return c.token, nil
}

type stubInteraction struct {
	approve    bool
	shown      int
	confirmCnt int
}

func (i *stubInteraction) ShowMapping(ctx context.Context, brokerName string, mapping entity.FieldMapping, report *entity.FillReport) {
	i.shown++
}

func (i *stubInteraction) ConfirmSubmission(ctx context.Context, brokerName string) (bool, error) {
	i.confirmCnt++
	return i.approve, nil
}

type fixture struct {
	store       *stubConfigStore
	browser     *stubBrowser
	mapper      *stubMapper
	submitter   *stubSubmitter
	confirmer   *stubConfirmer
	emailer     *stubEmailer
	captcha     *stubCaptcha
	interaction *stubInteraction
	uc          *UseCase
}

func newFixture(configs ...*entity.BrokerConfig) *fixture {
	f := &fixture{
		store: &stubConfigStore{configs: configs},
		browser: &stubBrowser{analysis: &entity.FormAnalysis{
			Fields: []entity.FormField{
				{ID: "fname", Kind: entity.FieldKindText},
				{ID: "email", Kind: entity.FieldKindText},
			},
			SubmitButton: &entity.SubmitControl{Tier: entity.SubmitTierExplicit, Selector: "[type=submit]"},
		}},
		mapper:      &stubMapper{},
		submitter:   &stubSubmitter{result: &entity.SubmissionResult{Success: true, StatusCode: 200, SubmittedAt: time.Now()}},
		confirmer:   &stubConfirmer{},
		emailer:     &stubEmailer{},
		captcha:     &stubCaptcha{token: "captcha-token"},
		interaction: &stubInteraction{approve: true},
	}
	f.uc = New(
		f.store,
		func(ctx context.Context) (output.BrowserPort, error) { return f.browser, nil },
		f.mapper,
		f.submitter,
		f.confirmer,
		f.emailer,
		f.captcha,
		f.interaction,
		nil,
		entity.NewStateTable(),
		logger.NewNop(),
	)
	return f
}

func webFormConfig() *entity.BrokerConfig {
	return &entity.BrokerConfig{
		Name: "Acme Data",
		Type: entity.BrokerTypeWebForm,
		URL:  "https://acme.example/privacy",
		FormConfig: &entity.FormConfig{
			FieldMappings: map[string]string{"fname": "first_name", "email": "email"},
			Submission: &entity.SubmissionSpec{
				Method:   "POST",
				Endpoint: "https://acme.example/api/requests",
			},
		},
	}
}

func minimalConfig() *entity.BrokerConfig {
	return &entity.BrokerConfig{
		Name: "Sparse Broker",
		Type: entity.BrokerTypeWebForm,
		URL:  "https://sparse.example/privacy",
	}
}

var testProfile = entity.UserProfile{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}

func TestProcessAll_DeterministicPath(t *testing.T) {
	f := newFixture(webFormConfig())

	summary, err := f.uc.ProcessAll(context.Background(), testProfile, "")
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}

	if summary.Succeeded() != 1 {
		t.Fatalf("succeeded = %d, results: %+v", summary.Succeeded(), summary.Results)
	}
	if f.mapper.calls != 0 {
		t.Error("fully-configured broker must not invoke the model")
	}
	if f.submitter.calls != 1 {
		t.Errorf("submitter called %d times, want 1", f.submitter.calls)
	}
	if f.browser.filled["fname"] != "Jane" || f.browser.filled["email"] != "jane@example.com" {
		t.Errorf("form not filled from config mappings: %v", f.browser.filled)
	}
	if f.interaction.confirmCnt != 0 {
		t.Error("deterministic path must not ask for human confirmation")
	}
}

func TestProcessAll_AIFallbackPath(t *testing.T) {
	f := newFixture(minimalConfig())
	f.mapper.mapping = entity.FieldMapping{
		"fname": {Value: "Jane", Kind: entity.FieldKindText, UserKey: "first_name"},
	}

	summary, err := f.uc.ProcessAll(context.Background(), testProfile, "")
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}

	if summary.Succeeded() != 1 {
		t.Fatalf("succeeded = %d, results: %+v", summary.Succeeded(), summary.Results)
	}
	if f.mapper.calls != 1 {
		t.Errorf("mapper called %d times, want 1", f.mapper.calls)
	}
	if f.interaction.shown != 1 || f.interaction.confirmCnt != 1 {
		t.Error("AI path must show the mapping and ask for confirmation")
	}
	if !f.browser.submitted {
		t.Error("AI path submits through the page")
	}
	if f.submitter.calls != 0 {
		t.Error("AI path must not use the HTTP submitter")
	}

	if len(f.store.saved) != 1 {
		t.Fatalf("generated config not persisted")
	}
	saved := f.store.saved[0]
	if saved.IsMinimal() {
		t.Error("generated config must be complete enough for the deterministic path")
	}
	if saved.FormConfig.Submission.Method != entity.SubmitMethodBrowser {
		t.Errorf("generated method = %q", saved.FormConfig.Submission.Method)
	}
	if saved.FormConfig.FieldMappings["fname"] != "first_name" {
		t.Errorf("generated mappings = %v", saved.FormConfig.FieldMappings)
	}
	if saved.Generated == nil || !saved.Generated.AIGenerated {
		t.Error("generated config missing provenance")
	}
}

func TestProcessAll_DeclinedSubmission(t *testing.T) {
	f := newFixture(minimalConfig())
	f.mapper.mapping = entity.FieldMapping{
		"fname": {Value: "Jane", Kind: entity.FieldKindText, UserKey: "first_name"},
	}
	f.interaction.approve = false

	summary, err := f.uc.ProcessAll(context.Background(), testProfile, "")
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}

	if summary.Succeeded() != 0 {
		t.Error("declined submission must not count as success")
	}
	if f.browser.submitted {
		t.Error("declined submission must not touch the submit control")
	}
	if len(f.store.saved) != 0 {
		t.Error("declined run must not persist a generated config")
	}
}

func TestProcessAll_BrokerFailureDoesNotAbortBatch(t *testing.T) {
	bad := webFormConfig()
	bad.Name = "Broken Broker"
	good := webFormConfig()

	f := newFixture(bad, good)
	failing := &stubBrowser{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	first := true
	f.uc.newBrowser = func(ctx context.Context) (output.BrowserPort, error) {
		if first {
			first = false
			return failing, nil
		}
		return f.browser, nil
	}

	summary, err := f.uc.ProcessAll(context.Background(), testProfile, "")
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}

	if summary.Processed() != 2 {
		t.Fatalf("processed = %d, want 2", summary.Processed())
	}
	if summary.Succeeded() != 1 || summary.FailedCount() != 1 {
		t.Errorf("succeeded = %d, failed = %d", summary.Succeeded(), summary.FailedCount())
	}
}

func TestProcessAll_EmailOnlyBroker(t *testing.T) {
	f := newFixture(&entity.BrokerConfig{
		Name:         "Mail Broker",
		Type:         entity.BrokerTypeEmailOnly,
		PrivacyEmail: "privacy@mail.example",
		EmailDomains: []string{"mail.example"},
	})
	f.confirmer.result = &entity.ConfirmationResult{Confirmed: true, Subject: "Request received"}

	summary, err := f.uc.ProcessAll(context.Background(), testProfile, "")
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}

	if f.emailer.calls != 1 {
		t.Errorf("emailer called %d times, want 1", f.emailer.calls)
	}
	if f.confirmer.calls != 1 {
		t.Errorf("confirmer called %d times, want 1", f.confirmer.calls)
	}
	if summary.Succeeded() != 1 || !summary.Results[0].Confirmed {
		t.Errorf("result = %+v", summary.Results[0])
	}
}

func TestProcessAll_CaptchaTokenInjected(t *testing.T) {
	cfg := webFormConfig()
	cfg.FormConfig.Submission.RequiresCaptcha = true
	cfg.FormConfig.CaptchaConfig = &entity.CaptchaConfig{WebsiteKey: "site-key"}

	f := newFixture(cfg)
	summary, err := f.uc.ProcessAll(context.Background(), testProfile, "")
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}

	if summary.Succeeded() != 1 {
		t.Fatalf("results: %+v", summary.Results)
	}
	if f.captcha.calls != 1 {
		t.Errorf("captcha solved %d times, want 1", f.captcha.calls)
	}
	if f.submitter.data["captcha_response"] != "captcha-token" {
		t.Errorf("captcha token missing from user data: %v", f.submitter.data)
	}
}

func TestProcessAll_BrokerFilter(t *testing.T) {
	a := webFormConfig()
	b := webFormConfig()
	b.Name = "Other Broker"

	f := newFixture(a, b)
	summary, err := f.uc.ProcessAll(context.Background(), testProfile, "acme data")
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}
	if summary.Processed() != 1 || summary.Results[0].BrokerName != "Acme Data" {
		t.Errorf("filter selected: %+v", summary.Results)
	}

	_, err = f.uc.ProcessAll(context.Background(), testProfile, "no such broker")
	var confErr *entity.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("unmatched filter error = %T (%v), want *ConfigurationError", err, err)
	}
}

func TestProcessAll_HTTPRejectionFailsBroker(t *testing.T) {
	f := newFixture(webFormConfig())
	f.submitter.result = &entity.SubmissionResult{Success: false, StatusCode: 403, Body: `{"error":"denied"}`}

	summary, err := f.uc.ProcessAll(context.Background(), testProfile, "")
	if err != nil {
		t.Fatalf("ProcessAll failed: %v", err)
	}

	if summary.Succeeded() != 0 {
		t.Error("rejected submission counted as success")
	}
	var subErr *entity.SubmissionError
	if !errors.As(summary.Results[0].Err, &subErr) {
		t.Fatalf("result error = %T, want *SubmissionError", summary.Results[0].Err)
	}
	if subErr.StatusCode != 403 || subErr.Body != `{"error":"denied"}` {
		t.Errorf("submission error = %+v", subErr)
	}
	if len(summary.Recommendations) == 0 {
		t.Error("failed broker should contribute recommendations")
	}
}
