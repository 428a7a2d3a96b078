package orchestrator

import (
	"context"
	"fmt"
	"time"

	"deletion-agent/internal/application/port/output"
	"deletion-agent/internal/domain/entity"
)

// processBroker walks one broker through the state machine. It always returns
// a result; errors are folded in, never propagated, so the batch survives any
// single broker.
func (uc *UseCase) processBroker(ctx context.Context, cfg *entity.BrokerConfig, profile entity.UserProfile) entity.ProcessingResult {
	ctx, cancel := context.WithTimeout(ctx, brokerTimeout)
	defer cancel()

	log := uc.logger.WithField("broker", cfg.Name)
	log.Info("Processing broker", "type", string(cfg.Type))

	userData, err := entity.PrepareUserData(cfg, profile, uc.states)
	if err != nil {
		return failed(cfg, entity.StateLoaded, err)
	}

	if cfg.Type == entity.BrokerTypeEmailOnly {
		return uc.processEmailOnly(ctx, cfg, profile)
	}

	browser, err := uc.newBrowser(ctx)
	if err != nil {
		return failed(cfg, entity.StateLoaded, fmt.Errorf("browser session: %w", err))
	}
	defer browser.Close()

	if err := browser.Navigate(ctx, cfg.URL); err != nil {
		return failed(cfg, entity.StateLoaded, fmt.Errorf("navigate to %s: %w", cfg.URL, err))
	}
	uc.capture(ctx, browser, cfg, "form_initial")

	analysis, err := browser.AnalyzeForm(ctx)
	if err != nil {
		uc.capture(ctx, browser, cfg, "form_error")
		return failed(cfg, entity.StateLoaded, err)
	}
	if len(analysis.Fields) == 0 {
		uc.capture(ctx, browser, cfg, "form_error")
		return failed(cfg, entity.StateLoaded, &entity.FormAnalysisError{
			BrokerName: cfg.Name,
			Message:    "no fillable fields found on the page",
			Suggestions: []string{
				"check that the URL points at the privacy request form itself",
				"the form may load behind a consent wall or additional navigation",
			},
		})
	}

	var (
		submittedAt time.Time
		state       entity.BrokerState
	)
	if cfg.IsMinimal() {
		state = entity.StateAIFallback
		submittedAt, err = uc.runAIFallback(ctx, browser, cfg, analysis, userData, log)
	} else {
		state = entity.StateDeterministic
		submittedAt, err = uc.runDeterministic(ctx, browser, cfg, analysis, userData, log)
	}
	if err != nil {
		uc.capture(ctx, browser, cfg, "form_error")
		return failed(cfg, state, err)
	}
	uc.capture(ctx, browser, cfg, "form_submitted")

	return uc.finish(ctx, cfg, profile, submittedAt, log)
}

func (uc *UseCase) processEmailOnly(ctx context.Context, cfg *entity.BrokerConfig, profile entity.UserProfile) entity.ProcessingResult {
	log := uc.logger.WithField("broker", cfg.Name)
	sentAt := time.Now()
	if err := uc.emailer.Send(ctx, cfg, &profile); err != nil {
		return failed(cfg, entity.StateLoaded, err)
	}
	return uc.finish(ctx, cfg, profile, sentAt, log)
}

// runDeterministic drives a fully-configured broker: fill from the config's
// field mappings, gather whatever credentials the submission spec demands,
// then submit.
func (uc *UseCase) runDeterministic(ctx context.Context, browser output.BrowserPort, cfg *entity.BrokerConfig, analysis *entity.FormAnalysis, userData entity.UserData, log output.LoggerPort) (time.Time, error) {
	log.Info("Using configured submission path")
	spec := cfg.FormConfig.Submission

	mapping := deterministicMapping(cfg, analysis, userData)
	report := uc.fillAll(ctx, browser, mapping)
	log.Info("Form filled", "filled", report.Filled, "failed", report.Failed)

	auth := &entity.AuthBundle{}
	if spec.RequiresJWT {
		harvested, err := browser.HarvestAuth(ctx)
		if err != nil {
			log.Warn("Auth harvest failed", "error", err)
		} else {
			auth = harvested
		}
		if !auth.HasJWT() {
			log.Warn("No JWT token found on page, submitting without Authorization header")
		}
	}

	if spec.RequiresCaptcha {
		token, err := uc.solveCaptcha(ctx, cfg)
		if err != nil {
			return time.Time{}, err
		}
		userData["captcha_response"] = token
	}

	if spec.Method == entity.SubmitMethodBrowser {
		if err := browser.SubmitForm(ctx, analysis.SubmitButton); err != nil {
			return time.Time{}, &entity.SubmissionError{BrokerName: cfg.Name, Cause: err}
		}
		return time.Now(), nil
	}

	result, err := uc.submitter.Submit(ctx, spec, userData, auth, browser.CurrentURL())
	if err != nil {
		return time.Time{}, err
	}
	if !result.Success {
		return time.Time{}, &entity.SubmissionError{
			BrokerName: cfg.Name,
			StatusCode: result.StatusCode,
			Body:       result.Body,
			Suggestions: []string{
				"the endpoint or payload template may be out of date; re-verify against the live form",
			},
		}
	}
	return result.SubmittedAt, nil
}

// runAIFallback maps the form with the model, fills it, and submits through
// the page itself, but only after a human signs off on the mapping. A
// successful run is persisted as a generated config so the next run takes the
// deterministic path.
func (uc *UseCase) runAIFallback(ctx context.Context, browser output.BrowserPort, cfg *entity.BrokerConfig, analysis *entity.FormAnalysis, userData entity.UserData, log output.LoggerPort) (time.Time, error) {
	log.Info("Config is minimal, falling back to AI form mapping")

	mapping, err := uc.mapper.Map(ctx, analysis, userData, cfg.Name)
	if err != nil {
		return time.Time{}, err
	}

	report := uc.fillAll(ctx, browser, mapping)
	log.Info("Form filled from AI mapping", "filled", report.Filled, "failed", report.Failed)
	uc.capture(ctx, browser, cfg, "ai_filled")

	uc.userInteraction.ShowMapping(ctx, cfg.Name, mapping, report)
	approved, err := uc.userInteraction.ConfirmSubmission(ctx, cfg.Name)
	if err != nil {
		return time.Time{}, err
	}
	if !approved {
		return time.Time{}, &entity.SubmissionError{
			BrokerName: cfg.Name,
			Message:    "submission declined by user",
			Suggestions: []string{
				"review the mapping, then rerun this broker",
			},
		}
	}

	if err := browser.SubmitForm(ctx, analysis.SubmitButton); err != nil {
		return time.Time{}, &entity.SubmissionError{BrokerName: cfg.Name, Cause: err}
	}
	submittedAt := time.Now()

	generated := generatedConfig(cfg, analysis, mapping, browser.CurrentURL())
	if path, err := uc.configStore.SaveGenerated(generated); err != nil {
		log.Warn("Could not persist generated config", "error", err)
	} else {
		log.Info("Generated config saved", "path", path)
	}

	return submittedAt, nil
}

// finish runs the confirmation wait, when the broker has known sender
// domains, and assembles the final result. An unconfirmed submission still
// counts as success.
func (uc *UseCase) finish(ctx context.Context, cfg *entity.BrokerConfig, profile entity.UserProfile, submittedAt time.Time, log output.LoggerPort) entity.ProcessingResult {
	result := entity.ProcessingResult{
		BrokerName: cfg.Name,
		State:      entity.StateDone,
		Success:    true,
		Message:    "request submitted",
	}

	if len(cfg.EmailDomains) == 0 {
		log.Info("Broker has no known sender domains, skipping confirmation wait")
		return result
	}

	confirmation, err := uc.confirmer.Poll(ctx, profile.Email, cfg.EmailDomains, submittedAt, cfg.ConfirmationKeywords)
	if err != nil {
		log.Warn("Confirmation wait aborted", "error", err)
		result.Message = "request submitted, confirmation wait aborted"
		return result
	}
	if confirmation.Confirmed {
		result.Confirmed = true
		result.Message = fmt.Sprintf("request confirmed: %s", confirmation.Subject)
	} else {
		result.Message = "request submitted, no confirmation email yet"
	}
	return result
}

func (uc *UseCase) fillAll(ctx context.Context, browser output.BrowserPort, mapping entity.FieldMapping) *entity.FillReport {
	report := &entity.FillReport{}
	for fieldID, entry := range mapping {
		ok := browser.FillField(ctx, fieldID, entry.Value, entry.Kind)
		report.Record(fieldID, ok)
	}
	return report
}

func (uc *UseCase) solveCaptcha(ctx context.Context, cfg *entity.BrokerConfig) (string, error) {
	cc := cfg.FormConfig.CaptchaConfig
	if cc == nil || cc.WebsiteKey == "" {
		return "", &entity.CaptchaError{
			BrokerName: cfg.Name,
			Message:    "submission requires a captcha but no website_key is configured",
			Suggestions: []string{
				`add "captcha_config": {"website_key": ...} to the form_config`,
			},
		}
	}
	return uc.captcha.Solve(ctx, cfg.URL, cc.WebsiteKey)
}

func (uc *UseCase) capture(ctx context.Context, browser output.BrowserPort, cfg *entity.BrokerConfig, milestone string) {
	if uc.screenshots == nil {
		return
	}
	data, err := browser.Screenshot(ctx)
	if err != nil {
		uc.logger.Debug("Screenshot failed", "broker", cfg.Name, "milestone", milestone, "error", err)
		return
	}
	name := fmt.Sprintf("%s_%s", cfg.NormalizedName(), milestone)
	if _, err := uc.screenshots.Save(name, data); err != nil {
		uc.logger.Debug("Screenshot save failed", "name", name, "error", err)
	}
}

// deterministicMapping resolves the config's field -> user-data-key table
// into concrete fill instructions. Keys absent from the prepared user data
// are skipped, field kinds come from the live analysis.
func deterministicMapping(cfg *entity.BrokerConfig, analysis *entity.FormAnalysis, userData entity.UserData) entity.FieldMapping {
	mapping := make(entity.FieldMapping, len(cfg.FormConfig.FieldMappings))
	for fieldID, userKey := range cfg.FormConfig.FieldMappings {
		value, ok := userData[userKey]
		if !ok {
			continue
		}
		kind := entity.FieldKindText
		if field, found := analysis.FieldByID(fieldID); found {
			kind = field.Kind
		}
		mapping[fieldID] = entity.MappingEntry{Value: value, Kind: kind, UserKey: userKey}
	}
	return mapping
}

// generatedConfig records a successful AI-fallback run as a reusable config.
// Submission happens through the page's own submit control, so the form URL
// doubles as the endpoint.
func generatedConfig(cfg *entity.BrokerConfig, analysis *entity.FormAnalysis, mapping entity.FieldMapping, formURL string) *entity.BrokerConfig {
	fieldMappings := make(map[string]string, len(mapping))
	for fieldID, entry := range mapping {
		fieldMappings[fieldID] = entry.UserKey
	}
	return &entity.BrokerConfig{
		Name:                 cfg.Name,
		Type:                 entity.BrokerTypeWebForm,
		URL:                  cfg.URL,
		EmailDomains:         cfg.EmailDomains,
		ConfirmationKeywords: cfg.ConfirmationKeywords,
		FormConfig: &entity.FormConfig{
			StateFormat:   cfg.StateFormat(),
			FieldMappings: fieldMappings,
			Submission: &entity.SubmissionSpec{
				Method:   entity.SubmitMethodBrowser,
				Endpoint: formURL,
			},
		},
		Generated: &entity.Provenance{
			Timestamp:    time.Now(),
			AIGenerated:  true,
			FormAnalysis: analysis,
			Note:         "generated from a user-approved AI mapping run",
		},
	}
}

// failed builds the terminal result for a broker that could not finish.
// State records how far it got before failing.
func failed(cfg *entity.BrokerConfig, state entity.BrokerState, err error) entity.ProcessingResult {
	return entity.ProcessingResult{
		BrokerName: cfg.Name,
		State:      state,
		Success:    false,
		Message:    err.Error(),
		Err:        err,
	}
}
