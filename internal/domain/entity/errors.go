package entity

import (
	"errors"
	"fmt"
	"strings"
)

// The error taxonomy below is matched with errors.As at the orchestrator
// boundary; no single broker's failure aborts the batch. Each type carries
// recovery suggestions that end up in the run summary.

// ConfigurationError covers missing or invalid broker configuration. It is
// the only error class that can abort the whole batch (directory-level
// problems, before any broker is attempted).
type ConfigurationError struct {
	BrokerName  string
	Message     string
	Suggestions []string
}

func (e *ConfigurationError) Error() string {
	return withBroker("configuration error", e.BrokerName, e.Message)
}

// FormAnalysisError means no fillable fields were found on the page.
type FormAnalysisError struct {
	BrokerName  string
	Message     string
	Suggestions []string
}

func (e *FormAnalysisError) Error() string {
	return withBroker("form analysis error", e.BrokerName, e.Message)
}

// AIFallbackError means the mapper exhausted its retry budget without a
// non-empty validated mapping, or the model was unreachable.
type AIFallbackError struct {
	BrokerName  string
	Message     string
	Attempts    int
	Suggestions []string
	Cause       error
}

func (e *AIFallbackError) Error() string {
	msg := e.Message
	if e.Attempts > 0 {
		msg = fmt.Sprintf("%s (after %d attempts)", msg, e.Attempts)
	}
	return withBroker("ai fallback error", e.BrokerName, msg)
}

func (e *AIFallbackError) Unwrap() error { return e.Cause }

// CaptchaError means the solver returned no solution. Never retried
// automatically; one attempt per submission cycle.
type CaptchaError struct {
	BrokerName  string
	Message     string
	Suggestions []string
	Cause       error
}

func (e *CaptchaError) Error() string {
	return withBroker("captcha error", e.BrokerName, e.Message)
}

func (e *CaptchaError) Unwrap() error { return e.Cause }

// SubmissionError preserves the HTTP status and raw body of a failed
// submission for diagnosis.
type SubmissionError struct {
	BrokerName  string
	Message     string
	StatusCode  int
	Body        string
	Suggestions []string
	Cause       error
}

func (e *SubmissionError) Error() string {
	if e.Message != "" {
		return withBroker("submission error", e.BrokerName, e.Message)
	}
	if e.StatusCode != 0 {
		return withBroker("submission error", e.BrokerName,
			fmt.Sprintf("endpoint returned status %d", e.StatusCode))
	}
	if e.Cause != nil {
		return withBroker("submission error", e.BrokerName, e.Cause.Error())
	}
	return withBroker("submission error", e.BrokerName, "submission failed")
}

func (e *SubmissionError) Unwrap() error { return e.Cause }

// SuggestionsOf extracts the recovery suggestions carried by any error in the
// taxonomy, for the batch summary.
func SuggestionsOf(err error) []string {
	var (
		confErr    *ConfigurationError
		formErr    *FormAnalysisError
		aiErr      *AIFallbackError
		captchaErr *CaptchaError
		subErr     *SubmissionError
	)
	switch {
	case errors.As(err, &confErr):
		return confErr.Suggestions
	case errors.As(err, &formErr):
		return formErr.Suggestions
	case errors.As(err, &aiErr):
		return aiErr.Suggestions
	case errors.As(err, &captchaErr):
		return captchaErr.Suggestions
	case errors.As(err, &subErr):
		return subErr.Suggestions
	}
	return nil
}

func withBroker(class, broker, msg string) string {
	parts := []string{class}
	if broker != "" {
		parts = append(parts, broker)
	}
	parts = append(parts, msg)
	return strings.Join(parts, ": ")
}
