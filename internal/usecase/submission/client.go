package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"deletion-agent/internal/application/port/output"
	"deletion-agent/internal/domain/entity"
)

// Client renders the configured payload template, attaches harvested and
// solved credentials, issues exactly one POST and classifies the response.
// It never retries: broker endpoints are not assumed safe for blind retry.
type Client struct {
	httpClient *http.Client
	logger     output.LoggerPort
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.logger.Info("Submission HTTP request", "method", req.Method, "url", req.URL.String(),
		"headers", len(req.Header))
	resp, err := t.base.RoundTrip(req)
	if resp != nil {
		t.logger.Info("Submission HTTP response", "status", resp.StatusCode)
	}
	return resp, err
}

func NewClient(log output.LoggerPort) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &loggingTransport{base: http.DefaultTransport, logger: log},
			Timeout:   60 * time.Second,
		},
		logger: log,
	}
}

// Submit posts the rendered payload to the configured endpoint. SubmittedAt
// is recorded just before the request goes out; it is the lower bound for the
// confirmation search.
func (c *Client) Submit(ctx context.Context, spec *entity.SubmissionSpec, userData entity.UserData, auth *entity.AuthBundle, refererURL string) (*entity.SubmissionResult, error) {
	payload, ok := SubstituteTemplate(spec.PayloadTemplate, userData).(map[string]any)
	if !ok {
		payload = map[string]any{}
	}

	headers := make(map[string]string, len(spec.Headers)+4)
	for k, v := range spec.Headers {
		headers[k] = v
	}
	headers["referer"] = refererURL

	if auth.HasJWT() {
		headers["Authorization"] = "Bearer " + auth.JWTToken
		payload["jwtToken"] = auth.JWTToken
		c.logger.Info("JWT token attached to submission", "source", auth.JWTSource)
	}
	if auth != nil && auth.CSRFToken != "" {
		headers["X-CSRF-Token"] = auth.CSRFToken
	}
	if auth != nil && auth.Cookies != "" {
		headers["Cookie"] = auth.Cookies
	}
	// Hidden-input values the harvester captured ride along in the payload,
	// but never overwrite anything the template already set.
	if auth != nil {
		for key, value := range auth.Captured {
			if name, ok := strings.CutPrefix(key, "form_"); ok {
				if _, exists := payload[name]; !exists {
					payload[name] = value
				}
			}
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &entity.SubmissionError{Cause: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, spec.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &entity.SubmissionError{Cause: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	submittedAt := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &entity.SubmissionError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	result := &entity.SubmissionResult{
		StatusCode:  resp.StatusCode,
		Body:        string(respBody),
		SubmittedAt: submittedAt,
	}
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		result.Success = true
		var parsed map[string]any
		if json.Unmarshal(respBody, &parsed) == nil {
			result.JSON = parsed
		}
		return result, nil
	}

	// Failure keeps the raw body verbatim for diagnosis.
	c.logger.Error("Submission rejected", "status", resp.StatusCode, "body", truncate(result.Body, 500))
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
