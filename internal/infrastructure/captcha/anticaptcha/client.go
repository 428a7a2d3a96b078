package anticaptcha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"deletion-agent/internal/application/port/output"
	"deletion-agent/internal/domain/entity"
)

var _ output.CaptchaPort = (*Client)(nil)

const defaultBaseURL = "https://api.anti-captcha.com"

// Client solves reCAPTCHA v2 through the anti-captcha proxyless API:
// createTask, then getTaskResult until the solution is ready. One Solve call
// is one attempt; callers never retry a failed solve automatically.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	solveTimeout time.Duration
	logger       output.LoggerPort
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

func WithSolveTimeout(d time.Duration) Option {
	return func(c *Client) { c.solveTimeout = d }
}

func NewClient(apiKey string, log output.LoggerPort, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: 5 * time.Second,
		solveTimeout: 3 * time.Minute,
		logger:       log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createTaskRequest struct {
	ClientKey string `json:"clientKey"`
	Task      struct {
		Type       string `json:"type"`
		WebsiteURL string `json:"websiteURL"`
		WebsiteKey string `json:"websiteKey"`
	} `json:"task"`
}

type createTaskResponse struct {
	ErrorID          int    `json:"errorId"`
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
	TaskID           int64  `json:"taskId"`
}

type taskResultResponse struct {
	ErrorID          int    `json:"errorId"`
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
	Status           string `json:"status"`
	Solution         struct {
		GRecaptchaResponse string `json:"gRecaptchaResponse"`
	} `json:"solution"`
}

func (c *Client) Solve(ctx context.Context, siteURL, siteKey string) (string, error) {
	if siteURL == "" || siteKey == "" {
		return "", &entity.CaptchaError{Message: "both site URL and site key are required"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.solveTimeout)
	defer cancel()

	taskID, err := c.createTask(ctx, siteURL, siteKey)
	if err != nil {
		return "", err
	}
	c.logger.Info("CAPTCHA task created", "taskId", taskID, "site", siteURL)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", &entity.CaptchaError{Message: "captcha solve timed out", Cause: ctx.Err()}
		case <-ticker.C:
		}

		var result taskResultResponse
		if err := c.post(ctx, "/getTaskResult", map[string]any{
			"clientKey": c.apiKey,
			"taskId":    taskID,
		}, &result); err != nil {
			return "", err
		}
		if result.ErrorID != 0 {
			return "", &entity.CaptchaError{
				Message: fmt.Sprintf("solver error %s: %s", result.ErrorCode, result.ErrorDescription),
			}
		}
		if result.Status == "ready" {
			if result.Solution.GRecaptchaResponse == "" {
				return "", &entity.CaptchaError{Message: "solver returned an empty solution"}
			}
			c.logger.Info("CAPTCHA solved", "taskId", taskID)
			return result.Solution.GRecaptchaResponse, nil
		}
		c.logger.Debug("CAPTCHA still processing", "taskId", taskID)
	}
}

func (c *Client) createTask(ctx context.Context, siteURL, siteKey string) (int64, error) {
	req := createTaskRequest{ClientKey: c.apiKey}
	req.Task.Type = "RecaptchaV2TaskProxyless"
	req.Task.WebsiteURL = siteURL
	req.Task.WebsiteKey = siteKey

	var resp createTaskResponse
	if err := c.post(ctx, "/createTask", req, &resp); err != nil {
		return 0, err
	}
	if resp.ErrorID != 0 {
		return 0, &entity.CaptchaError{
			Message: fmt.Sprintf("task creation failed %s: %s", resp.ErrorCode, resp.ErrorDescription),
		}
	}
	return resp.TaskID, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &entity.CaptchaError{Message: "marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &entity.CaptchaError{Message: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &entity.CaptchaError{Message: "solver unreachable", Cause: err}
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &entity.CaptchaError{Message: "decode solver response", Cause: err}
	}
	return nil
}
