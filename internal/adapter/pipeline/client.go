// Package pipeline is the HTTP client for the word-generation submission
// endpoint. The generation pipeline itself is an opaque external producer;
// this client only starts runs.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/heartmarshall/wordgen/internal/domain"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 3
	submitPath        = "/requests"
)

// Client submits word requests to the generation backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
	maxRetries uint64
}

// NewClient creates a Client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, maxRetries int, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "pipeline"),
		maxRetries: uint64(maxRetries),
	}
}

type submitRequest struct {
	SourceWord     string `json:"source_word"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language"`
	UserID         string `json:"user_id,omitempty"`
}

type submitResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// Submit starts a generation run and returns the server-issued request id.
// Server errors (5xx) and transport failures are retried with exponential
// backoff; rate limiting (429) and client errors are surfaced immediately
// as *domain.SubmissionError, with errors.Is(err, domain.ErrRateLimited)
// holding for throttling responses.
func (c *Client) Submit(ctx context.Context, req domain.WordRequest) (string, error) {
	body, err := json.Marshal(submitRequest{
		SourceWord:     req.SourceWord,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
		UserID:         req.UserID,
	})
	if err != nil {
		return "", fmt.Errorf("pipeline: encode request: %w", err)
	}

	c.log.DebugContext(ctx, "submit word request",
		slog.String("source_word", req.SourceWord),
		slog.String("target_language", req.TargetLanguage),
	)

	var out submitResponse
	attempt := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("pipeline: create request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("pipeline: request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("pipeline: read body: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return backoff.Permanent(&domain.SubmissionError{
				StatusCode:  resp.StatusCode,
				Message:     responseMessage(respBody),
				RateLimited: true,
			})
		case resp.StatusCode >= 500:
			// Retryable.
			return &domain.SubmissionError{StatusCode: resp.StatusCode, Message: responseMessage(respBody)}
		case resp.StatusCode >= 300:
			return backoff.Permanent(&domain.SubmissionError{StatusCode: resp.StatusCode, Message: responseMessage(respBody)})
		}

		if err := json.Unmarshal(respBody, &out); err != nil {
			return backoff.Permanent(&domain.SubmissionError{Message: "malformed response", Err: err})
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.RetryNotify(attempt, policy, func(err error, wait time.Duration) {
		c.log.WarnContext(ctx, "submission retry",
			slog.String("error", err.Error()),
			slog.Duration("wait", wait),
		)
	}); err != nil {
		var se *domain.SubmissionError
		if errors.As(err, &se) {
			return "", se
		}
		return "", &domain.SubmissionError{Message: "submission failed", Err: err}
	}

	c.log.InfoContext(ctx, "word request submitted",
		slog.String("request_id", out.RequestID),
		slog.String("status", out.Status),
	)
	return out.RequestID, nil
}

// responseMessage extracts a human-readable message from an error body,
// falling back to the raw text.
func responseMessage(body []byte) string {
	var p struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &p); err == nil {
		if p.Message != "" {
			return p.Message
		}
		if p.Error != "" {
			return p.Error
		}
	}
	return strings.TrimSpace(string(body))
}
