// Package genai is a small client for the Gemini generateContent REST endpoint.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eduattend-api/pkg/config"
)

var (
	ErrNotConfigured = errors.New("genai: api key not configured")
	ErrEmptyResponse = errors.New("genai: empty response")
	ErrMalformed     = errors.New("genai: response is not valid JSON")
)

// StatusError is a non-2xx answer from the generation service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("genai: status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying could help.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Generator produces a JSON document for a prompt and decodes it into out.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, out interface{}) error
}

type Client struct {
	http        *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxRetries  int
	backoff     time.Duration
	logger      *zap.Logger
	sleep       func(context.Context, time.Duration) error
}

// NewClient builds a client from cfg. hc may be nil.
func NewClient(cfg config.AIConfig, hc *http.Client, logger *zap.Logger) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		http:        hc,
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxRetries:  maxRetries,
		backoff:     backoff,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateJSON sends prompt and decodes the model's JSON answer into out.
// Transient failures are retried with exponential backoff until ctx ends.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, out interface{}) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: c.temperature, ResponseMimeType: "application/json"},
	})
	if err != nil {
		return fmt.Errorf("genai: encode request: %w", err)
	}

	var text string
	for attempt := 0; ; attempt++ {
		text, err = c.call(ctx, body)
		if err == nil || attempt >= c.maxRetries || !retryable(ctx, err) {
			break
		}
		wait := c.backoff << attempt
		c.logger.Warn("generation attempt failed, retrying",
			zap.Int("attempt", attempt+1), zap.Duration("backoff", wait), zap.Error(err))
		if serr := c.sleep(ctx, wait); serr != nil {
			return serr
		}
	}
	if err != nil {
		return err
	}

	raw, ok := extractJSON(text)
	if !ok {
		return ErrMalformed
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, body []byte) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("genai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var decoded generateResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	// Decoding problems will not fix themselves.
	if errors.Is(err, ErrMalformed) || errors.Is(err, ErrEmptyResponse) {
		return false
	}
	return true
}

// extractJSON trims markdown fences or prose around the outermost object.
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
