package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/JoaoVlLeao/wpp-gemini-bot/configs"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/domain"
	"github.com/JoaoVlLeao/wpp-gemini-bot/internal/ports/output"

	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure GeminiClientAdapter implements the output port
var _ output.CompletionClient = (*GeminiClientAdapter)(nil)

// GeminiClientAdapter struct - Output adapter for the Gemini
// generateContent REST API. Single-shot completion only; no streaming.
type GeminiClientAdapter struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
}

// NewGeminiClientAdapter func - Creates new Gemini client adapter
func NewGeminiClientAdapter(config configs.Gemini) (*GeminiClientAdapter, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	model := config.Model
	if model == "" {
		model = "gemini-2.5-pro"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if config.Timeout <= 0 {
		timeout = 60 * time.Second
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	adapter := &GeminiClientAdapter{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     config.APIKey,
		model:      model,
		timeout:    timeout,
	}

	logrus.Infof("Gemini client adapter initialized with model: %s, timeout: %v", model, timeout)

	return adapter, nil
}

// Retry configuration constants
const (
	maxRetryAttempts  = 3
	initialDelay      = 1 * time.Second
	maxDelay          = 10 * time.Second
	backoffMultiplier = 2
)

// retryWithBackoff executes an operation with exponential backoff retry logic
func (a *GeminiClientAdapter) retryWithBackoff(ctx context.Context, operation func() (*http.Response, error)) (*http.Response, error) {
	var lastErr error
	delay := initialDelay

	for attempt := 1; attempt <= maxRetryAttempts; attempt++ {
		resp, err := operation()

		if err != nil {
			if !a.isTransientError(err, 0) {
				return nil, err
			}
			lastErr = err
			logrus.Warnf("Gemini request attempt %d/%d failed with error: %v, retrying in %v", attempt, maxRetryAttempts, err, delay)
		} else if resp != nil {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}

			// Don't retry on 4xx client errors
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				return nil, fmt.Errorf("%w: status %d - %s", domain.ErrInvalidRequest, resp.StatusCode, string(body))
			}

			// Retry on 5xx server errors
			if a.isTransientError(nil, resp.StatusCode) {
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				lastErr = fmt.Errorf("server error: status %d - %s", resp.StatusCode, string(body))
				logrus.Warnf("Gemini request attempt %d/%d failed with status %d, retrying in %v", attempt, maxRetryAttempts, resp.StatusCode, delay)
			} else {
				return resp, nil
			}
		}

		if attempt < maxRetryAttempts {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}

			delay = delay * backoffMultiplier
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v after %d attempts", domain.ErrCompletionUnavailable, lastErr, maxRetryAttempts)
	}
	return nil, fmt.Errorf("%w: max retries exceeded", domain.ErrCompletionUnavailable)
}

// isTransientError determines if an error or status code is transient and should be retried
func (a *GeminiClientAdapter) isTransientError(err error, statusCode int) bool {
	if statusCode >= 500 && statusCode < 600 {
		return true
	}
	if statusCode >= 400 && statusCode < 500 {
		return false
	}
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"eof",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

// Complete sends a single-shot text generation request
func (a *GeminiClientAdapter) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := generateContentRequest{
		Contents: []contentEntry{
			{Parts: []contentPart{{Text: prompt}}},
		},
	}
	return a.generate(ctx, reqBody)
}

// DescribeMedia sends an instruction plus an inline media payload to the
// multimodal endpoint and returns the generated transcription/description.
func (a *GeminiClientAdapter) DescribeMedia(ctx context.Context, mimeType string, data []byte, instruction string) (string, error) {
	reqBody := generateContentRequest{
		Contents: []contentEntry{
			{Parts: []contentPart{
				{Text: instruction},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(data),
				}},
			}},
		},
	}
	return a.generate(ctx, reqBody)
}

func (a *GeminiClientAdapter) generate(ctx context.Context, reqBody generateContentRequest) (string, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", a.baseURL, a.model)

	resp, err := a.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", a.apiKey)
		return a.httpClient.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("failed to send generate request: %w", err)
	}
	defer resp.Body.Close()

	var apiResp generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("failed to parse generate response: %w", err)
	}

	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", domain.ErrEmptyCompletion)
	}

	var b strings.Builder
	for _, part := range apiResp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", domain.ErrEmptyCompletion
	}

	logrus.Infof("Generate content successful, model: %s, %d chars", a.model, len(text))

	return text, nil
}

// API request/response structures for the Gemini generateContent API

// contentPart is one prompt part: plain text or inline media
type contentPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type contentEntry struct {
	Role  string        `json:"role,omitempty"`
	Parts []contentPart `json:"parts"`
}

type generateContentRequest struct {
	Contents []contentEntry `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}
