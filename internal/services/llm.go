package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/luminalib/luminalib-backend/internal/logger"
	"github.com/luminalib/luminalib-backend/internal/utils"
)

// LLMClient generates plain text completions for the artifact pipelines.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

type ollamaClient struct {
	log        *logger.Logger
	baseURL    string
	model      string
	httpClient *http.Client
	maxRetries int
}

func NewOllamaClient(log *logger.Logger) LLMClient {
	serviceLog := log.With("service", "OllamaClient")
	baseURL := strings.TrimRight(utils.GetEnv("OLLAMA_BASE_URL", "http://localhost:11434", log), "/")
	model := utils.GetEnv("OLLAMA_MODEL", "llama3.2", log)
	timeoutSec := utils.GetEnvAsInt("OLLAMA_TIMEOUT_SECONDS", 180, log)
	maxRetries := utils.GetEnvAsInt("OLLAMA_MAX_RETRIES", 3, log)
	return &ollamaClient{
		log:        serviceLog,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}
}

func (c *ollamaClient) ModelName() string { return c.model }

type ollamaHTTPError struct {
	StatusCode int
	Body       string
}

func (e *ollamaHTTPError) Error() string {
	return fmt.Sprintf("ollama http %d: %s", e.StatusCode, e.Body)
}

func retryableLLMErr(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var httpErr *ollamaHTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429 || (httpErr.StatusCode >= 500 && httpErr.StatusCode <= 599)
	}
	return false
}

func (c *ollamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 2 * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
		out, err := c.generateOnce(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !retryableLLMErr(err) {
			return "", err
		}
		c.log.Warn("Generation attempt failed, retrying", "attempt", attempt+1, "error", err)
	}
	return "", fmt.Errorf("generate after %d retries: %w", c.maxRetries, lastErr)
}

func (c *ollamaClient) generateOnce(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ollamaHTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	out := strings.TrimSpace(parsed.Response)
	if out == "" {
		return "", fmt.Errorf("ollama returned empty response")
	}
	return out, nil
}
