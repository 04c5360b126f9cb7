package ai

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

	"gopherai-ytchat/internal/pkg/apperr"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OpenAIConfig struct {
	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string
}

// OpenAICompatibleClient talks to any server exposing the OpenAI
// /chat/completions and /embeddings routes.
type OpenAICompatibleClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

func NewOpenAICompatibleClient(cfg OpenAIConfig) *OpenAICompatibleClient {
	return &OpenAICompatibleClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

func (c *OpenAICompatibleClient) Name() string { return "openai" }

func (c *OpenAICompatibleClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.Complete(ctx, []ChatMessage{{Role: "user", Content: prompt}})
}

func (c *OpenAICompatibleClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	reqBody := map[string]interface{}{
		"model":    c.cfg.ChatModel,
		"messages": messages,
		"stream":   false,
	}

	raw, err := c.post(ctx, "/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", apperr.Wrap(apperr.KindProviderError, "parse llm json failed", err)
	}
	if len(parsed.Choices) == 0 {
		return "", apperr.New(apperr.KindProviderError, "empty llm choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// EmbedBatch returns one embedding per text, in input order.
func (c *OpenAICompatibleClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	input := make([]string, len(texts))
	for i, t := range texts {
		input[i] = strings.TrimSpace(t)
		if input[i] == "" {
			return nil, apperr.Newf(apperr.KindInvalidInput, "embedding input %d is empty", i)
		}
	}

	reqBody := map[string]interface{}{
		"model": c.cfg.EmbeddingModel,
		"input": input,
	}
	raw, err := c.post(ctx, "/embeddings", reqBody)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, apperr.Wrap(apperr.KindProviderError, "parse embedding batch json failed", err)
	}
	if len(parsed.Data) != len(input) {
		return nil, apperr.Newf(apperr.KindProviderError, "embedding batch returned %d vectors for %d inputs", len(parsed.Data), len(input))
	}
	result := make([][]float32, len(input))
	for i, d := range parsed.Data {
		idx := d.Index
		if idx < 0 || idx >= len(result) || result[idx] != nil {
			idx = i
		}
		result[idx] = d.Embedding
	}
	return result, nil
}

func (c *OpenAICompatibleClient) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "marshal request failed", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetworkError, fmt.Sprintf("request %s failed", path), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetworkError, "read response failed", err)
	}
	if resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, raw)
	}
	return raw, nil
}

func classifyStatus(status int, raw []byte) error {
	msg := fmt.Sprintf("provider status %d: %s", status, truncate(string(raw), 300))
	switch {
	case status == http.StatusTooManyRequests:
		return apperr.New(apperr.KindRateLimited, msg)
	case status == http.StatusRequestTimeout, status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		return apperr.New(apperr.KindNetworkError, msg)
	default:
		return apperr.New(apperr.KindProviderError, msg)
	}
}

// classifyTransport makes sure err carries a kind. Deadline and
// cancellation become NetworkError.
func classifyTransport(err error) error {
	if err == nil {
		return nil
	}
	var classified *apperr.Error
	if errors.As(err, &classified) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindNetworkError, "provider call timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return apperr.Wrap(apperr.KindNetworkError, "provider call canceled", err)
	}
	return apperr.Wrap(apperr.KindProviderError, "provider call failed", err)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
