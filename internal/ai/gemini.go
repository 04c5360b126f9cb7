package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gopherai-ytchat/internal/pkg/apperr"
)

const (
	defaultGeminiChatModel      = "gemini-1.5-flash-latest"
	defaultGeminiEmbeddingModel = "text-embedding-004"
)

type GeminiConfig struct {
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Temperature    float32
}

type GeminiClient struct {
	client *genai.Client
	cfg    GeminiConfig
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "gemini api key is empty")
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = defaultGeminiChatModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = defaultGeminiEmbeddingModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client failed: %w", err)
	}
	return &GeminiClient{client: client, cfg: cfg}, nil
}

func (c *GeminiClient) Name() string { return "gemini" }

func (c *GeminiClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	em := c.client.EmbeddingModel(c.cfg.EmbeddingModel)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}
	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, classifyGeminiError("gemini batch embedding failed", err)
	}
	if res == nil || len(res.Embeddings) != len(texts) {
		return nil, apperr.New(apperr.KindProviderError, "gemini returned an incomplete embedding batch")
	}
	out := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, apperr.Newf(apperr.KindProviderError, "gemini returned no embedding for text %d", i)
		}
		out[i] = e.Values
	}
	return out, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.cfg.ChatModel)
	if c.cfg.Temperature > 0 {
		model.SetTemperature(c.cfg.Temperature)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGeminiError("gemini generate failed", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String(), nil
}

// classifyGeminiError maps REST and gRPC failures from the genai client
// onto error kinds.
func classifyGeminiError(msg string, err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return apperr.Wrap(apperr.KindProviderError, msg+": response blocked", err)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests:
			return apperr.Wrap(apperr.KindRateLimited, msg, err)
		case http.StatusRequestTimeout, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return apperr.Wrap(apperr.KindNetworkError, msg, err)
		default:
			return apperr.Wrap(apperr.KindProviderError, msg, err)
		}
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted:
			return apperr.Wrap(apperr.KindRateLimited, msg, err)
		case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.Aborted:
			return apperr.Wrap(apperr.KindNetworkError, msg, err)
		case codes.Unknown:
			// not a gRPC status; fall through to context checks
		default:
			return apperr.Wrap(apperr.KindProviderError, msg, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Wrap(apperr.KindNetworkError, msg, err)
	}
	return apperr.Wrap(apperr.KindProviderError, msg, err)
}
