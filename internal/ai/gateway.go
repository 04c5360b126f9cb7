package ai

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"gopherai-ytchat/internal/metrics"
	"gopherai-ytchat/internal/pkg/apperr"
)

const DefaultEmptyAnswer = "I'm sorry, I couldn't generate an answer from the transcript. Please try rephrasing your question."

type EmbeddingProvider interface {
	Name() string
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type GenerationProvider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// GatewayConfig bounds every provider call. MaxRetries counts extra
// attempts after the first; RequestsPerSecond <= 0 disables the limiter.
type GatewayConfig struct {
	Timeout           time.Duration
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	RequestsPerSecond float64
	Burst             int
}

func (c GatewayConfig) withDefaults() GatewayConfig {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	return c
}

// caller runs one logical provider call: wait for the limiter, bound the
// attempt with a timeout, retry NetworkError and RateLimited with
// exponential backoff. Other kinds return after the first attempt.
type caller struct {
	cfg     GatewayConfig
	limiter *rate.Limiter
}

func newCaller(cfg GatewayConfig) *caller {
	cfg = cfg.withDefaults()
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &caller{cfg: cfg, limiter: rate.NewLimiter(limit, cfg.Burst)}
}

func (c *caller) do(ctx context.Context, provider, call string, fn func(ctx context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialBackoff
	policy.MaxInterval = c.cfg.MaxBackoff

	attempt := func() (struct{}, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return struct{}{}, backoff.Permanent(apperr.Wrap(apperr.KindNetworkError, "rate limiter wait aborted", err))
		}
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		err := classifyTransport(fn(callCtx))
		metrics.ProviderCallsTotal.WithLabelValues(provider, call, outcome(err)).Inc()
		if err != nil && !apperr.Retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}
	notify := func(err error, wait time.Duration) {
		metrics.ProviderRetriesTotal.WithLabelValues(provider, call).Inc()
		log.Warn().Err(err).Str("provider", provider).Str("call", call).Dur("wait", wait).Msg("provider call failed, retrying")
	}

	_, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries+1)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	return classifyTransport(err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.KindOf(err))
}

// Generator turns a prompt into answer text through a GenerationProvider.
type Generator struct {
	provider    GenerationProvider
	caller      *caller
	emptyAnswer string
}

func NewGenerator(provider GenerationProvider, cfg GatewayConfig, emptyAnswer string) *Generator {
	if strings.TrimSpace(emptyAnswer) == "" {
		emptyAnswer = DefaultEmptyAnswer
	}
	return &Generator{
		provider:    provider,
		caller:      newCaller(cfg),
		emptyAnswer: emptyAnswer,
	}
}

// Generate fails with RateLimited, NetworkError or ProviderError. A blank
// reply is replaced by the configured apology text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", apperr.New(apperr.KindInvalidInput, "prompt is empty")
	}

	var answer string
	err := g.caller.do(ctx, g.provider.Name(), "generate", func(ctx context.Context) error {
		text, err := g.provider.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		answer = text
		return nil
	})
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindRateLimited, apperr.KindNetworkError, apperr.KindProviderError:
			return "", err
		default:
			return "", apperr.Wrap(apperr.KindProviderError, "generation failed", err)
		}
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		log.Warn().Str("provider", g.provider.Name()).Msg("provider returned an empty answer")
		return g.emptyAnswer, nil
	}
	return answer, nil
}
