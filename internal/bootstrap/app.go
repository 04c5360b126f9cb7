package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"gopherai-ytchat/internal/ai"
	"gopherai-ytchat/internal/app"
	"gopherai-ytchat/internal/cache"
	"gopherai-ytchat/internal/config"
	"gopherai-ytchat/internal/pkg/logger"
	"gopherai-ytchat/internal/pkg/sessiontoken"
	mysqlClient "gopherai-ytchat/internal/platform/mysql"
	rabbitmqClient "gopherai-ytchat/internal/platform/rabbitmq"
	redisClient "gopherai-ytchat/internal/platform/redis"
	"gopherai-ytchat/internal/repository"
	"gopherai-ytchat/internal/session"
	"gopherai-ytchat/internal/transcript"
	"gopherai-ytchat/internal/worker"
)

type App struct {
	Config   *config.Config
	MySQL    *gorm.DB
	Redis    *redis.Client
	MQConn   *amqp.Connection
	Provider string

	Sessions   *session.Store
	Tokens     *sessiontoken.Issuer
	Service    *app.TranscriptChatService
	Turns      *repository.TurnRepository
	Publisher  *rabbitmqClient.TurnPublisher
	TurnWorker *worker.TurnArchiveWorker

	StartedAt time.Time

	closers []io.Closer
	stop    context.CancelFunc
}

// New loads configuration and wires the application from it.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return Build(ctx, cfg)
}

// Build wires every component for cfg. Redis, MySQL and RabbitMQ are only
// connected when enabled; the chat service works without any of them.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:    cfg,
		Sessions:  session.NewStore(cfg.Session.IdleTTL()),
		Tokens:    sessiontoken.NewIssuer(cfg.Session.TokenSecret, cfg.Session.TokenTTL()),
		StartedAt: time.Now(),
	}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	if err := a.connect(ctx); err != nil {
		return nil, err
	}

	embedProvider, genProvider, err := a.providers(ctx)
	if err != nil {
		return nil, err
	}

	gateway := ai.GatewayConfig{
		Timeout:           cfg.LLM.Timeout(),
		MaxRetries:        cfg.LLM.MaxRetries,
		InitialBackoff:    cfg.LLM.InitialBackoff(),
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		Burst:             cfg.LLM.Burst,
	}
	var embedder ai.TextEmbedder = ai.NewEmbedder(embedProvider, gateway, cfg.LLM.EmbeddingBatchSize)
	generator := ai.NewGenerator(genProvider, gateway, cfg.LLM.EmptyAnswer)

	var source transcript.Source = transcript.NewYouTubeSource(transcript.YouTubeConfig{
		Languages:  cfg.Transcript.Languages,
		Timeout:    time.Duration(cfg.Transcript.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.Transcript.MaxRetries,
	})

	if a.Redis != nil {
		embedder = ai.NewCachedEmbedder(embedder,
			cache.NewEmbeddingCache(a.Redis, time.Duration(cfg.Redis.EmbeddingTTLHours)*time.Hour),
			a.Provider+"/"+a.embeddingModel())
		source = transcript.NewCachedSource(source,
			cache.NewTranscriptCache(a.Redis, time.Duration(cfg.Transcript.CacheTTLMinutes)*time.Minute))
	}

	var publisher app.TurnPublisher
	if a.Publisher != nil {
		publisher = a.Publisher
	}

	a.Service = app.NewTranscriptChatService(a.Sessions, source, embedder, generator, publisher, app.Options{
		ChunkSize:       cfg.RAG.ChunkSize,
		ChunkOverlap:    cfg.RAG.ChunkOverlap,
		TopK:            cfg.RAG.TopK,
		PromptBudget:    cfg.RAG.PromptBudget,
		MaxHistoryTurns: cfg.RAG.MaxHistoryTurns,
		Instructions:    cfg.RAG.Instructions,
		KeywordFallback: cfg.RAG.KeywordFallback,
		PreviewChars:    cfg.RAG.PreviewChars,
	})

	runCtx, stop := context.WithCancel(context.Background())
	a.stop = stop
	go a.Sessions.RunJanitor(runCtx, cfg.Session.SweepInterval())

	if a.MQConn != nil && a.Turns != nil {
		a.TurnWorker = worker.NewTurnArchiveWorker(a.MQConn, a.Turns, cfg.RabbitMQ.TurnQueue, cfg.RabbitMQ.Prefetch)
		if err := a.TurnWorker.Start(runCtx); err != nil {
			return nil, fmt.Errorf("start turn archive worker failed: %w", err)
		}
	}

	log.Info().
		Str("provider", a.Provider).
		Bool("redis", a.Redis != nil).
		Bool("mysql", a.MySQL != nil).
		Bool("rabbitmq", a.MQConn != nil).
		Msg("application wired")
	ok = true
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config

	if cfg.MySQL.Enabled {
		db, err := mysqlClient.New(ctx, mysqlClient.Config{DSN: cfg.MySQLDSN()})
		if err != nil {
			return err
		}
		a.MySQL = db
		a.Turns = repository.NewTurnRepository(db)
		if err := a.Turns.Migrate(); err != nil {
			return fmt.Errorf("auto migrate tables failed: %w", err)
		}
	}

	if cfg.Redis.Enabled {
		client, err := redisClient.New(ctx, redisClient.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		a.Redis = client
	}

	if cfg.RabbitMQ.Enabled {
		conn, err := rabbitmqClient.Dial(ctx, cfg.RabbitMQ.URL, uint(max(cfg.RabbitMQ.DialTries, 1)))
		if err != nil {
			return err
		}
		a.MQConn = conn
		publisher, err := rabbitmqClient.NewTurnPublisher(conn, cfg.RabbitMQ.TurnQueue)
		if err != nil {
			return fmt.Errorf("create turn publisher failed: %w", err)
		}
		a.Publisher = publisher
	}
	return nil
}

func (a *App) providers(ctx context.Context) (ai.EmbeddingProvider, ai.GenerationProvider, error) {
	cfg := a.Config
	switch cfg.LLM.Provider {
	case "gemini":
		client, err := ai.NewGeminiClient(ctx, ai.GeminiConfig{
			APIKey:         cfg.Gemini.APIKey,
			ChatModel:      cfg.Gemini.Model,
			EmbeddingModel: cfg.Gemini.EmbeddingModel,
			Temperature:    cfg.Gemini.Temperature,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create gemini client failed: %w", err)
		}
		a.closers = append(a.closers, client)
		a.Provider = client.Name()
		return client, client, nil
	default:
		client := ai.NewOpenAICompatibleClient(ai.OpenAIConfig{
			BaseURL:        cfg.LLM.BaseURL,
			APIKey:         cfg.LLM.APIKey,
			ChatModel:      cfg.LLM.Model,
			EmbeddingModel: cfg.LLM.EmbeddingModel,
		})
		a.Provider = client.Name()
		return client, client, nil
	}
}

func (a *App) embeddingModel() string {
	if a.Config.LLM.Provider == "gemini" {
		return a.Config.Gemini.EmbeddingModel
	}
	return a.Config.LLM.EmbeddingModel
}

func (a *App) Close() error {
	var errs []error
	if a.stop != nil {
		a.stop()
	}
	if a.TurnWorker != nil {
		a.TurnWorker.Close()
	}
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.MySQL != nil {
		if err := mysqlClient.Close(a.MySQL); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
