package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"gopherai-ytchat/internal/model"
	"gopherai-ytchat/internal/platform/rabbitmq"
)

var errMalformedTurn = errors.New("malformed turn event")

type TurnArchiver interface {
	Create(ctx context.Context, record *model.TurnRecord) error
}

// TurnArchiveWorker consumes turn events and writes them to the archive.
// Malformed events are dropped; failed writes are requeued once.
type TurnArchiveWorker struct {
	conn      *amqp.Connection
	archive   TurnArchiver
	queueName string
	prefetch  int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTurnArchiveWorker(conn *amqp.Connection, archive TurnArchiver, queueName string, prefetch int) *TurnArchiveWorker {
	if prefetch <= 0 {
		prefetch = 16
	}
	return &TurnArchiveWorker{
		conn:      conn,
		archive:   archive,
		queueName: queueName,
		prefetch:  prefetch,
	}
}

func (w *TurnArchiveWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := rabbitmq.DeclareTurnQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(w.prefetch, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"turn-archive",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.deliver(workerCtx, d)
			}
		}
	}()

	log.Info().Str("queue", w.queueName).Msg("turn archive worker started")
	return nil
}

func (w *TurnArchiveWorker) deliver(ctx context.Context, d amqp.Delivery) {
	err := w.handle(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errMalformedTurn):
		log.Warn().Err(err).Msg("dropping malformed turn event")
		_ = d.Nack(false, false)
	default:
		log.Error().Err(err).Bool("redelivered", d.Redelivered).Msg("archive turn failed")
		_ = d.Nack(false, !d.Redelivered)
	}
}

func (w *TurnArchiveWorker) handle(ctx context.Context, body []byte) error {
	record, err := decodeTurn(body)
	if err != nil {
		return err
	}
	return w.archive.Create(ctx, record)
}

func decodeTurn(body []byte) (*model.TurnRecord, error) {
	var event model.TurnEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedTurn, err)
	}
	if strings.TrimSpace(event.SessionID) == "" {
		return nil, fmt.Errorf("%w: missing session id", errMalformedTurn)
	}
	if event.Role != model.RoleUser && event.Role != model.RoleAssistant {
		return nil, fmt.Errorf("%w: unknown role %q", errMalformedTurn, event.Role)
	}
	return &model.TurnRecord{
		SessionID: event.SessionID,
		VideoID:   event.VideoID,
		Role:      string(event.Role),
		Content:   event.Text,
		CreatedAt: event.Timestamp,
	}, nil
}

func (w *TurnArchiveWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
