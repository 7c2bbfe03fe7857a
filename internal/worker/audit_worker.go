package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/caravela/go-store-api/internal/model"
	"github.com/caravela/go-store-api/internal/repository"
)

const (
	dlxExchange    = "order-events.dlx"
	dlqQueueName   = "order-events.dlq"
	idempotencyTTL = 24 * time.Hour
)

// AuditWorker consumes order lifecycle events and appends them to the
// audit trail collection. Events are deduplicated by event id through
// redis, so redeliveries do not produce duplicate audit entries.
type AuditWorker struct {
	channel     *amqp.Channel
	auditRepo   repository.AuditRepository
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewAuditWorker(
	ch *amqp.Channel,
	auditRepo repository.AuditRepository,
	redisClient *redis.Client,
	log *slog.Logger,
) *AuditWorker {
	return &AuditWorker{
		channel:     ch,
		auditRepo:   auditRepo,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, model.OrderEventsQueue, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(model.OrderEventsQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": model.OrderEventsQueue,
	}); err != nil {
		return fmt.Errorf("declare event queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *AuditWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(model.OrderEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("audit worker started")
	return nil
}

func (w *AuditWorker) Stop() { close(w.done) }

func (w *AuditWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var event model.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		w.log.Error("unmarshal order event", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("event_id", event.EventID, "order_id", event.OrderID, "action", event.Action)

	idempotencyKey := "event_processed:" + event.EventID
	if w.redisClient != nil {
		exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
		if err != nil {
			log.Error("check idempotency key", "error", err)
			_ = msg.Nack(false, true)
			return
		}
		if exists > 0 {
			log.Info("event already recorded, skipping")
			_ = msg.Ack(false)
			return
		}
	}

	entry := &model.AuditLog{
		Service:  "orders",
		Action:   event.Action,
		EntityID: event.OrderID,
		EventID:  event.EventID,
	}
	if err := w.auditRepo.Append(ctx, entry); err != nil {
		log.Error("append audit log failed", "error", err)
		_ = msg.Nack(false, false) // → DLQ
		return
	}

	if w.redisClient != nil {
		if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
			log.Error("set idempotency key", "error", err)
		}
	}

	_ = msg.Ack(false)
	log.Info("order event recorded")
}
