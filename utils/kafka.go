package utils

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/miglee/miglee-backend/config"
)

var (
	kafkaWriter *kafka.Writer
	kafkaCfg    *config.Config
)

// DomainEvent is the payload published for every notification-worthy action
// (member joined, invite redeemed, check-in, ownership transfer, ...).
// The notification consumer fans these out to in-app rows and FCM pushes.
type DomainEvent struct {
	Action     string                 `json:"action"`
	ActorID    uint                   `json:"actor_id"`
	IntentID   uint                   `json:"intent_id,omitempty"`
	TargetUser uint                   `json:"target_user,omitempty"`
	Title      string                 `json:"title"`
	Body       string                 `json:"body"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// InitializeKafka sets up the shared writer. Publishing is best-effort: a
// missing broker disables the pipeline rather than failing requests.
func InitializeKafka(cfg *config.Config) {
	kafkaCfg = cfg
	if cfg.KafkaBrokers == "" {
		log.Println("⚠️ Kafka not configured (KAFKA_BROKERS missing), notifications pipeline disabled")
		return
	}

	kafkaWriter = &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(cfg.KafkaBrokers, ",")...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}

	log.Printf("✅ Kafka writer initialized (topic=%s)", cfg.KafkaTopic)
}

// PublishEvent emits a domain event to the notifications topic. Failures are
// logged and swallowed; notification delivery never blocks a mutation.
func PublishEvent(ctx context.Context, evt DomainEvent) {
	if kafkaWriter == nil {
		return
	}
	evt.OccurredAt = time.Now().UTC()

	payload, err := json.Marshal(evt)
	if err != nil {
		log.Printf("⚠️ Kafka marshal failed for action %s: %v", evt.Action, err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(evt.Action),
		Value: payload,
	}
	if err := kafkaWriter.WriteMessages(ctx, msg); err != nil {
		log.Printf("⚠️ Kafka publish failed for action %s: %v", evt.Action, err)
	}
}

// NewKafkaReader builds the consumer-side reader for the notifications topic.
func NewKafkaReader() *kafka.Reader {
	if kafkaCfg == nil || kafkaCfg.KafkaBrokers == "" {
		return nil
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  strings.Split(kafkaCfg.KafkaBrokers, ","),
		Topic:    kafkaCfg.KafkaTopic,
		GroupID:  kafkaCfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}
