package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	id "credex/pkg/domain"
)

// KafkaPublisher mirrors audit events onto a Kafka topic for downstream
// compliance consumers. Keyed by decision ID so all events for one decision
// land on the same partition, preserving order.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

// NewKafkaPublisher connects to the given brokers. The caller owns Close.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RecordRetries(3),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

type kafkaEvent struct {
	Category      EventCategory    `json:"category"`
	Timestamp     time.Time        `json:"timestamp"`
	Action        AuditEvent       `json:"action"`
	ApplicationID id.ApplicationID `json:"application_id,omitempty"`
	DecisionID    string           `json:"decision_id,omitempty"`
	ActorID       id.ActorID       `json:"actor_id,omitempty"`
	RequestID     string           `json:"request_id,omitempty"`
	Outcome       string           `json:"outcome,omitempty"`
	Reason        string           `json:"reason,omitempty"`
}

func (p *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	payload, err := json.Marshal(kafkaEvent(event))
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.DecisionID),
		Value: payload,
	}

	// Async produce: audit mirroring must not block the worker loop.
	p.client.Produce(ctx, record, nil)
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}
