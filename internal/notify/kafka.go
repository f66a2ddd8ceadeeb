package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// DefaultTopic is the case event feed topic.
const DefaultTopic = "caseflow.case-events"

// KafkaEmitter buffers events on a channel and publishes them to Kafka from a
// single background worker. Emit never blocks the request path: when the
// buffer is full the event is dropped and counted, which is acceptable for a
// best-effort feed whose source of truth is the case activity log.
type KafkaEmitter struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	inbox  chan Event
}

// NewKafkaEmitter connects a franz-go producer to the given brokers.
func NewKafkaEmitter(brokers []string, topic string, logger *slog.Logger) (*KafkaEmitter, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RecordRetries(5),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaEmitter{
		client: client,
		topic:  topic,
		logger: logger,
		inbox:  make(chan Event, 1024),
	}, nil
}

// Emit queues an event for delivery.
func (e *KafkaEmitter) Emit(event Event) {
	select {
	case e.inbox <- event:
	default:
		e.logger.Warn("case event dropped, feed buffer full",
			"case_id", event.CaseID, "type", event.Type)
	}
}

// Run drains the inbox until ctx is canceled. Intended for an errgroup in
// main.
func (e *KafkaEmitter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			e.flush()
			return ctx.Err()
		case event := <-e.inbox:
			e.publish(ctx, event)
		}
	}
}

func (e *KafkaEmitter) publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		e.logger.ErrorContext(ctx, "marshal case event", "case_id", event.CaseID, "error", err)
		return
	}
	record := &kgo.Record{
		Topic: e.topic,
		Key:   []byte(event.CaseID.String()),
		Value: payload,
	}
	// ProduceSync retries internally per client config; a terminal failure is
	// logged and the event is dropped rather than blocking the drain loop.
	if err := e.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		e.logger.ErrorContext(ctx, "publish case event failed",
			"case_id", event.CaseID, "type", event.Type, "error", err)
	}
}

// flush gives in-flight produces a bounded grace period on shutdown.
func (e *KafkaEmitter) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = e.client.Flush(ctx)
}

// Close releases the underlying client.
func (e *KafkaEmitter) Close() {
	e.client.Close()
}
