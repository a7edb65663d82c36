package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaSink forwards bus events to a Kafka topic. Events are queued and written by
// Run; when the queue is full new events are dropped and counted.
type KafkaSink struct {
	writer  messageWriter
	topic   string
	queue   chan Event
	log     zerolog.Logger
	timeout time.Duration

	mu      sync.Mutex
	dropped int64
}

// NewKafkaSink creates a sink writing to topic on brokers.
func NewKafkaSink(brokers []string, topic string, log zerolog.Logger) *KafkaSink {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafkago.RequireOne,
	}
	return newKafkaSink(w, topic, log)
}

func newKafkaSink(w messageWriter, topic string, log zerolog.Logger) *KafkaSink {
	return &KafkaSink{
		writer:  w,
		topic:   topic,
		queue:   make(chan Event, 256),
		log:     log.With().Str("component", "kafka_sink").Str("topic", topic).Logger(),
		timeout: 5 * time.Second,
	}
}

// Handle is a bus Handler; it never blocks.
func (s *KafkaSink) Handle(event Event) {
	select {
	case s.queue <- event:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (s *KafkaSink) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Run writes queued events until ctx is cancelled, then closes the writer.
func (s *KafkaSink) Run(ctx context.Context) {
	defer func() {
		if err := s.writer.Close(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to close kafka writer")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-s.queue:
			if err := s.publish(ctx, event); err != nil {
				s.log.Warn().Err(err).Str("event_type", event.Type).Msg("Failed to publish event")
			}
		}
	}
}

func (s *KafkaSink) publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}

	key := event.UserID
	if key == "" {
		key = event.Type
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = s.writer.WriteMessages(writeCtx, kafkago.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.topic, err)
	}
	return nil
}
