package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	kafka "github.com/segmentio/kafka-go"

	"gluesync/internal/event"
	"gluesync/internal/host"
)

// KafkaReader is the subset of *kafka.Reader used by KafkaSource.
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ KafkaReader = (*kafka.Reader)(nil)

// KafkaConfig selects the topic to consume.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// NewKafkaReader creates a consumer-group reader. Offsets are committed
// explicitly after each message is applied.
func NewKafkaReader(cfg KafkaConfig) (*kafka.Reader, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers provided")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("no kafka topic provided")
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	}), nil
}

// ParseBrokers splits a comma-separated broker list, dropping blanks.
func ParseBrokers(csv string) []string {
	var brokers []string
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// KafkaSource consumes notifications from a Kafka topic. Each message is
// committed once the engine has handled it, whether or not the Glue call
// succeeded; failures are already logged and counted by the listener.
// Messages that are not valid notifications are logged and committed.
type KafkaSource struct {
	reader KafkaReader
	logger *slog.Logger
}

// NewKafkaSource creates a new KafkaSource.
func NewKafkaSource(reader KafkaReader, logger *slog.Logger) *KafkaSource {
	return &KafkaSource{reader: reader, logger: logger}
}

// Run consumes until ctx is canceled, then closes the reader.
func (s *KafkaSource) Run(ctx context.Context, sub Submitter) error {
	defer func() {
		if err := s.reader.Close(); err != nil {
			s.logger.Warn("closing kafka reader", "error", err)
		}
	}()

	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch kafka message: %w", err)
		}

		ev, err := event.Decode(msg.Value)
		if err != nil {
			s.logger.Warn("skipping invalid notification",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		} else if err := sub.Submit(ctx, ev); err != nil {
			if ctx.Err() != nil || errors.Is(err, host.ErrStopped) {
				return nil
			}
			s.logger.Debug("notification failed, committing anyway",
				"event_id", ev.ID, "offset", msg.Offset, "error", err)
		}

		if err := s.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit kafka offset %d: %w", msg.Offset, err)
		}
	}
}
