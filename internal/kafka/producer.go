package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/ftrbnd/heardle/internal/config"
	"github.com/ftrbnd/heardle/internal/domain"
)

// Producer publishes completion events to Kafka. Events are keyed by user id
// so one player's completions stay in partition order.
type Producer struct {
	config   *config.KafkaConfig
	producer sarama.SyncProducer
	logger   *slog.Logger
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg *config.KafkaConfig, logger *slog.Logger) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("creating Kafka producer: %w", err)
	}

	logger.Info("Kafka producer ready", "brokers", cfg.Brokers, "topic", cfg.Topic)

	return &Producer{
		config:   cfg,
		producer: producer,
		logger:   logger,
	}, nil
}

// PublishCompletion sends one completion event
func (p *Producer) PublishCompletion(_ context.Context, event domain.CompletionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling completion event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.config.Topic,
		Key:   sarama.StringEncoder(event.UserID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("sending completion event: %w", err)
	}

	p.logger.Debug("completion event published",
		"user_id", event.UserID,
		"puzzle_number", event.PuzzleNumber,
		"partition", partition,
		"offset", offset,
	)
	return nil
}

// Close shuts down the producer
func (p *Producer) Close() error {
	return p.producer.Close()
}
