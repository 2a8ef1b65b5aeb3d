package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// AnalyticsUpdatedEvent is published after a guild's analytics record has
// been persisted by a batch pass.
type AnalyticsUpdatedEvent struct {
	GuildID   string    `json:"guild_id"`
	GuildName string    `json:"guild_name"`
	CAS       int       `json:"cas"`
	CHS       int       `json:"chs"`
	EAS       int       `json:"eas"`
	CCS       int       `json:"ccs"`
	ERC       int       `json:"erc"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PointsExchangedEvent is published after a successful exchange operation.
type PointsExchangedEvent struct {
	ExchangeID   string    `json:"exchange_id"`
	GuildID      string    `json:"guild_id"`
	UserID       string    `json:"user_id,omitempty"`
	ExchangeType string    `json:"exchange_type"`
	PointsAmount float64   `json:"points_amount"`
	GlobalPoints float64   `json:"global_points,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to start sarama producer: %w", err)
	}

	return &Producer{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}, nil
}

// Publish serializes the payload as JSON and sends it keyed by key.
func (p *Producer) Publish(key string, payload interface{}) error {
	bytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(bytes),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to kafka: %w", err)
	}

	p.logger.Debug("message published",
		zap.String("topic", p.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
