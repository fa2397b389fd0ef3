package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

type Message = kafka.Message

type ConsumerConfig struct {
	Brokers        []string
	Topic          string
	GroupID        string
	MinBytes       int
	MaxBytes       int
	CommitInterval time.Duration
	MaxWait        time.Duration
}

func (c ConsumerConfig) withDefaults() ConsumerConfig {
	if c.MinBytes <= 0 {
		c.MinBytes = 1 << 10
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 << 20
	}
	if c.CommitInterval <= 0 {
		c.CommitInterval = time.Second
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 50 * time.Millisecond
	}
	return c
}

// Consumer reads normalized events as a member of a consumer group.
type Consumer struct {
	r     *kafka.Reader
	topic string
}

func NewConsumer(c ConsumerConfig) *Consumer {
	c = c.withDefaults()

	return &Consumer{
		topic: c.Topic,
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        c.Brokers,
			GroupID:        c.GroupID,
			Topic:          c.Topic,
			MinBytes:       c.MinBytes,
			MaxBytes:       c.MaxBytes,
			CommitInterval: c.CommitInterval,
			MaxWait:        c.MaxWait,
		}),
	}
}

func (c *Consumer) Topic() string { return c.topic }

// Fetch blocks until a message is available or ctx is done. The offset is not committed.
func (c *Consumer) Fetch(ctx context.Context) (Message, error) {
	return c.r.FetchMessage(ctx)
}

func (c *Consumer) Commit(ctx context.Context, m Message) error {
	return c.r.CommitMessages(ctx, m)
}

func (c *Consumer) Close() error { return c.r.Close() }
