package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/viper"
)

// messageWriter abstracts kafka.Writer for testability.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Client publishes order events to Kafka topics.
type Client struct {
	writer messageWriter
}

// MustNewClient creates a writer for the brokers listed under events.kafka.brokers.
func MustNewClient() *Client {
	brokers := viper.GetStringSlice("events.kafka.brokers")
	if len(brokers) == 0 {
		panic("events.kafka.brokers is empty")
	}

	slog.Info("Kafka writer configured", "brokers", brokers)

	return NewClientWith(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	})
}

// NewClientWith wraps an existing writer.
func NewClientWith(w messageWriter) *Client {
	return &Client{writer: w}
}

// Send writes one message to topic, partitioned by key.
func (c *Client) Send(ctx context.Context, topic, key string, payload []byte) error {
	err := c.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write to %s: %w", topic, err)
	}

	return nil
}

// Close flushes pending writes.
func (c *Client) Close() error {
	return c.writer.Close()
}
