package collector

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaSink publishes each line as one Kafka message, using the channel
// name as the topic. Writes are synchronous; a delivery failure comes
// back from WriteLine.
type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(brokers []string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 5 * time.Millisecond,
			Compression:  kafka.Snappy,
		},
	}
}

// WriteLine implements LogSink.
func (s *KafkaSink) WriteLine(ctx context.Context, channel string, line []byte) error {
	return s.writer.WriteMessages(ctx, kafka.Message{
		Topic: channel,
		Value: line,
		Time:  time.Now(),
	})
}

// Close flushes and shuts down the underlying writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
