package ingestion

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/tidwall/gjson"
)

// KafkaConfig selects the change-feed topic
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// messageReader is the part of kafka.Reader the consumer uses
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaTrigger consumes a change-feed topic and queues a refresh per message
type KafkaTrigger struct {
	reader  messageReader
	trigger *Trigger
	logger  zerolog.Logger
}

// NewKafkaTrigger creates a consumer group reader on cfg.Topic
func NewKafkaTrigger(cfg KafkaConfig, trigger *Trigger, logger zerolog.Logger) *KafkaTrigger {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})
	return newKafkaTrigger(reader, trigger, logger)
}

func newKafkaTrigger(reader messageReader, trigger *Trigger, logger zerolog.Logger) *KafkaTrigger {
	return &KafkaTrigger{
		reader:  reader,
		trigger: trigger,
		logger:  logger,
	}
}

// messageTable finds the source table of a change event. Both flat
// {"table": ...} events and Debezium envelopes are understood.
func messageTable(value []byte) string {
	if !gjson.ValidBytes(value) {
		return ""
	}
	for _, path := range []string{"table", "source.table", "payload.source.table"} {
		if t := gjson.GetBytes(value, path); t.Exists() {
			return t.String()
		}
	}
	return ""
}

// Start reads messages until ctx is cancelled. Read errors are logged and
// retried after a short pause.
func (k *KafkaTrigger) Start(ctx context.Context) {
	k.logger.Info().Msg("kafka consumer started")

	for {
		msg, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				k.logger.Info().Msg("kafka consumer stopped")
				return
			}
			k.logger.Error().Err(err).Msg("read message failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		table := messageTable(msg.Value)
		feed, ok := k.trigger.FeedForTable(table)
		if !ok {
			k.logger.Debug().Str("table", table).Msg("change for unwatched table ignored")
			continue
		}
		k.trigger.Fire("kafka", feed)

		k.logger.Debug().
			Str("table", table).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("processed change event")
	}
}

// Close closes the reader
func (k *KafkaTrigger) Close() error {
	return k.reader.Close()
}
