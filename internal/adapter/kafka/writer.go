// Package kafka publishes attribution facts to a Kafka topic for downstream
// consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/urbanflows/jam-section-etl/internal/config"
	"github.com/urbanflows/jam-section-etl/internal/domain"
)

// Writer produces fact messages to the configured Kafka topic.
// It implements pipeline.FactWriter.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the fact topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaFactsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// WriteFacts serializes and publishes a page of facts in a single
// WriteMessages call so the page commits or fails as a unit.
func (w *Writer) WriteFacts(ctx context.Context, facts []domain.JamPerSection) error {
	if len(facts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(facts))
	for i := range facts {
		msg, err := serializeToMessage(facts[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a fact into a Kafka message keyed by jam UUID,
// so every attribution of one jam lands on the same partition.
func serializeToMessage(fact domain.JamPerSection) (kafkago.Message, error) {
	data, err := json.Marshal(fact)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize fact: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatInt(fact.JamUUID, 10)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "tier", Value: []byte(fact.Tier)},
			{Key: "matched_at", Value: []byte(fact.MatchedAt.Format(time.RFC3339))},
		},
	}, nil
}
