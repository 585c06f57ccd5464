package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-drainage-service/internal/config"
	"github.com/couchcryptid/storm-drainage-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes completed drainage plans to a Kafka topic.
// It implements analysis.PlanPublisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured plan topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaPlanTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishPlan serializes a plan and writes it keyed by catchment ID, so
// repeated analyses of one catchment land on the same partition.
func (w *Writer) PublishPlan(ctx context.Context, plan domain.DrainagePlan) error {
	msg, err := serializeToMessage(plan)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish plan %s: %w", plan.ID, err)
	}
	w.logger.Debug("plan published", "id", plan.ID, "pattern", plan.Hydraulics.Pattern)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// planMessage is the published payload: the full plan plus its rounded report.
type planMessage struct {
	Plan   domain.DrainagePlan `json:"plan"`
	Report domain.Report       `json:"report"`
}

// serializeToMessage marshals a DrainagePlan into a Kafka message.
func serializeToMessage(plan domain.DrainagePlan) (kafkago.Message, error) {
	data, err := json.Marshal(planMessage{Plan: plan, Report: plan.Report()})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize drainage plan: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(plan.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "pattern", Value: []byte(plan.Hydraulics.Pattern)},
			{Key: "analyzed_at", Value: []byte(plan.AnalyzedAt.Format(time.RFC3339))},
		},
	}, nil
}
