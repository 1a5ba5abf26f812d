package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fieldsense/occupancy-service/internal/models"
)

// EventPublisher feeds accepted events to downstream consumers over Kafka.
// Messages are keyed by device ID so each device's events stay ordered
// within a partition. The Postgres row is the source of truth; publishing
// is best-effort and a publish failure never fails an ingest.
type EventPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewEventPublisher(brokers []string, topic string, log *zap.Logger) *EventPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		Async:        false,
	}
	return &EventPublisher{
		writer: writer,
		log:    log.With(zap.String("component", "event-publisher")),
	}
}

// Publish sends one stored event. Marshalling an EventRecord cannot fail,
// so the returned error is always a transport error.
func (p *EventPublisher) Publish(ctx context.Context, rec models.EventRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.DeviceID),
		Value: value,
		Time:  rec.CreatedAt,
	})
	if err != nil {
		p.log.Error("publish failed",
			zap.String("device_id", rec.DeviceID),
			zap.Error(err),
		)
	}
	return err
}

func (p *EventPublisher) Close() error {
	return p.writer.Close()
}
