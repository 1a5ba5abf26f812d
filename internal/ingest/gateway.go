// Package ingest holds the validated, authorized write path from raw
// payload to durable EventRecord.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fieldsense/occupancy-service/internal/auth"
	"github.com/fieldsense/occupancy-service/internal/metrics"
	"github.com/fieldsense/occupancy-service/internal/models"
	"github.com/fieldsense/occupancy-service/internal/store"
)

// ErrUnauthorized is returned before the payload is even parsed; the store
// is never touched for an unauthorized caller.
var ErrUnauthorized = errors.New("unauthorized")

// MalformedPayloadError distinguishes "bad transport" (undecodable JSON,
// MissingKey empty) from "bad client" (a required key absent). Operators
// need to tell the two apart.
type MalformedPayloadError struct {
	MissingKey string
}

func (e *MalformedPayloadError) Error() string {
	if e.MissingKey != "" {
		return fmt.Sprintf("malformed payload: missing required key %q", e.MissingKey)
	}
	return "malformed payload: JSON cannot be decoded"
}

// Store is the write side of the event log.
type Store interface {
	Append(ctx context.Context, rec models.EventRecord) error
}

// Publisher feeds stored events to downstream consumers. Optional.
type Publisher interface {
	Publish(ctx context.Context, rec models.EventRecord) error
}

// payload is the ingestion wire format. Pointer fields so a missing key is
// distinguishable from an empty value.
type payload struct {
	EventType *string `json:"eventType"`
	DeviceID  *string `json:"deviceID"`
}

// Gateway validates and normalizes inbound event payloads, assigns the
// server-side timestamp, and appends to the store. It never retries a
// failed or canceled append — that could duplicate an event — and it never
// swallows a storage failure into a success-shaped response.
type Gateway struct {
	gate  auth.Gate
	store Store
	pub   Publisher
	log   *zap.Logger
	now   func() time.Time
}

// NewGateway wires the write path. pub may be nil when no event feed is
// configured.
func NewGateway(gate auth.Gate, st Store, pub Publisher, log *zap.Logger) *Gateway {
	return &Gateway{
		gate:  gate,
		store: st,
		pub:   pub,
		log:   log.With(zap.String("component", "ingest")),
		now:   time.Now,
	}
}

// Ingest processes one raw event payload. On success the returned record
// carries the server-assigned timestamp. Failures are typed: ErrUnauthorized,
// *MalformedPayloadError, *models.ValidationError, or *store.StorageError.
func (g *Gateway) Ingest(ctx context.Context, raw []byte, token string) (models.EventRecord, error) {
	if !g.gate.Authorized(ctx, token) {
		metrics.IngestRejected.WithLabelValues("unauthorized").Inc()
		return models.EventRecord{}, ErrUnauthorized
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		metrics.IngestRejected.WithLabelValues("malformed_payload").Inc()
		return models.EventRecord{}, &MalformedPayloadError{}
	}
	if p.EventType == nil {
		metrics.IngestRejected.WithLabelValues("malformed_payload").Inc()
		return models.EventRecord{}, &MalformedPayloadError{MissingKey: "eventType"}
	}
	if p.DeviceID == nil {
		metrics.IngestRejected.WithLabelValues("malformed_payload").Inc()
		return models.EventRecord{}, &MalformedPayloadError{MissingKey: "deviceID"}
	}

	rec, err := models.NewEventRecord(*p.DeviceID, *p.EventType, g.now())
	if err != nil {
		metrics.IngestRejected.WithLabelValues("invalid_event").Inc()
		return models.EventRecord{}, err
	}

	start := time.Now()
	if err := g.store.Append(ctx, rec); err != nil {
		var se *store.StorageError
		if errors.As(err, &se) {
			metrics.StoreErrors.WithLabelValues(string(se.Kind)).Inc()
		}
		return models.EventRecord{}, err
	}
	metrics.AppendDuration.Observe(float64(time.Since(start).Milliseconds()))
	metrics.EventsIngested.WithLabelValues(string(rec.Type)).Inc()

	g.log.Info("event stored",
		zap.String("device_id", rec.DeviceID),
		zap.String("event_type", string(rec.Type)),
		zap.Time("created_at", rec.CreatedAt),
	)

	// Best-effort feed; the publisher logs its own failures and the DB row
	// is already the source of truth.
	if g.pub != nil {
		_ = g.pub.Publish(ctx, rec)
	}

	return rec, nil
}
