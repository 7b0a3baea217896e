package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/adilzhm/fleet-tracking-system/internal/domain/models"
	wrap "github.com/adilzhm/fleet-tracking-system/pkg/logger/wrapper"
	"github.com/adilzhm/fleet-tracking-system/pkg/metrics"
	"github.com/adilzhm/fleet-tracking-system/pkg/rabbit"
)

const serviceName = "tracking-service"

const (
	// Routed events: geofence transitions, presence changes, errors.
	ExchangeTrackingTopic = "tracking_topic"
	// Raw position stream, every consumer gets every update.
	ExchangeLocationFanout = "location_fanout"
)

// TrackingBroker publishes the orchestrator's event stream. Delivery is
// at-most-once relative to committed state: the durable write has already
// happened when publish is attempted, and a failed publish is never
// retried by the caller.
type TrackingBroker struct {
	client        *rabbit.RabbitMQ
	exchangeTypes map[string]string
}

func NewTrackingBroker(client *rabbit.RabbitMQ) *TrackingBroker {
	return &TrackingBroker{
		client: client,
		exchangeTypes: map[string]string{
			ExchangeTrackingTopic:  "topic",
			ExchangeLocationFanout: "fanout",
		},
	}
}

// Setup declares the exchanges. Idempotent, safe to call on reconnect.
func (r *TrackingBroker) Setup(ctx context.Context) error {
	const op = "TrackingBroker.Setup"

	for exchange, kind := range r.exchangeTypes {
		if err := r.client.Channel.ExchangeDeclare(exchange, kind, true, false, false, false, nil); err != nil {
			return wrap.Error(ctx, fmt.Errorf("%s: declare %s: %w", op, exchange, err))
		}
	}
	return nil
}

func (r *TrackingBroker) publish(ctx context.Context, exchange, routingKey string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		Timestamp:     time.Now(),
		CorrelationId: wrap.GetRequestID(ctx),
	}

	err = retry(5, time.Second*2,
		func() error {
			return r.client.Channel.PublishWithContext(
				ctx,
				exchange,
				routingKey,
				false,
				false,
				pub,
			)
		})
	metrics.RecordRabbitMQPublish(serviceName, exchange, err)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

// PublishLocationUpdate fans the raw position stream out to every bound
// consumer.
func (r *TrackingBroker) PublishLocationUpdate(ctx context.Context, msg models.LocationUpdateMessage) error {
	ctx = wrap.WithAction(ctx, "publish_location_update")

	if err := r.publish(ctx, ExchangeLocationFanout, "", msg); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

func (r *TrackingBroker) PublishGeofenceEvent(ctx context.Context, msg models.GeofenceEventMessage) error {
	ctx = wrap.WithAction(ctx, "publish_geofence_event")
	key := fmt.Sprintf("geofence.%s.%s", msg.EventType, msg.ZoneID)

	if err := r.publish(ctx, ExchangeTrackingTopic, key, msg); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

func (r *TrackingBroker) PublishDriverPresence(ctx context.Context, msg models.DriverPresenceMessage) error {
	ctx = wrap.WithAction(ctx, "publish_driver_presence")
	key := fmt.Sprintf("driver.presence.%s", msg.DriverID)

	if err := r.publish(ctx, ExchangeTrackingTopic, key, msg); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

// PublishError signals an aborted transition to consumers that would
// otherwise only notice a gap in the stream.
func (r *TrackingBroker) PublishError(ctx context.Context, msg models.ErrorMessage) error {
	ctx = wrap.WithAction(ctx, "publish_error")
	key := fmt.Sprintf("tracking.error.%s", msg.DriverID)

	if err := r.publish(ctx, ExchangeTrackingTopic, key, msg); err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}
