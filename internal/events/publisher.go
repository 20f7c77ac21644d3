package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/KidOfCoding/TripManagement/internal/config"
	"github.com/KidOfCoding/TripManagement/internal/models"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// Event types emitted by the trip lifecycle.
const (
	TripCreated   = "created"
	TripCompleted = "completed"
	TripReopened  = "reopened"
	TripPayment   = "payment"
	TripUpdated   = "updated"
	TripClosed    = "closed"
	TripDeleted   = "deleted"
)

// ErrPublishTimeout is returned when the broker does not acknowledge in time.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Event is the payload published for every trip mutation.
type Event struct {
	Type      string            `json:"type"`
	AccountID string            `json:"accountId"`
	TripID    string            `json:"tripId"`
	TripNo    int64             `json:"tripNo,omitempty"`
	Status    models.TripStatus `json:"status,omitempty"`
	Profit    float64           `json:"profit"`
	At        time.Time         `json:"at"`
}

// NewTripEvent builds an event from the trip's current state.
func NewTripEvent(eventType string, trip *models.Trip) Event {
	return Event{
		Type:      eventType,
		AccountID: trip.UserID,
		TripID:    trip.ID.Hex(),
		TripNo:    trip.TripNo,
		Status:    trip.Status.TripStatus,
		Profit:    trip.Profit,
		At:        time.Now().UTC(),
	}
}

// Publisher sends trip events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// MQTTPublisher publishes events to <prefix>/<account>/<type> with QoS 1.
type MQTTPublisher struct {
	client  mqtt.Client
	prefix  string
	timeout time.Duration
}

// NewMQTTPublisher connects to the configured broker.
func NewMQTTPublisher(cfg config.MQTTConfig, log logrus.FieldLogger) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost")
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		log.WithField("broker", cfg.Broker).Info("MQTT connected")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return NewMQTTPublisherWithClient(client, cfg.TopicPrefix, cfg.PublishTimeout), nil
}

// NewMQTTPublisherWithClient wraps an already configured client.
func NewMQTTPublisherWithClient(client mqtt.Client, prefix string, timeout time.Duration) *MQTTPublisher {
	if prefix == "" {
		prefix = "trips"
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &MQTTPublisher{client: client, prefix: prefix, timeout: timeout}
}

// Topic returns the topic an event is published on.
func (p *MQTTPublisher) Topic(event Event) string {
	return fmt.Sprintf("%s/%s/%s", p.prefix, event.AccountID, event.Type)
}

func (p *MQTTPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	token := p.client.Publish(p.Topic(event), 1, false, payload)
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrPublishTimeout
	}
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// Noop discards events. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close()                               {}
