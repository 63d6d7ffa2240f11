package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const (
	publishQoS     = 1
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// MQTTConfig configures an MQTTPublisher.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
}

// MQTTPublisher publishes each event as JSON to <Topic>/<event type>.
type MQTTPublisher struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

// NewMQTTPublisher connects to cfg.Broker.
func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return newMQTTPublisher(client, cfg.Topic), nil
}

func newMQTTPublisher(client mqtt.Client, topic string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic, timeout: publishTimeout}
}

// Publish sends ev and waits for the broker to acknowledge it. The wait
// ends with ctx or after the publish timeout, whichever comes first; the
// message may still be delivered later by the client.
func (p *MQTTPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token := p.client.Publish(p.topic+"/"+ev.Type, publishQoS, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return fmt.Errorf("publish %s event: %w", ev.Type, ctx.Err())
	}
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// New returns an MQTT publisher when a broker is configured and Nop
// otherwise.
func New(cfg MQTTConfig) (Publisher, error) {
	if cfg.Broker == "" {
		return Nop{}, nil
	}
	p, err := NewMQTTPublisher(cfg)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"broker": cfg.Broker, "topic": cfg.Topic}).Info("Publishing maintenance events over MQTT")
	return p, nil
}
