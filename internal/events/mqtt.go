package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// MQTTPublisher publishes events to {prefix}/companion/{id}/{type} at QoS 1.
type MQTTPublisher struct {
	cfg    MQTTConfig
	client paho.Client
	logger *slog.Logger
}

// NewMQTTPublisher creates a publisher. Call Connect before Publish.
func NewMQTTPublisher(cfg MQTTConfig, logger *slog.Logger) *MQTTPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &MQTTPublisher{cfg: cfg, logger: logger}
}

// Connect dials the broker and disconnects when ctx is done. An unreachable
// broker fails Connect once ctx ends or connectTimeout passes, whichever is
// first; reconnects only happen after a successful first connection.
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	opts := paho.NewClientOptions().
		AddBroker(p.cfg.BrokerURL).
		SetClientID(p.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)

	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
		opts.SetPassword(p.cfg.Password)
	}

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		p.logger.Error("mqtt connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(paho.Client) {
		p.logger.Info("mqtt connected", "broker", p.cfg.BrokerURL)
	})

	client := paho.NewClient(opts)
	token := client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt connect: %w", err)
		}
	case <-ctx.Done():
		client.Disconnect(0)
		return fmt.Errorf("mqtt connect: %w", ctx.Err())
	case <-time.After(connectTimeout):
		client.Disconnect(0)
		return fmt.Errorf("mqtt connect: timed out after %s", connectTimeout)
	}
	p.client = client

	go func() {
		<-ctx.Done()
		p.Close()
	}()
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// Publish sends ev as JSON and waits for the broker at most publishTimeout.
func (p *MQTTPublisher) Publish(ctx context.Context, ev Event) error {
	if p.client == nil {
		return fmt.Errorf("mqtt publish: not connected")
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	token := p.client.Publish(Topic(p.cfg.TopicPrefix, ev.CompanionID, ev.Type), 1, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt publish: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("mqtt publish: timed out after %s", publishTimeout)
	}
}

// Topic builds the topic an event is published on.
func Topic(prefix, companionID, eventType string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "thringlet"
	}
	return fmt.Sprintf("%s/companion/%s/%s", prefix, companionID, eventType)
}
