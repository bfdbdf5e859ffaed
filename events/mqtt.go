package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/samber/oops"

	"github.com/biosecret/go-tasks/models"
)

const defaultTopic = "tareas"

// mqttClient is the part of mqtt.Client the publisher uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes task events to <prefix>/<owner_id>.
type MQTTPublisher struct {
	client mqttClient
	prefix string
	logger *slog.Logger
}

// ParseMQTTURL splits an mqtt://host:port/prefix URL into broker address and topic prefix.
func ParseMQTTURL(raw string) (broker, prefix string, err error) {
	uri, err := url.Parse(raw)
	if err != nil {
		return "", "", oops.Code("MQTT_URL_INVALID").With("url", raw).Wrap(err)
	}
	if uri.Host == "" {
		return "", "", oops.Code("MQTT_URL_INVALID").With("url", raw).Errorf("missing broker host")
	}
	prefix = strings.Trim(uri.Path, "/")
	if prefix == "" {
		prefix = defaultTopic
	}
	return fmt.Sprintf("tcp://%s", uri.Host), prefix, nil
}

func createClientOptions(clientID string, uri *url.URL, broker string) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	if uri.User != nil {
		opts.SetUsername(uri.User.Username())
		if password, ok := uri.User.Password(); ok {
			opts.SetPassword(password)
		}
	}
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	return opts
}

// ConnectMQTT dials the broker named by rawURL.
func ConnectMQTT(rawURL, clientID string, logger *slog.Logger) (*MQTTPublisher, error) {
	broker, prefix, err := ParseMQTTURL(rawURL)
	if err != nil {
		return nil, err
	}
	uri, _ := url.Parse(rawURL)

	client := mqtt.NewClient(createClientOptions(clientID, uri, broker))
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, oops.Code("MQTT_CONNECT_FAILED").With("broker", broker).Errorf("timed out connecting to broker")
	}
	if err := token.Error(); err != nil {
		return nil, oops.Code("MQTT_CONNECT_FAILED").With("broker", broker).Wrap(err)
	}

	return NewMQTTPublisher(client, prefix, logger), nil
}

// NewMQTTPublisher wraps an already connected client.
func NewMQTTPublisher(client mqttClient, prefix string, logger *slog.Logger) *MQTTPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = defaultTopic
	}
	return &MQTTPublisher{client: client, prefix: prefix, logger: logger}
}

// Topic returns the topic an owner's events are published on.
func (p *MQTTPublisher) Topic(ownerID int64) string {
	return fmt.Sprintf("%s/%d", p.prefix, ownerID)
}

// Publish sends ev without waiting for the broker acknowledgement.
func (p *MQTTPublisher) Publish(ctx context.Context, ev models.TaskEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.ErrorContext(ctx, "encode task event", "error", err)
		return
	}

	topic := p.Topic(ev.OwnerID)
	token := p.client.Publish(topic, 0, false, payload)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			p.logger.Error("publish task event", "topic", topic, "error", err)
		}
	}()
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
