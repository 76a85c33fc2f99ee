// Package events publishes entity-change notifications after committed writes
// so that dashboards can refresh names and selections.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

type Op string

const (
	OpCreate Op = "create"
	OpEdit   Op = "edit"
	OpDelete Op = "delete"
)

type Change struct {
	Entity string `json:"entity"`
	ID     int64  `json:"id"`
	Op     Op     `json:"op"`
	At     int64  `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

// Nop discards every change; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Change) error { return nil }

// MQTTPublisher sends changes as JSON to a single topic.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
}

func NewMQTTPublisher(broker, clientID, topic string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID).SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &MQTTPublisher{client: client, topic: topic}, nil
}

func (p *MQTTPublisher) Publish(ctx context.Context, c Change) error {
	if c.At == 0 {
		c.At = time.Now().Unix()
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic, 1, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// Subscribe delivers decoded changes from topic to fn until the client disconnects.
func Subscribe(broker, clientID, topic string, fn func(Change)) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID).SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		var c Change
		if err := json.Unmarshal(msg.Payload(), &c); err != nil {
			log.Error().Err(err).Str("topic", msg.Topic()).Msg("bad change payload")
			return
		}
		fn(c)
	}
	if token := client.Subscribe(topic, 1, handler); token.Wait() && token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("mqtt subscribe: %w", token.Error())
	}
	return client, nil
}
