package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig follows sio/siomq's mosquito_sub-style options, reduced
// to the subset a request/reply decision front end needs.
type MQTTConfig struct {
	Broker    string
	ClientID  string
	KeepAlive time.Duration

	// RequestTopic carries inbound JSON input records. ReplyTopic
	// carries the corresponding decided output record.
	RequestTopic string
	ReplyTopic   string

	QoS byte
}

// MQTT subscribes to cfg.RequestTopic and publishes one decided output
// record per inbound message to cfg.ReplyTopic, following
// sio/siomq/main.go's NewClientOptions/NewClient/Subscribe wiring.
func (d *Decider) MQTT(ctx context.Context, cfg MQTTConfig) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.KeepAlive > 0 {
		opts.SetKeepAlive(cfg.KeepAlive)
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Printf("service.Decider.MQTT connection lost: %v", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	defer client.Disconnect(250)

	handler := func(c mqtt.Client, msg mqtt.Message) {
		var input map[string]interface{}
		if err := json.Unmarshal(msg.Payload(), &input); err != nil {
			log.Printf("service.Decider.MQTT bad payload on %s: %v", msg.Topic(), err)
			return
		}

		attrs, err := d.Decide(ctx, input)
		if err != nil {
			log.Printf("service.Decider.MQTT decide error: %v", err)
			return
		}

		js, err := json.Marshal(&attrs)
		if err != nil {
			log.Printf("service.Decider.MQTT marshal error: %v", err)
			return
		}
		c.Publish(cfg.ReplyTopic, cfg.QoS, false, js)
	}

	subToken := client.Subscribe(cfg.RequestTopic, cfg.QoS, handler)
	subToken.Wait()
	if err := subToken.Error(); err != nil {
		return err
	}

	<-ctx.Done()
	client.Unsubscribe(cfg.RequestTopic).Wait()
	return nil
}
