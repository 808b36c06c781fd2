package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"iothub/internal/logger"
)

// Inbound topics the hub listens on. "+" matches a single device_id segment.
const (
	TopicRegister = "iot/dashboard/register"
	TopicSensors  = "iot/dashboard/+/sensors"
	TopicStatus   = "iot/dashboard/+/status"
)

// ControlTopic returns the outbound control topic for one device.
func ControlTopic(deviceID string) string {
	return fmt.Sprintf("iot/dashboard/%s/control", deviceID)
}

const (
	connectTimeout   = 10 * time.Second
	publishTimeout   = 5 * time.Second
	disconnectMillis = 250
)

// MessageHandler receives every inbound message for a subscription.
type MessageHandler func(topic string, payload []byte)

// Config carries broker connection settings.
type Config struct {
	BrokerURL string // e.g. tcp://broker.hivemq.com:1883
	ClientID  string
	Username  string
	Password  string
}

// Client wraps the paho client with QoS 0 semantics: Publish returns once the
// broker accepted the send, never a delivery confirmation.
type Client struct {
	client pahomqtt.Client
	log    *logger.Logger
}

// Connect dials the broker and blocks until the connection is up or the
// attempt fails. Reconnection afterwards is handled by the paho client.
func Connect(cfg Config, log *logger.Logger) (*Client, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)

	opts.OnConnect = func(pahomqtt.Client) {
		log.Infow("mqtt_connected", "broker", cfg.BrokerURL)
	}
	opts.OnConnectionLost = func(_ pahomqtt.Client, err error) {
		log.Errorw("mqtt_connection_lost", "err", err)
	}

	client := pahomqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to broker %s: %w", cfg.BrokerURL, token.Error())
	}

	return &Client{client: client, log: log}, nil
}

// Subscribe registers handler for every message on topic (QoS 0).
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	token := c.client.Subscribe(topic, 0, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, token.Error())
	}
	c.log.Infow("mqtt_subscribed", "topic", topic)
	return nil
}

// Publish sends payload to topic at QoS 0, unretained.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports whether a live broker connection exists right now.
func (c *Client) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Close disconnects from the broker, allowing in-flight work to finish.
func (c *Client) Close() {
	c.client.Disconnect(disconnectMillis)
}
