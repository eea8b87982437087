package mqtt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/smartkasir/pos-backend/pkg/config"
	"github.com/smartkasir/pos-backend/pkg/logger"
)

var (
	errBrokerRequired = errors.New("mqtt broker url is required")

	// ErrNotConnected is returned when an operation is attempted while the
	// broker connection is down.
	ErrNotConnected = errors.New("mqtt client is not connected")
)

// Client wraps the paho connection with the narrow surface the terminal needs.
// The connection lifecycle is owned by the caller: Connect on boot, Close on
// shutdown, injected wherever a bus is required.
type Client struct {
	conn paho.Client
	cfg  config.MQTTConfig
}

// NewClient dials the configured broker and blocks until connected or timeout.
func NewClient(ctx context.Context, cfg config.MQTTConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BrokerURL) == "" {
		return nil, errBrokerRequired
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.ConnectTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	conn := paho.NewClient(opts)
	token := conn.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("connecting to mqtt broker %q: timeout", cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to mqtt broker %q: %w", cfg.BrokerURL, err)
	}

	if logg != nil {
		logg.Info(ctx, "mqtt client connected")
	}

	return &Client{conn: conn, cfg: cfg}, nil
}

// Subscribe registers handler for the topic and waits for broker acknowledgment.
func (c *Client) Subscribe(topic string, handler func(payload []byte)) error {
	if c == nil || c.conn == nil {
		return ErrNotConnected
	}
	token := c.conn.Subscribe(topic, c.cfg.QoS, func(_ paho.Client, msg paho.Message) {
		handler(msg.Payload())
	})
	if !token.WaitTimeout(c.cfg.OpTimeout) {
		return fmt.Errorf("subscribing to %q: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribing to %q: %w", topic, err)
	}
	return nil
}

// Unsubscribe removes the subscription for the topic.
func (c *Client) Unsubscribe(topic string) error {
	if c == nil || c.conn == nil {
		return ErrNotConnected
	}
	token := c.conn.Unsubscribe(topic)
	if !token.WaitTimeout(c.cfg.OpTimeout) {
		return fmt.Errorf("unsubscribing from %q: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("unsubscribing from %q: %w", topic, err)
	}
	return nil
}

// Publish sends payload to the topic, honoring context cancellation.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	if c == nil || c.conn == nil || !c.conn.IsConnectionOpen() {
		return ErrNotConnected
	}
	token := c.conn.Publish(topic, c.cfg.QoS, false, payload)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publishing to %q: %w", topic, err)
		}
		return nil
	}
}

// Connected reports whether the broker connection is currently open.
func (c *Client) Connected() bool {
	return c != nil && c.conn != nil && c.conn.IsConnectionOpen()
}

// Close disconnects from the broker, allowing in-flight work to drain.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	c.conn.Disconnect(250)
	return nil
}
