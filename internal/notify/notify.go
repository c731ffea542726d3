// Package notify announces finished conversions to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mgpai22/xls2ass/internal/logging"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "xls2ass.conversion.completed"

// ConversionCompleted is published once per successful conversion.
type ConversionCompleted struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Sheets    []string       `json:"sheets"`
	Events    int            `json:"events"`
	Styles    int            `json:"styles"`
	Format    string         `json:"format"`
	PerStyle  map[string]int `json:"per_style,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, event ConversionCompleted) error
	Close()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, ConversionCompleted) error { return nil }
func (Nop) Close()                                             {}

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *logging.Logger
}

func NewNATSPublisher(url, token, subject string, logger *logging.Logger) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	opts := []nats.Option{
		nats.Name("xls2ass"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warnw("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Infow("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &NATSPublisher{conn: nc, subject: subject, logger: logger}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, event ConversionCompleted) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := Encode(event)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", p.subject, err)
	}
	p.logger.Debugw("published conversion event", "subject", p.subject, "id", event.ID)
	return nil
}

func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}

// Encode renders the wire form of event.
func Encode(event ConversionCompleted) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return payload, nil
}
