package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/vlaamswoordenboek/woordenboek/internal/domain/event"
)

// Conn is the subset of *nats.Conn used for publishing
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Publisher forwards article events to NATS as JSON
type Publisher struct {
	conn   Conn
	prefix string
	logger *zap.Logger
}

// Connect dials the NATS server at url
func Connect(url, clientName string, logger *zap.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}

// NewPublisher creates a publisher that prefixes subjects with prefix
func NewPublisher(conn Conn, prefix string, logger *zap.Logger) *Publisher {
	return &Publisher{conn: conn, prefix: prefix, logger: logger}
}

// Subject returns the NATS subject for an event type, e.g. "woordenboek.article.state_changed"
func (p *Publisher) Subject(t event.Type) string {
	if p.prefix == "" {
		return t.String()
	}
	return p.prefix + "." + t.String()
}

// Handle is a dispatcher handler that publishes the event
func (p *Publisher) Handle(_ context.Context, evt *event.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", evt.ID, err)
	}

	subject := p.Subject(evt.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish event",
			zap.String("subject", subject),
			zap.String("event_id", evt.ID),
			zap.Error(err))
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug("Event published",
		zap.String("subject", subject),
		zap.Int64("article_id", evt.ArticleID))
	return nil
}

// Close drains pending messages and closes the connection
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
