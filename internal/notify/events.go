package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"tradeidea/internal/autogen"
)

const subjectPrefix = "tradeidea.autogen."

// Publisher broadcasts events to other services.
type Publisher interface {
	Publish(ctx context.Context, userID string, event autogen.Event) error
}

// EventMessage is the payload published for every event.
type EventMessage struct {
	UserID     string                 `json:"user_id"`
	Kind       autogen.EventKind      `json:"kind"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// NATSPublisher publishes events on tradeidea.autogen.<kind>.
type NATSPublisher struct {
	conn   *nats.Conn
	now    func() time.Time
	logger *zap.Logger
}

// NewNATSPublisher connects to url. An empty url disables publishing and
// returns nil.
func NewNATSPublisher(url string, logger *zap.Logger) (*NATSPublisher, error) {
	if url == "" {
		return nil, nil
	}
	logger = logger.Named("nats")
	conn, err := nats.Connect(url,
		nats.Name("tradeidea-scheduler"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
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
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, now: time.Now, logger: logger}, nil
}

// Subject returns the subject an event kind is published on.
func Subject(kind autogen.EventKind) string {
	return subjectPrefix + string(kind)
}

func (p *NATSPublisher) Publish(_ context.Context, userID string, event autogen.Event) error {
	data, err := json.Marshal(EventMessage{
		UserID:     userID,
		Kind:       event.Kind,
		Title:      event.Title,
		Message:    event.Message,
		Metadata:   event.Metadata,
		OccurredAt: p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return p.conn.Publish(Subject(event.Kind), data)
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("NATS drain failed", zap.Error(err))
		p.conn.Close()
	}
}
