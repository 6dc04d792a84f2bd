// Package notify publishes build events to NATS so other systems can react
// to readme generation without polling the history store. Subjects mirror the
// history event types, optionally under a configured prefix.
//
// Publishing is best effort. A build never fails because a notification could
// not be delivered; callers log the returned warning and move on.
package notify

import (
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	rgerrors "git.home.luguber.info/inful/readmegen/internal/errors"
	"git.home.luguber.info/inful/readmegen/internal/logfields"
	"git.home.luguber.info/inful/readmegen/internal/retry"
)

// Notifier publishes build events to interested parties.
type Notifier interface {
	// Publish sends one event. The event type becomes the subject.
	Publish(eventType string, payload []byte) error

	// Close flushes pending messages and releases the connection.
	Close() error
}

// NATSNotifier publishes events over a core NATS connection. Transient
// publish failures (reconnect buffer overflow, connection flaps) are retried
// briefly before the error is surfaced.
type NATSNotifier struct {
	conn   *nats.Conn
	prefix string
	policy retry.Policy
	logger *slog.Logger
}

// NewNATSNotifier connects to the given NATS URL. An empty prefix publishes
// on the bare event type subjects.
func NewNATSNotifier(url, prefix string, logger *slog.Logger) (*NATSNotifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name("readmegen"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, rgerrors.NotifyError(url, err)
	}

	logger.Debug("connected to notification broker", slog.String("url", url))

	return &NATSNotifier{
		conn:   conn,
		prefix: prefix,
		// Short fixed backoff; a publish must not stall the build for long.
		policy: retry.NewPolicy(retry.BackoffFixed, 100*time.Millisecond, 500*time.Millisecond, 2),
		logger: logger,
	}, nil
}

// Publish sends the payload on the event type's subject.
func (n *NATSNotifier) Publish(eventType string, payload []byte) error {
	subject := Subject(n.prefix, eventType)

	var err error
	for attempt := 0; ; attempt++ {
		if err = n.conn.Publish(subject, payload); err == nil {
			break
		}
		if attempt >= n.policy.MaxRetries {
			return rgerrors.NotifyError(subject, err)
		}
		n.logger.Debug("retrying event publish",
			slog.String("subject", subject), slog.Int("attempt", attempt+1))
		time.Sleep(n.policy.Delay(attempt + 1))
	}

	n.logger.Debug("published build event", slog.String("subject", subject))
	return nil
}

// Close drains the connection so queued messages flush before shutdown.
func (n *NATSNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	if err := n.conn.Drain(); err != nil {
		n.logger.Warn("failed to drain notification connection", logfields.Error(err))
		n.conn.Close()
		return rgerrors.NotifyError("drain", err)
	}
	return nil
}

// Subject joins an optional prefix with an event type.
func Subject(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// NoopNotifier discards all events. Used when notifications are disabled.
type NoopNotifier struct{}

// NewNoopNotifier creates a notifier that does nothing.
func NewNoopNotifier() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) Publish(eventType string, payload []byte) error { return nil }

func (n *NoopNotifier) Close() error { return nil }
