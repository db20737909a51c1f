package notifier

import (
	"context"

	"github.com/sirupsen/logrus"
)

// NoopNotifier logs the message instead of sending it.
type NoopNotifier struct{}

// NewNoopNotifier constructs a no-op notifier.
func NewNoopNotifier() *NoopNotifier {
	return &NoopNotifier{}
}

// Notify logs and returns nil.
func (n *NoopNotifier) Notify(_ context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"recipient": msg.Recipient,
		"subject":   msg.Subject,
	}).Debug("notification skipped by noop notifier")
	return nil
}
