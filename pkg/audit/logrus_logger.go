package audit

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogrusLogger writes events as structured log entries
type LogrusLogger struct {
	log logrus.FieldLogger
}

func NewLogrusLogger(log logrus.FieldLogger) *LogrusLogger {
	return &LogrusLogger{log: log}
}

func (l *LogrusLogger) Log(_ context.Context, event *Event) error {
	fields := logrus.Fields{
		"audit":       true,
		"actor_id":    event.ActorID,
		"action":      event.Action,
		"entity_type": event.EntityType,
		"entity_id":   event.EntityID,
	}
	if event.OldValue != nil {
		fields["old_value"] = event.OldValue
	}
	if event.NewValue != nil {
		fields["new_value"] = event.NewValue
	}
	if event.IPAddress != "" {
		fields["ip_address"] = event.IPAddress
	}
	l.log.WithFields(fields).Info("audit event")
	return nil
}

func (l *LogrusLogger) Close() error {
	return nil
}
