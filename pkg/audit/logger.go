package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger persists audit events
type Logger interface {
	Log(ctx context.Context, event *Event) error
	Close() error
}

// Record stamps event with the request's client info and the current time,
// then hands it to logger. A failure is logged at warning level and
// otherwise ignored.
func Record(ctx context.Context, logger Logger, log logrus.FieldLogger, event *Event) {
	if logger == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if info, ok := requestInfoFromContext(ctx); ok {
		if event.IPAddress == "" {
			event.IPAddress = info.ipAddress
		}
		if event.UserAgent == "" {
			event.UserAgent = info.userAgent
		}
	}

	if err := logger.Log(ctx, event); err != nil && log != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"action":    event.Action,
			"actor_id":  event.ActorID,
			"entity_id": event.EntityID,
		}).Warn("failed to write audit event")
	}
}

// NopLogger discards every event
type NopLogger struct{}

func (NopLogger) Log(context.Context, *Event) error { return nil }
func (NopLogger) Close() error                      { return nil }
