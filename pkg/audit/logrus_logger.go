package audit

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/staffing/pkg/contextkeys"
)

// LogrusLogger writes audit events as JSON lines through logrus
type LogrusLogger struct {
	log *logrus.Logger
	now func() time.Time
}

// NewLogrusLogger creates an audit logger writing to out
func NewLogrusLogger(out io.Writer) *LogrusLogger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	log.SetLevel(logrus.InfoLevel)
	return &LogrusLogger{log: log, now: time.Now}
}

// Log writes the event. Failures and denials are logged at warn level.
// The request ID is taken from ctx when the event does not carry one.
func (l *LogrusLogger) Log(ctx context.Context, event *Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}
	if event.RequestID == "" {
		event.RequestID = contextkeys.GetRequestID(ctx)
	}

	fields := logrus.Fields{
		"audit":      true,
		"event_type": string(event.EventType),
		"status":     string(event.Status),
	}
	if event.AccountID != nil {
		fields["account_id"] = *event.AccountID
	}
	if event.Email != "" {
		fields["email"] = event.Email
	}
	if len(event.TargetIDs) > 0 {
		fields["target_ids"] = event.TargetIDs
	}
	if event.IPAddress != "" {
		fields["ip_address"] = event.IPAddress
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := l.log.WithFields(fields).WithTime(event.Timestamp)
	switch event.Status {
	case EventStatusFailure, EventStatusDenied:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}
	return nil
}

// Close is a no-op; the writer is owned by the caller
func (l *LogrusLogger) Close() error {
	return nil
}
