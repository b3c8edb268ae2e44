package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/staffing/pkg/contextkeys"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogrusLogger_Success(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusLogger(&buf)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	logger.now = func() time.Time { return fixed }

	id := int64(7)
	ctx := contextkeys.WithRequestID(context.Background(), "req-1")
	err := logger.Log(ctx, &Event{
		EventType: EventTypeAccountDelete,
		Status:    EventStatusSuccess,
		AccountID: &id,
		TargetIDs: []int64{3, 4},
		Message:   "accounts deleted",
	})
	require.NoError(t, err)

	entry := decode(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "account.delete", entry["event_type"])
	assert.Equal(t, "success", entry["status"])
	assert.Equal(t, float64(7), entry["account_id"])
	assert.Equal(t, []interface{}{float64(3), float64(4)}, entry["target_ids"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "accounts deleted", entry["msg"])
	assert.Equal(t, true, entry["audit"])
	assert.Equal(t, fixed.Format(time.RFC3339Nano), entry["time"])
}

func TestLogrusLogger_FailureAtWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusLogger(&buf)

	require.NoError(t, logger.Log(context.Background(), &Event{
		EventType: EventTypeAuthLoginFailed,
		Status:    EventStatusFailure,
		Email:     "ghost@example.com",
		IPAddress: "10.0.0.1",
		Message:   "account email does not exist",
	}))

	entry := decode(t, &buf)
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "ghost@example.com", entry["email"])
	assert.Equal(t, "10.0.0.1", entry["ip_address"])
	assert.NotContains(t, entry, "account_id")
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, NoopLogger{}, FromContext(context.Background()))

	logger := NewLogrusLogger(&bytes.Buffer{})
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NoopLogger{}
	assert.NoError(t, l.Log(context.Background(), &Event{}))
	assert.NoError(t, l.Close())
}
