package audit

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestNewDBLogger(t *testing.T) {
	_, err := NewDBLogger(nil)
	assert.EqualError(t, err, "database connection is required")

	db, _ := setupMockDB(t)
	logger, err := NewDBLogger(db)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestDBLogger_Log(t *testing.T) {
	t.Run("with old and new values", func(t *testing.T) {
		db, mock := setupMockDB(t)
		logger := &DBLogger{db: db}

		event := &Event{
			ActorID:    1,
			Action:     ActionUpdateZoneAssignments,
			EntityType: EntityTypeUser,
			EntityID:   9,
			OldValue:   map[string]interface{}{"zoneIds": []int64{1}},
			NewValue:   map[string]interface{}{"zoneIds": []int64{1, 2}},
			IPAddress:  "10.0.0.1",
			UserAgent:  "curl/8.0",
			Timestamp:  time.Now().UTC(),
		}

		mock.ExpectQuery("INSERT INTO activity_logs").
			WithArgs(
				int64(1), "UPDATE_ZONE_ASSIGNMENTS", "USER", int64(9),
				[]byte(`{"zoneIds":[1]}`), []byte(`{"zoneIds":[1,2]}`),
				"10.0.0.1", "curl/8.0", sqlmock.AnyArg(),
			).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(77))

		require.NoError(t, logger.Log(context.Background(), event))
		assert.Equal(t, int64(77), event.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil values become NULL", func(t *testing.T) {
		db, mock := setupMockDB(t)
		logger := &DBLogger{db: db}

		mock.ExpectQuery("INSERT INTO activity_logs").
			WithArgs(int64(1), "REMOVE_ZONE", "USER", int64(9), nil, sqlmock.AnyArg(), nil, nil, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		err := logger.Log(context.Background(), &Event{
			ActorID: 1, Action: ActionRemoveZone, EntityType: EntityTypeUser, EntityID: 9,
			NewValue: map[string]int64{"zoneId": 3},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure", func(t *testing.T) {
		db, mock := setupMockDB(t)
		logger := &DBLogger{db: db}

		mock.ExpectQuery("INSERT INTO activity_logs").WillReturnError(errors.New("relation does not exist"))

		err := logger.Log(context.Background(), &Event{Action: ActionAssignZones})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert activity log")
	})

	t.Run("unencodable value", func(t *testing.T) {
		db, _ := setupMockDB(t)
		logger := &DBLogger{db: db}

		err := logger.Log(context.Background(), &Event{NewValue: make(chan int)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to marshal new value")
	})
}

type failingLogger struct {
	calls int
	err   error
}

func (f *failingLogger) Log(context.Context, *Event) error {
	f.calls++
	return f.err
}

func (f *failingLogger) Close() error { return f.err }

type capturingLogger struct {
	events []*Event
}

func (c *capturingLogger) Log(_ context.Context, e *Event) error {
	c.events = append(c.events, e)
	return nil
}

func (c *capturingLogger) Close() error { return nil }

func TestRecord(t *testing.T) {
	t.Run("stamps request info and time", func(t *testing.T) {
		capture := &capturingLogger{}
		ctx := WithRequestInfo(context.Background(), "192.168.1.5", "Mozilla/5.0")

		Record(ctx, capture, nil, &Event{ActorID: 1, Action: ActionAssignZones})

		require.Len(t, capture.events, 1)
		got := capture.events[0]
		assert.Equal(t, "192.168.1.5", got.IPAddress)
		assert.Equal(t, "Mozilla/5.0", got.UserAgent)
		assert.False(t, got.Timestamp.IsZero())
	})

	t.Run("failure is logged not returned", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logrus.New()
		log.SetOutput(buf)
		failing := &failingLogger{err: errors.New("db down")}

		assert.NotPanics(t, func() {
			Record(context.Background(), failing, log, &Event{ActorID: 1, Action: ActionRemoveZone, EntityID: 4})
		})
		assert.Equal(t, 1, failing.calls)
		assert.Contains(t, buf.String(), "failed to write audit event")
		assert.Contains(t, buf.String(), "REMOVE_ZONE")
	})

	t.Run("nil logger", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Record(context.Background(), nil, nil, &Event{})
		})
	})
}

func TestMultiLogger(t *testing.T) {
	failing := &failingLogger{err: errors.New("boom")}
	capture := &capturingLogger{}
	m := NewMultiLogger(failing, capture)

	err := m.Log(context.Background(), &Event{Action: ActionUpdatePermissions})
	assert.EqualError(t, err, "boom")
	assert.Len(t, capture.events, 1, "later loggers still receive the event")

	err = m.Close()
	assert.ErrorContains(t, err, "failed to close logger")
}

func TestLogrusLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	l := NewLogrusLogger(log)
	require.NoError(t, l.Log(context.Background(), &Event{
		ActorID: 2, Action: ActionAssignZones, EntityType: EntityTypeUser, EntityID: 3,
		NewValue: []int64{1, 2},
	}))

	out := buf.String()
	assert.Contains(t, out, `"action":"ASSIGN_ZONES"`)
	assert.Contains(t, out, `"entity_id":3`)
	assert.Contains(t, out, `"new_value":[1,2]`)
	assert.NoError(t, l.Close())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:5555", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:5555", "198.51.100.4"},
		{"remote addr", nil, "10.0.0.2:5555", "10.0.0.2"},
		{"remote addr without port", nil, "10.0.0.2", "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(r))
		})
	}
}

func TestRequestInfoMiddleware(t *testing.T) {
	var info requestInfo
	var ok bool
	h := RequestInfoMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, ok = requestInfoFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "127.0.0.1:1234"
	r.Header.Set("User-Agent", "test-agent")
	h.ServeHTTP(httptest.NewRecorder(), r)

	require.True(t, ok)
	assert.Equal(t, "127.0.0.1", info.ipAddress)
	assert.Equal(t, "test-agent", info.userAgent)
}
