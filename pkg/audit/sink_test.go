package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSink struct {
	name   string
	err    error
	events []*Event
	closed bool
}

func (r *recordingSink) Write(_ context.Context, event *Event) error {
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingSink) Close() error {
	r.closed = true
	return r.err
}

func (r *recordingSink) Name() string { return r.name }

func TestNewEvent(t *testing.T) {
	ts := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	first := NewEvent(EventJobDeleted, SeverityWarning, ts, "folder/build", "build timeout")
	second := NewEvent(EventJobDeleted, SeverityWarning, ts, "folder/build", "build timeout")

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID, "each event gets its own ID")
	assert.Equal(t, EventJobDeleted, first.Type)
	assert.Equal(t, SeverityWarning, first.Severity)
	assert.Equal(t, ts, first.Timestamp)
	assert.Equal(t, "folder/build", first.Job)
	assert.Equal(t, "build timeout", first.Reason)
}

func TestLogSinkWritesStructuredEntry(t *testing.T) {
	core, recorded := observer.New(zap.DebugLevel)
	sink := NewLogSink(zap.New(core))

	event := NewEvent(EventJobDeactivated, SeverityInfo, time.Now(), "nightly", "no successful build")
	event.RunID = "run-1"
	require.NoError(t, sink.Write(context.Background(), event))

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "audit_event", entries[0].Message)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "nightly", ctx["job"])
	assert.Equal(t, "job.deactivated", ctx["event_type"])
	assert.Equal(t, "run-1", ctx["run_id"])
	assert.Equal(t, "no successful build", ctx["reason"])
	assert.Equal(t, "log", sink.Name())
	assert.NoError(t, sink.Close())
}

func TestMultiSinkWritesAllAndReturnsLastError(t *testing.T) {
	failing := &recordingSink{name: "failing", err: errors.New("broker down")}
	healthy := &recordingSink{name: "healthy"}
	multi := NewMultiSink([]Sink{failing, healthy}, zaptest.NewLogger(t))

	event := NewEvent(EventJobDeleted, SeverityWarning, time.Now(), "job", "reason")
	err := multi.Write(context.Background(), event)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, failing.events, 1)
	assert.Len(t, healthy.events, 1, "a failing sink must not stop the others")

	_ = multi.Close()
	assert.True(t, failing.closed)
	assert.True(t, healthy.closed)
	assert.Equal(t, "multi", multi.Name())
}

func TestNopSink(t *testing.T) {
	var sink Sink = NopSink{}
	assert.NoError(t, sink.Write(context.Background(), &Event{}))
	assert.NoError(t, sink.Close())
	assert.Equal(t, "nop", sink.Name())
}
