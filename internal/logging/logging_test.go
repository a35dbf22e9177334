package logging

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
)

type logEntry struct {
	level  string
	msg    string
	err    error
	fields watermill.LogFields
}

// recordingAdapter captures log calls so tests can assert on them.
type recordingAdapter struct {
	entries *[]logEntry
	fields  watermill.LogFields
}

func newRecordingAdapter() *recordingAdapter {
	return &recordingAdapter{entries: &[]logEntry{}}
}

func (r *recordingAdapter) record(level, msg string, err error, fields watermill.LogFields) {
	merged := watermill.LogFields{}
	for k, v := range r.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	*r.entries = append(*r.entries, logEntry{level: level, msg: msg, err: err, fields: merged})
}

func (r *recordingAdapter) Error(msg string, err error, fields watermill.LogFields) {
	r.record("error", msg, err, fields)
}

func (r *recordingAdapter) Info(msg string, fields watermill.LogFields) {
	r.record("info", msg, nil, fields)
}

func (r *recordingAdapter) Debug(msg string, fields watermill.LogFields) {
	r.record("debug", msg, nil, fields)
}

func (r *recordingAdapter) Trace(msg string, fields watermill.LogFields) {
	r.record("trace", msg, nil, fields)
}

func (r *recordingAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	merged := watermill.LogFields{}
	for k, v := range r.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &recordingAdapter{entries: r.entries, fields: merged}
}

func TestServiceLoggerForwardsLevels(t *testing.T) {
	rec := newRecordingAdapter()
	logger := NewWatermillServiceLogger(rec)

	logger.Debug("d", nil)
	logger.Info("i", LogFields{"k": "v"})
	logger.Trace("t", nil)
	wantErr := errors.New("boom")
	logger.Error("e", wantErr, nil)

	entries := *rec.entries
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if entries[0].level != "debug" || entries[1].level != "info" || entries[2].level != "trace" || entries[3].level != "error" {
		t.Fatalf("unexpected level order: %+v", entries)
	}
	if entries[1].fields["k"] != "v" {
		t.Errorf("info fields not forwarded: %v", entries[1].fields)
	}
	if !errors.Is(entries[3].err, wantErr) {
		t.Errorf("error not forwarded: %v", entries[3].err)
	}
}

func TestWithAttachesFieldsToLaterEntries(t *testing.T) {
	rec := newRecordingAdapter()
	logger := NewWatermillServiceLogger(rec).With(LogFields{"worker": "w1"})

	logger.Info("started", LogFields{"queue": "tasks"})

	entries := *rec.entries
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].fields["worker"] != "w1" {
		t.Errorf("With field missing: %v", entries[0].fields)
	}
	if entries[0].fields["queue"] != "tasks" {
		t.Errorf("call-site field missing: %v", entries[0].fields)
	}
}

func TestWatermillAdapterRoundTrip(t *testing.T) {
	rec := newRecordingAdapter()
	adapter := NewWatermillAdapter(NewWatermillServiceLogger(rec))

	adapter.Info("router running", watermill.LogFields{"handler": "task-consumer"})
	adapter.With(watermill.LogFields{"topic": "tasks"}).Debug("subscribed", nil)

	entries := *rec.entries
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].fields["handler"] != "task-consumer" {
		t.Errorf("fields lost through adapter: %v", entries[0].fields)
	}
	if entries[1].fields["topic"] != "tasks" {
		t.Errorf("With fields lost through adapter: %v", entries[1].fields)
	}
}

func TestNewSlogServiceLoggerPanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil slog logger")
		}
	}()
	NewSlogServiceLogger(nil)
}

func TestNewSlogServiceLoggerAcceptsLogger(t *testing.T) {
	logger := NewSlogServiceLogger(slog.Default())
	if logger == nil {
		t.Fatal("expected a usable logger")
	}
}
