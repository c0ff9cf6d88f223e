package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

type fakeSink struct {
	channels []string
	lines    [][]byte
	err      error
}

func (s *fakeSink) WriteLine(_ context.Context, channel string, line []byte) error {
	if s.err != nil {
		return s.err
	}
	s.channels = append(s.channels, channel)
	s.lines = append(s.lines, append([]byte(nil), line...))
	return nil
}

func testRecords(n int) []LogRecord {
	now := time.Unix(1700000000, 0)
	client := &ClientInfo{IP: "198.51.100.32/28"}

	records := make([]LogRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, NewLogRecord(Report{
			Type: "network-error",
			URL:  fmt.Sprintf("https://example.com/%d", i),
		}, client, now))
	}
	return records
}

func TestEmit(t *testing.T) {
	sink := &fakeSink{}
	e := &Emitter{Sink: sink}

	if err := e.Emit(context.Background(), testRecords(3)); err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}

	if len(sink.lines) != 3 {
		t.Fatalf("sink received %d lines, want 3", len(sink.lines))
	}
	for i, line := range sink.lines {
		if sink.channels[i] != DefaultChannel {
			t.Errorf("line %d went to channel %q, want %q", i, sink.channels[i], DefaultChannel)
		}

		var record LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
		want := fmt.Sprintf("https://example.com/%d", i)
		if record.Report.URL != want {
			t.Errorf("line %d URL = %q, want %q", i, record.Report.URL, want)
		}
	}
}

func TestEmit_CustomChannel(t *testing.T) {
	sink := &fakeSink{}
	e := &Emitter{Sink: sink, Channel: "browser-errors"}

	if err := e.Emit(context.Background(), testRecords(1)); err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}
	if len(sink.channels) != 1 || sink.channels[0] != "browser-errors" {
		t.Errorf("sink channels = %v, want [browser-errors]", sink.channels)
	}
}

// A record that cannot be serialized is dropped on its own; its
// neighbors still go out and the caller sees no error.
func TestEmit_DropsUnserializable(t *testing.T) {
	records := testRecords(3)
	records[1].Client = &ClientInfo{Latitude: math.NaN()}

	sink := &fakeSink{}
	e := &Emitter{Sink: sink}

	if err := e.Emit(context.Background(), records); err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}
	if len(sink.lines) != 2 {
		t.Fatalf("sink received %d lines, want 2", len(sink.lines))
	}

	var first, last LogRecord
	if err := json.Unmarshal(sink.lines[0], &first); err != nil {
		t.Fatalf("first line is not valid JSON: %v", err)
	}
	if err := json.Unmarshal(sink.lines[1], &last); err != nil {
		t.Fatalf("last line is not valid JSON: %v", err)
	}
	if first.Report.URL != "https://example.com/0" || last.Report.URL != "https://example.com/2" {
		t.Errorf("kept URLs = %q, %q; want records 0 and 2", first.Report.URL, last.Report.URL)
	}
}

func TestEmit_SinkError(t *testing.T) {
	sink := &fakeSink{err: errors.New("broker is gone")}
	e := &Emitter{Sink: sink}

	if err := e.Emit(context.Background(), testRecords(2)); err == nil {
		t.Errorf("Emit did not return an error")
	}
	if len(sink.lines) != 0 {
		t.Errorf("sink received %d lines, want 0", len(sink.lines))
	}
}

func TestEmit_NoRecords(t *testing.T) {
	sink := &fakeSink{}
	e := &Emitter{Sink: sink}

	if err := e.Emit(context.Background(), nil); err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}
	if len(sink.lines) != 0 {
		t.Errorf("sink received %d lines, want 0", len(sink.lines))
	}
}
