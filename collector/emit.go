package collector

import (
	"context"
	"encoding/json"
	"log/slog"
)

// DefaultChannel is the log stream that receives report records.
const DefaultChannel = "reports"

// LogSink is an append-only collection of named line streams. WriteLine
// must be safe for concurrent use; the handler calls it from every
// request goroutine.
type LogSink interface {
	WriteLine(ctx context.Context, channel string, line []byte) error
}

// Emitter serializes log records and appends them to one channel of a
// LogSink, one JSON object per line.
type Emitter struct {
	Sink    LogSink
	Channel string
}

func (e *Emitter) channel() string {
	if e.Channel == "" {
		return DefaultChannel
	}
	return e.Channel
}

// Emit writes each record as its own line. A record that cannot be
// serialized is dropped and the rest of the batch still goes out; a sink
// write failure stops the batch, since later writes would land behind a
// broken stream anyway.
func (e *Emitter) Emit(ctx context.Context, records []LogRecord) error {
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			droppedRecords.Inc()
			slog.Error("Unable to serialize log record", "error", err, "url", record.Report.URL)
			continue
		}
		if err := e.Sink.WriteLine(ctx, e.channel(), line); err != nil {
			return err
		}
		emittedRecords.Inc()
	}
	return nil
}
