package collector

import "time"

// LogRecord is one emitted log line: a single report joined with the
// client context of the request that delivered it.
type LogRecord struct {
	Timestamp int64       `json:"timestamp"`
	Client    *ClientInfo `json:"client"`
	Report    Report      `json:"report"`
}

// NewLogRecord stamps a report with its client context. The caller
// supplies the capture instant; records built from one batch normally
// share one clock reading.
func NewLogRecord(report Report, client *ClientInfo, now time.Time) LogRecord {
	return LogRecord{
		Timestamp: now.Unix(),
		Client:    client,
		Report:    report,
	}
}
