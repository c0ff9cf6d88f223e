package collector

import (
	"encoding/json"
	"fmt"
)

// See https://www.w3.org/TR/network-error-logging/ for the report format
// user agents deliver to the endpoint.

// ReportBody holds the NEL-specific payload of a report. Values are passed
// through to the log stream verbatim; nothing here is validated against the
// NEL report-type taxonomy.
type ReportBody struct {
	Type             string  `json:"type"`
	ElapsedTime      int64   `json:"elapsed_time"` // milliseconds; may be negative when unknown
	Method           string  `json:"method"`
	Phase            string  `json:"phase"`
	Protocol         string  `json:"protocol"`
	Referrer         string  `json:"referrer"` // Note the correct spelling in NEL, unlike HTTP.
	SamplingFraction float64 `json:"sampling_fraction"`
	ServerIP         string  `json:"server_ip"`
	StatusCode       int     `json:"status_code"`
}

// Report is one NEL report as submitted by a user agent. The top-level
// message and the body both have a `type` field; they're semantically
// different and both usually provided.
type Report struct {
	UserAgent string     `json:"user_agent"`
	URL       string     `json:"url"`
	Type      string     `json:"type"`
	Age       int64      `json:"age"` // milliseconds since the error occurred
	Body      ReportBody `json:"body"`
}

// ParseReports takes the bytes of a HTTP POST and turns them into a slice
// of Reports, preserving submission order. The batch is atomic: a single
// malformed member fails the whole decode, and no partial slice is
// returned.
func ParseReports(msg []byte) ([]Report, error) {
	var reports []Report
	if err := json.Unmarshal(msg, &reports); err != nil {
		return nil, fmt.Errorf("decode report batch: %w", err)
	}
	return reports, nil
}
