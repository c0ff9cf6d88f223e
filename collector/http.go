package collector

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultReportPath is the path browsers deliver report batches to.
const DefaultReportPath = "/report"

// NELHandler is a http.Handler that receives NEL report deliveries from
// browsers, resolves the delivering client's context, and emits one log
// record per report.
type NELHandler struct {
	Resolver        *Resolver
	Emitter         *Emitter
	Path            string // report delivery path, DefaultReportPath if empty
	NumberOfProxies int
	MaxBytes        int64
}

// NewNELHandler returns a handler with the default path and size limit.
func NewNELHandler(resolver *Resolver, emitter *Emitter) *NELHandler {
	return &NELHandler{
		Resolver: resolver,
		Emitter:  emitter,
	}
}

// MaximumBytes() returns the maximum number of bytes allowed in a
// POST request.  Larger request bodies are dropped whole.
func (nh *NELHandler) MaximumBytes() int64 {
	if nh.MaxBytes > 0 {
		return nh.MaxBytes
	} else {
		return 1 << 20 // 1 MB
	}
}

func (nh *NELHandler) path() string {
	if nh.Path == "" {
		return DefaultReportPath
	}
	return nh.Path
}

// writeNoContent sends the fixed 204 reply browsers expect from a
// reporting endpoint, CORS headers included.
func writeNoContent(resp http.ResponseWriter) {
	h := resp.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusNoContent)
}

// ServeHTTP handles NEL HTTP requests.  Once a request matches the
// report path the reply is always 204, whether or not its batch made it
// into the log: delivery is best effort, and failures surface only in
// metrics and traces.  Everything off the report path is a 404.
func (nh *NELHandler) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	start := time.Now()
	requests.Inc()

	ctx := req.Context()
	span := trace.SpanFromContext(ctx)
	span.AddEvent("Received request")

	// recordTime updates requestLatency with the time since this request started.
	recordTime := func() {
		elapsed := time.Since(start)
		requestLatency.Observe(elapsed.Seconds())
	}

	if req.URL.Path != nh.path() || (req.Method != "POST" && req.Method != "OPTIONS") {
		http.Error(resp, "Not found", http.StatusNotFound)
		responseCodes.WithLabelValues("404").Inc()
		recordTime()
		return
	}

	if req.Method == "POST" {
		if err := nh.ingest(req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "report batch dropped")
		} else {
			span.SetStatus(codes.Ok, "")
		}
	} else {
		// CORS preflight.
		span.SetStatus(codes.Ok, "")
	}

	writeNoContent(resp)
	responseCodes.WithLabelValues("204").Inc()
	recordTime()
}

// ingest runs one POST body through the pipeline: decode the batch,
// resolve the client once, stamp out records, and emit them.  An error
// anywhere drops the whole batch.
func (nh *NELHandler) ingest(req *http.Request) error {
	span := trace.SpanFromContext(req.Context())

	cap := nh.MaximumBytes()

	body := bytes.NewBuffer(make([]byte, 0, cap))
	b, err := body.ReadFrom(io.LimitReader(req.Body, cap+1))
	if err != nil {
		readErrors.Inc()
		slog.Error("Unable to read from req.Body", "error", err)
		return fmt.Errorf("read request body: %w", err)
	}

	requestBytes.Observe(float64(b))

	if b > cap {
		truncatedErrors.Inc()
		slog.Error("Message truncated", "size", b)
		return fmt.Errorf("request body larger than %d bytes", cap)
	}

	reports, err := ParseReports(body.Bytes())
	if err != nil {
		parseErrors.Inc()
		slog.Error("Unable to parse JSON", "error", err, "json", body.Bytes())
		return err
	}

	requestReports.Observe(float64(len(reports)))

	ip, err := nh.clientIP(req)
	if err != nil {
		resolveErrors.Inc()
		slog.Error("Unable to determine client address", "error", err)
		return err
	}

	span.AddEvent("Resolving client context")

	client, err := nh.Resolver.Resolve(req.Context(), ip, req.Header.Get("User-Agent"))
	if err != nil {
		resolveErrors.Inc()
		slog.Error("Unable to resolve client context", "error", err)
		return err
	}

	now := time.Now()
	records := make([]LogRecord, 0, len(reports))
	for _, report := range reports {
		records = append(records, NewLogRecord(report, client, now))
	}

	span.AddEvent(fmt.Sprintf("Emitting %d records", len(records)))

	if err := nh.Emitter.Emit(req.Context(), records); err != nil {
		sinkErrors.Inc()
		slog.Error("Unable to write to log sink", "error", err)
		return err
	}

	return nil
}

// clientIP determines the delivering client's address.  With trusted
// proxies in front of the listener it comes from X-Forwarded-For,
// counted from the right; otherwise it is the connecting address.
func (nh *NELHandler) clientIP(req *http.Request) (net.IP, error) {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}

	if nh.NumberOfProxies > 0 {
		ips := req.Header.Get("X-Forwarded-For")
		addresses := strings.Split(ips, ",")
		if ips != "" && len(addresses) >= nh.NumberOfProxies {
			host = strings.TrimSpace(addresses[len(addresses)-nh.NumberOfProxies])
		}
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return nil, fmt.Errorf("unparseable client address %q", host)
	}
	return ip, nil
}
