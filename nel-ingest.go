package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/driftlog/nel-ingest/collector"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	oltpgrpc "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
)

var (
	listenAddr      = flag.String("listen", ":8080", "Port (and optionally host) to listen for HTTP requests on.")
	metricsAddr     = flag.String("metrics_listen", "", "Port (and optionally host) to serve Prometheus metrics on; empty disables metrics.")
	readTimeout     = flag.Int("read_timeout", 10, "Seconds to wait for HTTP reads to finish,")
	writeTimeout    = flag.Int("write_timeout", 10, "Seconds to wait for HTTP writes to finish.")
	maxMsgSize      = flag.Int("max_message_size", 1<<20, "Maximum number of bytes allowed in a NEL POST request.")
	numberOfProxies = flag.Int("number_of_proxies", 0, "Number of HTTP proxies to expect; this controls how client IPs are extracted from X-Forwarded-For headers.")
	reportPath      = flag.String("report_path", collector.DefaultReportPath, "URL path that accepts report deliveries.")
	channel         = flag.String("channel", collector.DefaultChannel, "Name of the log channel that receives report records.")
	sinkName        = flag.String("sink", "stdout", "Log sink to write records to; one of stdout, file, kafka, or sql.")
	logDir          = flag.String("log_dir", ".", "Directory for channel log files when --sink=file.")
	dbTable         = flag.String("db_table", "", "Name of the database table to write to when --sink=sql.")
	geoipCity       = flag.String("geoip_city", "", "Path to a MaxMind GeoIP2/GeoLite2 City database.")
	geoipASN        = flag.String("geoip_asn", "", "Path to a MaxMind GeoIP2/GeoLite2 ASN database; empty leaves ASN fields blank.")
	uaRegexes       = flag.String("ua_regexes", "", "Path to a uap-core regexes.yaml file; empty uses the compiled-in definitions.")
	trace           = flag.Bool("trace", false, "Enable otel tracing.")
)

func initTracer() (*sdktrace.TracerProvider, error) {
	exporter, err := oltpgrpc.New(context.Background())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// buildSink constructs the log sink selected by --sink.  The returned
// io.Closer is nil for sinks with nothing to close.
func buildSink(ctx context.Context) (collector.LogSink, io.Closer, error) {
	switch *sinkName {
	case "stdout":
		return collector.NewWriterSink(os.Stdout), nil, nil
	case "file":
		sink := collector.NewFileSink(*logDir)
		return sink, sink, nil
	case "kafka":
		brokers := strings.Split(getenv("KAFKA_BROKERS", "localhost:9092"), ",")
		sink := collector.NewKafkaSink(brokers)
		return sink, sink, nil
	case "sql":
		if *dbTable == "" {
			return nil, nil, fmt.Errorf("--sink=sql requires --db_table=<tablename>")
		}
		sink := collector.NewSqlSink(*dbTable)
		if err := sink.Connect(ctx); err != nil {
			return nil, nil, err
		}
		return sink, sink, nil
	}
	return nil, nil, fmt.Errorf("unknown sink %q", *sinkName)
}

func main() {
	flag.Parse()

	if *geoipCity == "" {
		fmt.Fprintf(os.Stderr, "Must supply --geoip_city=<path> at a minimum\n")
		os.Exit(1)
	}

	// Set up otel tracing
	if *trace {
		tp, err := initTracer()
		if err != nil {
			slog.Error("Unable to initialize otel tracer", "error", err)
			os.Exit(1)
		}
		defer func() {
			tp.Shutdown(context.Background())
		}()
	}

	geo, err := collector.OpenMaxMind(*geoipCity, *geoipASN)
	if err != nil {
		slog.Error("Unable to open GeoIP databases", "error", err)
		os.Exit(1)
	}
	defer geo.Close()

	uaParser := collector.NewUAParser()
	if *uaRegexes != "" {
		uaParser, err = collector.NewUAParserFromFile(*uaRegexes)
		if err != nil {
			slog.Error("Unable to load user agent regexes", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, closer, err := buildSink(ctx)
	if err != nil {
		slog.Error("Unable to set up log sink", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}

	nelHandler := collector.NewNELHandler(
		&collector.Resolver{Geo: geo, UserAgents: uaParser},
		&collector.Emitter{Sink: sink, Channel: *channel},
	)
	nelHandler.Path = *reportPath
	nelHandler.NumberOfProxies = *numberOfProxies
	nelHandler.MaxBytes = int64(*maxMsgSize)

	var handler http.Handler
	handler = nelHandler
	if *trace {
		handler = otelhttp.NewHandler(nelHandler, "nel")
	}

	if *metricsAddr != "" {
		go func() {
			if err := collector.RunMetricsServer(*metricsAddr); err != nil {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	s := &http.Server{
		Addr:           *listenAddr,
		Handler:        handler,
		ReadTimeout:    time.Duration(*readTimeout) * time.Second,
		WriteTimeout:   time.Duration(*writeTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		slog.Info("Listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		slog.Error("Unable to shut down cleanly", "error", err)
	}
}
