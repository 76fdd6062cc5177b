// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/hemaview/screening-service/internal/cache"
	"github.com/hemaview/screening-service/internal/config"
	"github.com/hemaview/screening-service/internal/handler"
	"github.com/hemaview/screening-service/internal/inference"
	"github.com/hemaview/screening-service/internal/metrics"
	"github.com/hemaview/screening-service/internal/middleware"
	"github.com/hemaview/screening-service/internal/screening"
)

const serviceName = "screening-service"

func main() {
	// Parse command-line flags
	port := flag.Int("port", 0, "HTTP server port (default: 8080)")
	modelPath := flag.String("model", "", "Path to ONNX model file (default: anemia_cpu.onnx)")
	redisAddr := flag.String("redis", "", "Redis address (default: localhost:6379)")
	configFile := flag.String("config", "", "Path to config file (optional)")
	useMock := flag.Bool("mock", false, "Use mock inference engine (for testing)")
	flag.Parse()

	// Load .env before reading the environment (ignore error if absent)
	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override with flags if provided
	if *port > 0 {
		cfg.Port = *port
	}
	if *modelPath != "" {
		cfg.Model = *modelPath
	}
	if *redisAddr != "" {
		cfg.Redis = *redisAddr
	}
	if *useMock {
		cfg.UseMockInference = true
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting %s...", serviceName)
	log.Printf("Configuration: port=%d, model=%s, redis=%s, timeout=%s, otel=%v",
		cfg.Port, cfg.Model, cfg.Redis, cfg.InferenceTimeout, cfg.OTELEnabled)

	// Initialize OpenTelemetry tracer
	var tracerShutdown func(context.Context) error
	if cfg.OTELEnabled {
		tracerShutdown, err = initTracer(cfg.OTELEndpoint)
		if err != nil {
			log.Printf("Warning: Failed to initialize tracer: %v", err)
		} else {
			log.Printf("OpenTelemetry tracing enabled (endpoint: %s)", cfg.OTELEndpoint)
		}
	}

	// Load inference engine. A failed load is not fatal: the service still
	// answers every request with the cautious default result until restarted
	// with a working model.
	var engine inference.Engine
	if cfg.UseMockInference {
		log.Printf("Using mock inference engine")
		engine = inference.NewMock()
	} else {
		log.Printf("Loading ONNX model from %s...", cfg.Model)
		loaded, err := inference.LoadWithRetry(func() (inference.Engine, error) {
			return inference.New(cfg.Model)
		}, cfg.ModelLoadAttempts, cfg.ModelLoadDelay, nil)
		if err != nil {
			log.Printf("Warning: %v (continuing with default predictions)", err)
		} else {
			log.Printf("ONNX model loaded successfully")
			engine = loaded
		}
	}
	if engine != nil {
		defer engine.Close()
	}

	// Initialize Redis cache (optional)
	var cacheClient *cache.Cache
	if cfg.Redis != "" {
		log.Printf("Connecting to Redis at %s...", cfg.Redis)
		cacheClient, err = cache.New(cfg.Redis, cfg.CacheTTL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v (continuing without cache)", err)
		} else {
			defer cacheClient.Close()
			log.Printf("Redis connected successfully")
		}
	}

	screener := screening.New(engine, cfg.InferenceTimeout)
	h := handler.New(screener, cacheClient)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/screen", h.Screen)
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: middleware.RequestID(middleware.Metrics(mux)),
	}

	h.SetReady(true)
	metrics.SetHealthy()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down gracefully...", sig)

		h.SetReady(false)
		metrics.SetUnhealthy()

		// Give time for load balancers to detect the not-ready status
		time.Sleep(5 * time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)

		if tracerShutdown != nil {
			tracerShutdown(ctx)
		}
	}()

	log.Printf("HTTP server listening on %s", server.Addr)
	log.Println("Endpoints:")
	log.Println("  POST /v1/screen - Screen an eyelid photo (multipart field 'image')")
	log.Println("  GET  /healthz   - Health check")
	log.Println("  GET  /readyz    - Readiness check")
	log.Println("  GET  /metrics   - Prometheus metrics")
	log.Printf("%s is ready to accept requests", serviceName)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to serve: %v", err)
	}

	log.Printf("Server shutdown complete")
}

func initTracer(endpoint string) (func(context.Context) error, error) {
	// The stdout exporter keeps tracing dependency-free; swap in an OTLP
	// exporter when a collector endpoint is available.
	if endpoint != "" {
		log.Printf("Note: Using stdout trace exporter (OTLP endpoint: %s)", endpoint)
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// Create resource with service information
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
