// Package screening turns an uploaded image into an anemia screening verdict.
// It owns the decision rule on top of the raw model score and the fallback
// behavior when the model is missing or fails.
package screening

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/hemaview/screening-service/internal/inference"
	"github.com/hemaview/screening-service/internal/metrics"
	"github.com/hemaview/screening-service/internal/preprocess"
)

// Verdict is the categorical screening label.
type Verdict string

const (
	VerdictAnemic    Verdict = "Anemic"
	VerdictNonAnemic Verdict = "Non-anemic"
)

const (
	// decisionThreshold is exclusive on the Non-anemic side: a raw score of
	// exactly 0.5 classifies as Anemic.
	decisionThreshold = 0.5

	// Cautious default when inference is unavailable.
	defaultVerdict    = VerdictAnemic
	defaultConfidence = 0.8
)

// Result is the outcome of one screening request.
//
// Confidence is the model's raw output scalar in both branches of the
// decision rule. For Anemic verdicts this means the reported confidence is at
// or below 0.5 rather than 1-raw; downstream consumers depend on receiving
// the raw score unchanged.
type Result struct {
	Prediction             Verdict `json:"prediction"`
	Confidence             float32 `json:"confidence"`
	UsingDefaultPrediction bool    `json:"usingDefaultPrediction"`
	Error                  string  `json:"error,omitempty"`
}

// Screener runs the preprocess -> validate -> infer -> decide pipeline for a
// single image. The engine is injected and read-only; a Screener is safe for
// concurrent use.
type Screener struct {
	engine  inference.Engine
	timeout time.Duration
	tracer  trace.Tracer
}

// New creates a Screener. A nil engine is allowed: every request is then
// answered with the cautious default result. timeout bounds each inference
// call; zero disables the bound.
func New(engine inference.Engine, timeout time.Duration) *Screener {
	return &Screener{
		engine:  engine,
		timeout: timeout,
		tracer:  otel.Tracer("screening"),
	}
}

// Screen produces a screening result for one uploaded image.
//
// Input errors (unsupported file, failed preprocessing, non-finite tensor)
// are returned to the caller as hard failures. Engine failures never are:
// they degrade to the default result with UsingDefaultPrediction set and the
// error detail attached for logging.
func (s *Screener) Screen(ctx context.Context, imageData []byte) (*Result, error) {
	ctx, span := s.tracer.Start(ctx, "screening.preprocess")
	start := time.Now()
	tensor, err := preprocess.FromBytes(imageData)
	metrics.RecordPreprocessLatency(time.Since(start).Seconds())
	span.End()
	if err != nil {
		return nil, err
	}

	if s.engine == nil {
		metrics.RecordScreening(metrics.OutcomeDefaultedMissingModel)
		return defaultResult("model not loaded"), nil
	}

	_, span = s.tracer.Start(ctx, "screening.infer")
	start = time.Now()
	raw, err := s.runWithTimeout(ctx, tensor)
	metrics.RecordInferenceLatency(time.Since(start).Seconds())
	span.End()
	if err != nil {
		metrics.RecordScreening(metrics.OutcomeDefaultedError)
		return defaultResult(err.Error()), nil
	}

	metrics.RecordScreening(metrics.OutcomeDecided)
	return decide(raw), nil
}

// runWithTimeout bounds a single inference call. The ONNX runtime call is
// not cancellable, so on timeout the goroutine is left to finish into a
// buffered channel and its result is discarded.
func (s *Screener) runWithTimeout(ctx context.Context, tensor []float32) (float32, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type outcome struct {
		raw float32
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		raw, err := s.engine.Run(tensor)
		done <- outcome{raw: raw, err: err}
	}()

	select {
	case out := <-done:
		return out.raw, out.err
	case <-ctx.Done():
		return 0, fmt.Errorf("inference timed out after %s: %w", s.timeout, ctx.Err())
	}
}

// decide maps the raw model score to a verdict. Scores above the threshold
// are Non-anemic; everything else, the threshold included, is Anemic. The raw
// score is reported as the confidence in both cases.
func decide(raw float32) *Result {
	prediction := defaultVerdict
	if raw > decisionThreshold {
		prediction = VerdictNonAnemic
	}
	return &Result{
		Prediction: prediction,
		Confidence: raw,
	}
}

func defaultResult(detail string) *Result {
	return &Result{
		Prediction:             defaultVerdict,
		Confidence:             defaultConfidence,
		UsingDefaultPrediction: true,
		Error:                  detail,
	}
}
