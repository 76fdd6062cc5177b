// internal/inference/inference_test.go
package inference

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/hemaview/screening-service/internal/preprocess"
)

func TestMockRun(t *testing.T) {
	mock := NewMockWithScore(0.72)

	tensor := make([]float32, preprocess.TensorLen)
	score, err := mock.Run(tensor)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if score != 0.72 {
		t.Errorf("score = %f, expected 0.72", score)
	}

	if mock.CallCount != 1 {
		t.Errorf("Expected CallCount=1, got %d", mock.CallCount)
	}
}

func TestMockRunError(t *testing.T) {
	mock := NewMock()
	mock.SetError("test error")

	_, err := mock.Run(make([]float32, preprocess.TensorLen))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	if err.Error() != "test error" {
		t.Errorf("Expected 'test error', got '%s'", err.Error())
	}

	mock.ClearError()
	if _, err := mock.Run(make([]float32, preprocess.TensorLen)); err != nil {
		t.Fatalf("Run failed after ClearError: %v", err)
	}
}

func TestMockRunWrongTensorSize(t *testing.T) {
	mock := NewMock()

	_, err := mock.Run(make([]float32, 42))
	if err == nil {
		t.Fatal("Expected error for wrong tensor size")
	}
}

func TestLoadWithRetrySucceedsFirstAttempt(t *testing.T) {
	var sleeps []time.Duration
	sleep := func(d time.Duration) { sleeps = append(sleeps, d) }

	opens := 0
	engine, err := LoadWithRetry(func() (Engine, error) {
		opens++
		return NewMock(), nil
	}, 3, time.Second, sleep)
	if err != nil {
		t.Fatalf("LoadWithRetry failed: %v", err)
	}
	defer engine.Close()

	if opens != 1 {
		t.Errorf("Expected 1 open attempt, got %d", opens)
	}
	if len(sleeps) != 0 {
		t.Errorf("Expected no sleeps, got %d", len(sleeps))
	}
}

func TestLoadWithRetrySucceedsAfterFailures(t *testing.T) {
	var sleeps []time.Duration
	sleep := func(d time.Duration) { sleeps = append(sleeps, d) }

	opens := 0
	engine, err := LoadWithRetry(func() (Engine, error) {
		opens++
		if opens < 3 {
			return nil, errors.New("model file locked")
		}
		return NewMock(), nil
	}, 3, 2*time.Second, sleep)
	if err != nil {
		t.Fatalf("LoadWithRetry failed: %v", err)
	}
	defer engine.Close()

	if opens != 3 {
		t.Errorf("Expected 3 open attempts, got %d", opens)
	}
	if len(sleeps) != 2 {
		t.Fatalf("Expected 2 sleeps, got %d", len(sleeps))
	}
	for i, d := range sleeps {
		if d != 2*time.Second {
			t.Errorf("sleep[%d] = %v, expected 2s", i, d)
		}
	}
}

func TestLoadWithRetryExhaustsAttempts(t *testing.T) {
	sleep := func(time.Duration) {}

	opens := 0
	loadErr := errors.New("no such file")
	_, err := LoadWithRetry(func() (Engine, error) {
		opens++
		return nil, loadErr
	}, 3, time.Second, sleep)
	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}

	if opens != 3 {
		t.Errorf("Expected 3 open attempts, got %d", opens)
	}
	if !errors.Is(err, loadErr) {
		t.Errorf("Expected wrapped load error, got: %v", err)
	}
}

func TestRealInferenceWithModel(t *testing.T) {
	// Skip if ONNX model or library is not available
	modelPath := "testdata/dummy.onnx"
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		t.Skip("Skipping real inference test: testdata/dummy.onnx not found")
	}

	// Try to create the engine - will fail if ONNX library not installed
	engine, err := New(modelPath)
	if err != nil {
		t.Skipf("Skipping real inference test: %v", err)
	}
	defer engine.Close()

	score, err := engine.Run(make([]float32, preprocess.TensorLen))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if score < 0 || score > 1 {
		t.Errorf("score = %f, expected a value in [0,1]", score)
	}
}
