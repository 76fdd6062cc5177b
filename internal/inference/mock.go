// internal/inference/mock.go
package inference

import (
	"fmt"
	"time"

	"github.com/hemaview/screening-service/internal/preprocess"
)

// Mock is a mock implementation of Engine for testing.
// It returns a deterministic score without requiring the ONNX shared library.
type Mock struct {
	// Score is the scalar returned for every tensor
	Score float32
	// ShouldError if true, Run will return an error
	ShouldError bool
	// ErrorMessage is the error message to return when ShouldError is true
	ErrorMessage string
	// Delay pauses Run before returning, to exercise timeout handling
	Delay time.Duration
	// CallCount tracks the number of times Run was called
	CallCount int
}

// NewMock creates a new Mock with a default score of 0.85
func NewMock() *Mock {
	return &Mock{Score: 0.85}
}

// NewMockWithScore creates a Mock that always returns the given score
func NewMockWithScore(score float32) *Mock {
	return &Mock{Score: score}
}

// Run validates the tensor length and returns the configured score.
func (m *Mock) Run(tensor []float32) (float32, error) {
	m.CallCount++

	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}

	if m.ShouldError {
		if m.ErrorMessage != "" {
			return 0, fmt.Errorf("%s", m.ErrorMessage)
		}
		return 0, fmt.Errorf("mock inference error")
	}

	if len(tensor) != preprocess.TensorLen {
		return 0, fmt.Errorf("tensor has wrong size: got %d, expected %d", len(tensor), preprocess.TensorLen)
	}

	return m.Score, nil
}

// Close is a no-op for the mock implementation
func (m *Mock) Close() error {
	return nil
}

// SetError configures the mock to return an error on the next Run call
func (m *Mock) SetError(msg string) {
	m.ShouldError = true
	m.ErrorMessage = msg
}

// ClearError clears any configured error
func (m *Mock) ClearError() {
	m.ShouldError = false
	m.ErrorMessage = ""
}

// Ensure Mock implements Engine at compile time
var _ Engine = (*Mock)(nil)
