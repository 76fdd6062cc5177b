// internal/inference/onnx.go
package inference

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hemaview/screening-service/internal/preprocess"
)

// ONNX wraps an ONNX runtime session for thread-safe inference.
// It implements the Engine interface.
type ONNX struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
}

// New creates a new ONNX engine by loading the model from modelPath.
func New(modelPath string) (*ONNX, error) {
	// Initialize the ONNX runtime environment
	err := ort.InitializeEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputNames := []string{"input"}
	outputNames := []string{"output"}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		inputNames,
		outputNames,
		nil, // Use default session options
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNX{session: session}, nil
}

// Run executes the model on one preprocessed tensor and returns the single
// output scalar.
func (e *ONNX) Run(tensor []float32) (float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return 0, fmt.Errorf("inference session is nil")
	}
	if len(tensor) != preprocess.TensorLen {
		return 0, fmt.Errorf("tensor has wrong size: got %d, expected %d", len(tensor), preprocess.TensorLen)
	}

	inputShape := ort.NewShape(1, preprocess.Channels, preprocess.Size, preprocess.Size)
	inputTensor, err := ort.NewTensor(inputShape, tensor)
	if err != nil {
		return 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputShape := ort.NewShape(1, 1)
	outputData := make([]float32, 1)
	outputTensor, err := ort.NewTensor(outputShape, outputData)
	if err != nil {
		return 0, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	err = e.session.Run(
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
	)
	if err != nil {
		return 0, fmt.Errorf("inference failed: %w", err)
	}

	out := outputTensor.GetData()
	if len(out) != 1 {
		return 0, fmt.Errorf("model returned %d values, expected 1", len(out))
	}

	return out[0], nil
}

// Close releases the ONNX session resources.
func (e *ONNX) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		err := e.session.Destroy()
		e.session = nil
		if err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}

	return ort.DestroyEnvironment()
}

// Ensure ONNX implements Engine at compile time
var _ Engine = (*ONNX)(nil)
