// internal/inference/interface.go
package inference

// Engine defines the interface for running the anemia classifier.
// This abstraction allows for easy mocking in tests and swapping implementations.
type Engine interface {
	// Run feeds a single normalized [1,3,224,224] tensor (flattened to
	// preprocess.TensorLen float32 values) through the model and returns
	// its raw output scalar in [0,1].
	Run(tensor []float32) (float32, error)

	// Close releases any resources held by the engine.
	Close() error
}
