// internal/preprocess/errors.go
package preprocess

import "fmt"

// UnsupportedFileError reports an upload rejected by Validate before any
// decoding takes place: size out of bounds, disallowed content type, or an
// extension that does not match the content.
type UnsupportedFileError struct {
	Reason string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("unsupported file: %s", e.Reason)
}

// PreprocessingError reports that decoding or resizing produced something
// other than the expected 224x224 RGB buffer. It is a hard failure for the
// request and is never retried.
type PreprocessingError struct {
	Reason string
}

func (e *PreprocessingError) Error() string {
	return fmt.Sprintf("preprocessing failed: %s", e.Reason)
}

// InvalidTensorError reports a non-finite value in the normalized tensor.
// Feeding NaN or Inf to the model would produce garbage instead of an error,
// so it is caught here.
type InvalidTensorError struct {
	Index int
	Value float32
}

func (e *InvalidTensorError) Error() string {
	return fmt.Sprintf("tensor value at index %d is not finite: %f", e.Index, e.Value)
}
