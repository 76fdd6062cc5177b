// Package preprocess converts an uploaded eyelid photo into the flat
// [1,3,224,224] float32 tensor the anemia classifier was trained on.
//
// The pipeline order is fixed and must not be rearranged: decode, direct
// resize to 224x224 (no aspect-ratio preservation), RGB extraction,
// per-channel ImageNet normalization, HWC to CHW relayout. The model was
// trained on exactly this transform; a deviation produces silently wrong
// predictions rather than an error.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

const (
	// Size is the model's input width and height in pixels.
	Size = 224
	// Channels is the number of color channels the model expects.
	Channels = 3
	// PixelCount is the number of pixels per channel plane.
	PixelCount = Size * Size
	// TensorLen is the total number of float32 values in the input tensor.
	TensorLen = Channels * PixelCount

	// MinFileSize and MaxFileSize bound accepted upload sizes in bytes.
	MinFileSize = 1 << 10
	MaxFileSize = 10 << 20
)

// ImageNet statistics, matching the training-time constants bit for bit.
var (
	mean = [Channels]float32{0.485, 0.456, 0.406}
	std  = [Channels]float32{0.229, 0.224, 0.225}
)

// allowedTypes maps accepted sniffed content types to the file extensions
// permitted for each.
var allowedTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
	"image/webp": {".webp"},
}

// Validate rejects an upload before any decoding work happens. The content
// type is sniffed from the payload rather than trusted from the request, and
// the file extension must agree with it. Returns an *UnsupportedFileError on
// any violation.
func Validate(data []byte, filename string) error {
	size := int64(len(data))
	if size < MinFileSize {
		return &UnsupportedFileError{Reason: fmt.Sprintf("file size %d is below the minimum of %d bytes", size, MinFileSize)}
	}
	if size > MaxFileSize {
		return &UnsupportedFileError{Reason: fmt.Sprintf("file size %d exceeds the maximum of %d bytes", size, MaxFileSize)}
	}

	contentType := http.DetectContentType(data)
	exts, ok := allowedTypes[contentType]
	if !ok {
		return &UnsupportedFileError{Reason: fmt.Sprintf("content type %q is not an accepted image type", contentType)}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(exts, ext) {
		return &UnsupportedFileError{Reason: fmt.Sprintf("extension %q does not match content type %q", ext, contentType)}
	}

	return nil
}

// FromBytes decodes an image and produces the normalized model input tensor:
// exactly TensorLen float32 values in CHW order, channel c for pixel i at
// index c*PixelCount + i.
func FromBytes(data []byte) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &PreprocessingError{Reason: fmt.Sprintf("image decode failed: %v", err)}
	}

	// Direct resize. The training pipeline did not preserve aspect ratio.
	resized := resize.Resize(Size, Size, img, resize.Lanczos3)

	rgb := interleavedRGB(resized)
	if len(rgb) != TensorLen {
		return nil, &PreprocessingError{Reason: fmt.Sprintf("decoded buffer is %d bytes, want %d", len(rgb), TensorLen)}
	}

	return normalize(rgb)
}

// interleavedRGB flattens the image into row-major RGB bytes, dropping any
// alpha channel.
func interleavedRGB(img image.Image) []byte {
	bounds := img.Bounds()
	rgb := make([]byte, 0, Channels*bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			rgb = append(rgb, byte(r>>8), byte(g>>8), byte(b>>8))
		}
	}
	return rgb
}

// normalize applies the per-channel ImageNet transform and relayouts from
// HWC to CHW. rgb must be exactly TensorLen bytes.
func normalize(rgb []byte) ([]float32, error) {
	tensor := make([]float32, TensorLen)
	for i := 0; i < PixelCount; i++ {
		for c := 0; c < Channels; c++ {
			raw := float32(rgb[i*Channels+c]) / 255.0
			tensor[c*PixelCount+i] = (raw - mean[c]) / std[c]
		}
	}

	for i, v := range tensor {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &InvalidTensorError{Index: i, Value: v}
		}
	}

	return tensor, nil
}
