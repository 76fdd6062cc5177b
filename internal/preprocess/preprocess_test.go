// internal/preprocess/preprocess_test.go
package preprocess

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func uniformImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func noiseImage(w, h int) *image.RGBA {
	rnd := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(rnd.Intn(256)),
				G: uint8(rnd.Intn(256)),
				B: uint8(rnd.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFromBytesTensorShape(t *testing.T) {
	data := encodePNG(t, noiseImage(300, 200))

	tensor, err := FromBytes(data)
	require.NoError(t, err)
	require.Len(t, tensor, TensorLen)

	for i, v := range tensor {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("tensor[%d] = %f is not finite", i, v)
		}
	}
}

func TestFromBytesUniformGray(t *testing.T) {
	data := encodePNG(t, uniformImage(320, 240, color.RGBA{128, 128, 128, 255}))

	tensor, err := FromBytes(data)
	require.NoError(t, err)

	for c := 0; c < Channels; c++ {
		want := (float32(128)/255.0 - mean[c]) / std[c]
		for i := 0; i < PixelCount; i++ {
			got := tensor[c*PixelCount+i]
			if math.Abs(float64(got-want)) > 1e-4 {
				t.Fatalf("channel %d pixel %d = %f, want %f", c, i, got, want)
			}
		}
	}
}

// A solid red image pins the CHW layout: indices [0, PixelCount) must hold
// the red plane, the other two planes must reflect raw pixel value 0.
func TestFromBytesChannelLayout(t *testing.T) {
	data := encodePNG(t, uniformImage(224, 224, color.RGBA{255, 0, 0, 255}))

	tensor, err := FromBytes(data)
	require.NoError(t, err)

	want := [Channels]float32{
		(1.0 - mean[0]) / std[0],
		(0.0 - mean[1]) / std[1],
		(0.0 - mean[2]) / std[2],
	}
	for c := 0; c < Channels; c++ {
		for i := 0; i < PixelCount; i++ {
			got := tensor[c*PixelCount+i]
			if math.Abs(float64(got-want[c])) > 1e-4 {
				t.Fatalf("channel %d pixel %d = %f, want %f", c, i, got, want[c])
			}
		}
	}
}

func TestFromBytesGIF(t *testing.T) {
	// A paletted image passes through gif.Encode without quantization, so
	// the gray value survives the round trip exactly.
	pal := color.Palette{color.RGBA{128, 128, 128, 255}, color.RGBA{0, 0, 0, 255}}
	img := image.NewPaletted(image.Rect(0, 0, 100, 100), pal)

	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))

	tensor, err := FromBytes(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, tensor, TensorLen)

	for c := 0; c < Channels; c++ {
		want := (float32(128)/255.0 - mean[c]) / std[c]
		require.InDelta(t, want, tensor[c*PixelCount], 1e-4)
	}
}

func TestFromBytesDecodeFailure(t *testing.T) {
	_, err := FromBytes([]byte("definitely not an image"))
	require.Error(t, err)

	var perr *PreprocessingError
	require.True(t, errors.As(err, &perr))
}

// Repeated preprocessing of the same bytes must be bit-identical.
func TestFromBytesDeterministic(t *testing.T) {
	data := encodePNG(t, noiseImage(224, 224))

	first, err := FromBytes(data)
	require.NoError(t, err)
	second, err := FromBytes(data)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestValidateAcceptsPNG(t *testing.T) {
	data := encodePNG(t, noiseImage(256, 256))
	require.GreaterOrEqual(t, int64(len(data)), int64(MinFileSize), "test image must exceed the minimum upload size")

	require.NoError(t, Validate(data, "eyelid.png"))
}

func TestValidateRejectsUndersized(t *testing.T) {
	err := Validate([]byte("tiny"), "eyelid.png")

	var uerr *UnsupportedFileError
	require.True(t, errors.As(err, &uerr))
	require.Contains(t, uerr.Reason, "below the minimum")
}

func TestValidateRejectsOversized(t *testing.T) {
	err := Validate(make([]byte, MaxFileSize+1), "eyelid.png")

	var uerr *UnsupportedFileError
	require.True(t, errors.As(err, &uerr))
	require.Contains(t, uerr.Reason, "exceeds the maximum")
}

func TestValidateRejectsNonImage(t *testing.T) {
	data := bytes.Repeat([]byte("patient screening notes\n"), 100)

	err := Validate(data, "notes.txt")

	var uerr *UnsupportedFileError
	require.True(t, errors.As(err, &uerr))
	require.Contains(t, uerr.Reason, "not an accepted image type")
}

func TestValidateRejectsExtensionMismatch(t *testing.T) {
	data := encodePNG(t, noiseImage(256, 256))

	err := Validate(data, "eyelid.jpg")

	var uerr *UnsupportedFileError
	require.True(t, errors.As(err, &uerr))
	require.Contains(t, uerr.Reason, "does not match content type")
}
