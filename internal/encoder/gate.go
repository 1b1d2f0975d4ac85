package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Capture gate errors. All are user-correctable: the fix is a clearer photo.
var (
	ErrInvalidImage             = errors.New("invalid or empty image")
	ErrNoFaceDetected           = errors.New("no face detected")
	ErrMultipleFacesDetected    = errors.New("multiple faces detected")
	ErrEncodingExtractionFailed = errors.New("could not extract face encoding")
)

// Gate decides whether a captured image is admissible for matching or
// enrollment. The same gate runs for both: an admin attaching a photo and an
// employee attempting check-in/out.
type Gate struct {
	encoder Encoder
	dim     int
}

// NewGate creates a capture gate. dim is the encoding dimension fixed by the
// encoder model; a zero dim disables the length check.
func NewGate(enc Encoder, dim int) *Gate {
	return &Gate{encoder: enc, dim: dim}
}

// Capture validates the image and returns the single face encoding in it.
// Rules, in order: the image must decode and be non-empty, the encoder must
// report exactly one face, and that face must carry a non-empty encoding.
func (g *Gate) Capture(ctx context.Context, imageData []byte) ([]float32, error) {
	if len(imageData) == 0 {
		return nil, ErrInvalidImage
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return nil, ErrInvalidImage
	}

	faces, err := g.encoder.EncodeFaces(ctx, imageData)
	if err != nil {
		return nil, fmt.Errorf("encoding faces: %w", err)
	}

	switch {
	case len(faces) == 0:
		return nil, ErrNoFaceDetected
	case len(faces) > 1:
		return nil, ErrMultipleFacesDetected
	}

	enc := faces[0].Encoding
	if len(enc) == 0 {
		return nil, ErrEncodingExtractionFailed
	}
	if g.dim > 0 && len(enc) != g.dim {
		return nil, ErrEncodingExtractionFailed
	}

	return enc, nil
}
