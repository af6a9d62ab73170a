// Package frames bounds sampled frame payloads before transmission.
package frames

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// MaxPayloadBytes is the largest JPEG the pipeline will attach to a
	// provider request.
	MaxPayloadBytes = 1 << 20

	jpegQuality = 85
)

// widths tried in order when re-encoding an oversized frame.
var widths = []int{960, 640, 480, 320}

// BoundPayload returns jpg unchanged when it is already within
// MaxPayloadBytes, otherwise downscales and re-encodes it until it fits.
// The smallest attempt is returned even if it still exceeds the limit.
func BoundPayload(jpg []byte) ([]byte, error) {
	if len(jpg) <= MaxPayloadBytes {
		return jpg, nil
	}

	img, err := imaging.Decode(bytes.NewReader(jpg))
	if err != nil {
		return nil, fmt.Errorf("decode oversized frame: %w", err)
	}

	var smallest []byte
	for _, w := range widths {
		if w > img.Bounds().Dx() {
			w = img.Bounds().Dx() // never upscale, just re-encode
		}
		resized := imaging.Resize(img, w, 0, imaging.Lanczos)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
			return nil, fmt.Errorf("re-encode frame at width %d: %w", w, err)
		}
		if buf.Len() <= MaxPayloadBytes {
			return buf.Bytes(), nil
		}
		if smallest == nil || buf.Len() < len(smallest) {
			smallest = buf.Bytes()
		}
	}
	return smallest, nil
}
