// Package thumbnail turns the engine's frame capture into the published PNG thumbnail.
package thumbnail

import (
	"bytes"
	"image"
	"path"
	"strings"

	"github.com/bbrks/go-blurhash"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
)

// ContentType of the converted thumbnail.
const ContentType = "image/png"

// captureSuffix is appended by the engine to the first frame capture of an output.
const captureSuffix = ".0000000.jpg"

// blurHashSize bounds the image fed to the BlurHash encoder. The hash is a placeholder, so
// a 64px image gives the same result in a fraction of the time.
const blurHashSize = 64

// Keys returns the frame capture key written by the engine for outputKey and the key of the PNG
// thumbnail derived from it.
func Keys(outputKey string) (captureKey, pngKey string) {
	base := strings.TrimSuffix(outputKey, path.Ext(outputKey))
	return base + captureSuffix, base + ".png"
}

// Convert decodes a frame capture and re-encodes it as PNG. It also returns the BlurHash of the image.
func Convert(capture []byte) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(capture), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to decode thumbnail")
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, "", domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to encode thumbnail")
	}

	hash, err := BlurHash(img)
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), hash, nil
}

// BlurHash computes a 4x3 component BlurHash of img.
func BlurHash(img image.Image) (string, error) {
	b := img.Bounds()
	if b.Dx() > blurHashSize || b.Dy() > blurHashSize {
		img = imaging.Fit(img, blurHashSize, blurHashSize, imaging.Box)
	}

	hash, err := blurhash.Encode(4, 3, img)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to encode blurhash")
	}
	return hash, nil
}
