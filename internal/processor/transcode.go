package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/genricoloni/walltz/internal/domain"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp" // WebP decoding support
)

const defaultJPEGQuality = 90

// Transcoder re-encodes image bytes into the format implied by a target path.
type Transcoder struct {
	logger  *zap.Logger
	quality int
}

// NewTranscoder creates an imaging-backed transcoder
func NewTranscoder(logger *zap.Logger) *Transcoder {
	return &Transcoder{
		logger:  logger,
		quality: defaultJPEGQuality,
	}
}

// Decode decodes src, applying EXIF orientation.
func (t *Transcoder) Decode(src []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.E(domain.KindFormat, "processor.decode", fmt.Errorf("failed to decode image: %w", err))
	}

	// Validate image dimensions to reject degenerate inputs
	bounds := img.Bounds()
	if bounds.Dy() == 0 || bounds.Dx() == 0 {
		return nil, domain.E(domain.KindFormat, "processor.decode", fmt.Errorf("invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy()))
	}
	return img, nil
}

// Transcode decodes src and writes it to dstPath in the format named by its extension.
// This is the slow path: it touches every pixel.
func (t *Transcoder) Transcode(ctx context.Context, src []byte, dstPath string) error {
	format, err := imaging.FormatFromFilename(dstPath)
	if err != nil {
		return domain.PathE(domain.KindFormat, "processor.transcode", dstPath, fmt.Errorf("%w: %v", domain.ErrUnknownFormat, err))
	}

	img, err := t.Decode(src)
	if err != nil {
		return err
	}

	t.logger.Debug("Transcoding image",
		zap.String("target", dstPath),
		zap.String("format", format.String()),
		zap.Int("w", img.Bounds().Dx()),
		zap.Int("h", img.Bounds().Dy()))

	// Encode straight into the destination file
	out, err := os.Create(dstPath)
	if err != nil {
		return domain.PathE(domain.KindFs, "processor.transcode", dstPath, err)
	}

	encodeErr := imaging.Encode(out, img, format, imaging.JPEGQuality(t.quality))
	closeErr := out.Close()
	if encodeErr != nil {
		os.Remove(dstPath)
		return domain.PathE(domain.KindFormat, "processor.transcode", dstPath, fmt.Errorf("failed to encode result: %w", encodeErr))
	}
	if closeErr != nil {
		return domain.PathE(domain.KindFs, "processor.transcode", dstPath, closeErr)
	}

	t.logger.Debug("Image transcoded successfully", zap.String("path", dstPath))
	return nil
}
