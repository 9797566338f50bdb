package overlay

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"cloud.google.com/go/storage"
	"github.com/carbocation/nucleiseg"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ImageFromBytes creates an image from the specified bytes. Must be TIFF, PNG,
// GIF, BMP, or JPEG formatted (based on the decoders we have imported).
func ImageFromBytes(imgBytes []byte) (image.Image, error) {
	imgReader := bytes.NewReader(imgBytes)

	// Extract and decode the image.
	img, _, err := image.Decode(imgReader)

	return img, err
}

// OpenImage decodes the image at a local or gs:// path.
func OpenImage(ctx context.Context, filePath string, storageClient *storage.Client) (image.Image, error) {
	f, err := nucleiseg.MaybeOpenFromGoogleStorage(ctx, filePath, storageClient)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// The image decoder swallows errors, so we won't see i/o errors if they
	// happen during image decoding. To capture these, we read the full image
	// into memory here, and pass a byte reader to the image decoder.
	imgBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	img, err := ImageFromBytes(imgBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	return img, nil
}

// DecodeConfig reads only the dimensions of the image at a local or gs://
// path.
func DecodeConfig(ctx context.Context, filePath string, storageClient *storage.Client) (image.Config, error) {
	f, err := nucleiseg.MaybeOpenFromGoogleStorage(ctx, filePath, storageClient)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Config{}, fmt.Errorf("%s: %w", filePath, err)
	}

	return cfg, nil
}
