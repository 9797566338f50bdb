package dataset

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/carbocation/nucleiseg/annotation"
	"github.com/carbocation/nucleiseg/distance"
	"github.com/carbocation/nucleiseg/mask"
	"github.com/carbocation/nucleiseg/nifti"
	"github.com/carbocation/nucleiseg/overlay"
)

// LabelStats summarizes one converted annotation.
type LabelStats struct {
	Height           int
	Width            int
	Regions          int
	ForegroundPixels int
	Components       int
}

// ConvertLabel turns one XML annotation into a normalized distance map
// volume at outPath. Nothing is written unless every step succeeds. The client
// is only needed when xmlPath is on Google Storage.
func ConvertLabel(ctx context.Context, xmlPath, outPath string, height, width int, metric distance.Metric, client *storage.Client) (LabelStats, error) {
	stats := LabelStats{Height: height, Width: width}

	ann, err := annotation.ParseFile(ctx, xmlPath, client)
	if err != nil {
		return stats, err
	}
	stats.Regions = len(ann.Regions)

	m, err := mask.Rasterize(ann.Regions, height, width)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", xmlPath, err)
	}
	stats.ForegroundPixels = m.Count()
	stats.Components = m.Components()

	field, err := distance.Build(m, metric)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", xmlPath, err)
	}

	if err := nifti.Write(outPath, nifti.FromField(field)); err != nil {
		return stats, fmt.Errorf("%s: %w", xmlPath, err)
	}

	return stats, nil
}

// ConvertImage decodes a TIFF (or any registered format) and writes it as a
// uint8 NIfTI volume with a trailing channel axis.
func ConvertImage(ctx context.Context, imagePath, outPath string, client *storage.Client) error {
	img, err := overlay.OpenImage(ctx, imagePath, client)
	if err != nil {
		return err
	}

	if err := nifti.Write(outPath, nifti.FromImage(img)); err != nil {
		return fmt.Errorf("%s: %w", imagePath, err)
	}

	return nil
}

// CanvasSize reads the height and width of the image at imagePath without
// decoding its pixels.
func CanvasSize(ctx context.Context, imagePath string, client *storage.Client) (height, width int, err error) {
	cfg, err := overlay.DecodeConfig(ctx, imagePath, client)
	if err != nil {
		return 0, 0, err
	}

	return cfg.Height, cfg.Width, nil
}
