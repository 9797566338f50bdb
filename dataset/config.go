package dataset

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/nucleiseg"
	"github.com/carbocation/nucleiseg/distance"
	"github.com/carbocation/nucleiseg/overlay"
	"github.com/carbocation/pfx"
)

const (
	DefaultName        = "TaskCSDS_CancerSegmentation"
	DefaultDescription = "Segmentation task for cancer nuclei using distance maps."
	DefaultSourceDir   = "dataset/MoNuSeg"
	DefaultImageSize   = 1000
)

// Config controls a dataset preparation run. Every field may be set from a
// JSON file; zero values are replaced by defaults in Finalize.
type Config struct {
	ConfigPath  string            `json:"-"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	SourceDir   string            `json:"source_dir"`
	OutputDir   string            `json:"output_dir"`
	ImageHeight int               `json:"image_height"`
	ImageWidth  int               `json:"image_width"`
	Metric      string            `json:"metric"`
	Workers     int               `json:"workers"`
	Modality    map[string]string `json:"modality"`
	Labels      overlay.LabelMap  `json:"labels"`
	Reference   string            `json:"reference"`
	Licence     string            `json:"licence"`
	Release     string            `json:"release"`

	// StorageClient reads gs:// sources. Run creates one when the source is on
	// Google Storage and none is set.
	StorageClient *storage.Client `json:"-"`
}

// DefaultConfig returns a finalized configuration for the standard MoNuSeg
// layout under the working directory.
func DefaultConfig() Config {
	cfg := Config{}
	// Defaults alone always finalize.
	_ = cfg.Finalize()

	return cfg
}

func ParseConfigFromPath(path string) (Config, error) {
	out := Config{ConfigPath: path}

	f, err := os.Open(nucleiseg.ExpandHome(path))
	if err != nil {
		return out, pfx.Err(err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		if e, ok := err.(*json.SyntaxError); ok {
			log.Printf("syntax error at byte offset %d", e.Offset)
		}

		return out, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return out, nil
}

// Finalize fills defaults, expands ~ in paths and validates the result.
func (c *Config) Finalize() error {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Description == "" {
		c.Description = DefaultDescription
	}
	if c.SourceDir == "" {
		c.SourceDir = DefaultSourceDir
	}
	c.SourceDir = nucleiseg.ExpandHome(c.SourceDir)

	if c.OutputDir == "" {
		if nucleiseg.IsGoogleStoragePath(c.SourceDir) {
			return pfx.Err(fmt.Errorf("output_dir is required when source_dir (%s) is on Google Storage", c.SourceDir))
		}
		c.OutputDir = filepath.Join(c.SourceDir, c.Name)
	}
	if nucleiseg.IsGoogleStoragePath(c.OutputDir) {
		return pfx.Err(fmt.Errorf("output_dir (%s) must be a local folder", c.OutputDir))
	}
	c.OutputDir = nucleiseg.ExpandHome(c.OutputDir)

	if c.ImageHeight == 0 {
		c.ImageHeight = DefaultImageSize
	}
	if c.ImageWidth == 0 {
		c.ImageWidth = DefaultImageSize
	}
	if c.Workers == 0 {
		c.Workers = 4 * runtime.NumCPU()
	}
	if c.Release == "" {
		c.Release = "1.0"
	}
	if c.Modality == nil {
		c.Modality = map[string]string{"0": "RGB"}
	}
	if c.Labels == nil {
		c.Labels = overlay.DefaultLabels()
	}

	// Internally, go uses lower case for all colors, so we will too (while
	// permitting the user to use mixed case)
	for k, v := range c.Labels {
		v.Color = strings.ToLower(v.Color)
		c.Labels[k] = v
	}

	if c.ImageHeight < 0 || c.ImageWidth < 0 {
		return pfx.Err(fmt.Errorf("Image size must be positive, got %dx%d", c.ImageHeight, c.ImageWidth))
	}
	if c.Workers < 0 {
		return pfx.Err(fmt.Errorf("Workers must be positive, got %d", c.Workers))
	}
	if _, err := distance.ParseMetric(c.Metric); err != nil {
		return pfx.Err(err)
	}
	if err := c.Labels.Valid(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// DistanceMetric is the parsed form of Metric. Call after Finalize.
func (c Config) DistanceMetric() distance.Metric {
	m, _ := distance.ParseMetric(c.Metric)
	return m
}
