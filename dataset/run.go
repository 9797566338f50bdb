package dataset

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/storage"
	"github.com/carbocation/nucleiseg"
	"github.com/carbocation/nucleiseg/distance"
	"github.com/carbocation/pfx"
)

// Status is the outcome of converting one file.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Result records what happened to one source file.
type Result struct {
	Kind   Kind
	Split  Split
	Source string
	Output string
	Status Status
	Err    error

	// Label-only fields
	PairedImage      string
	Height           int
	Width            int
	Regions          int
	ForegroundPixels int
	Components       int
}

// job is one unit of work for the pool. A job with a skip reason is reported
// without being run.
type job struct {
	kind   Kind
	split  Split
	source string
	output string
	paired string
	skip   error
}

// plan enumerates the conversions for every split without performing any.
// Images come before annotations within a split. A training image without a
// same-stem annotation is planned as skipped: the training set must pair
// every image with a label.
func plan(ctx context.Context, cfg Config, layout Layout) ([]job, error) {
	var jobs []job

	for _, src := range Sources(cfg.SourceDir) {
		images, err := src.Images(ctx, cfg.StorageClient)
		if err != nil {
			return nil, err
		}

		annotations, err := src.Annotations(ctx, cfg.StorageClient)
		if err != nil {
			return nil, err
		}

		imageByStem := byStem(images)
		annotationByStem := byStem(annotations)

		for _, path := range images {
			j := job{
				kind:   KindImage,
				split:  src.Split,
				source: path,
				output: layout.OutputPath(KindImage, src.Split, path),
			}

			if _, exists := annotationByStem[Stem(path)]; !exists {
				if src.Split == Training {
					j.output = ""
					j.skip = fmt.Errorf("%s: no annotation %s.xml in %s", path, Stem(path), src.LabelDir)
				} else {
					log.Printf("%s: no annotation %s.xml in %s\n", path, Stem(path), src.LabelDir)
				}
			}

			jobs = append(jobs, j)
		}

		for _, path := range annotations {
			jobs = append(jobs, job{
				kind:   KindLabel,
				split:  src.Split,
				source: path,
				output: layout.OutputPath(KindLabel, src.Split, path),
				paired: imageByStem[Stem(path)],
			})
		}

		log.Printf("%s split: %d images and %d annotations\n", src.Split, len(images), len(annotations))
	}

	return jobs, nil
}

// Run creates the output layout and converts every image and annotation of
// both splits with a bounded pool of workers. Per-file failures are recorded
// in the Report and do not stop the batch. Once ctx is done, files not yet
// started are marked skipped.
func Run(ctx context.Context, cfg Config) (Report, error) {
	start := time.Now()

	if err := cfg.Finalize(); err != nil {
		return Report{}, err
	}

	if cfg.StorageClient == nil && nucleiseg.IsGoogleStoragePath(cfg.SourceDir) {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return Report{}, pfx.Err(err)
		}
		defer client.Close()
		cfg.StorageClient = client
	}

	layout := Layout{Root: cfg.OutputDir}
	if err := layout.Setup(); err != nil {
		return Report{}, err
	}

	jobs, err := plan(ctx, cfg, layout)
	if err != nil {
		return Report{}, err
	}
	if len(jobs) == 0 {
		return Report{}, pfx.Err(fmt.Errorf("No images or annotations found under %s", cfg.SourceDir))
	}

	metric := cfg.DistanceMetric()
	results := make([]Result, len(jobs))

	sem := make(chan bool, cfg.Workers)

	for i, j := range jobs {
		if j.skip != nil {
			log.Println(j.skip)
			results[i] = j.result(StatusSkipped, j.skip)
			continue
		}

		if ctx.Err() != nil {
			results[i] = j.result(StatusSkipped, ctx.Err())
			continue
		}

		sem <- true
		go func(i int, j job) {
			defer func() { <-sem }()
			results[i] = j.run(ctx, cfg, metric)
		}(i, j)

		if (i+1)%100 == 0 {
			log.Printf("Scheduled %d/%d files\n", i+1, len(jobs))
		}
	}

	for i := 0; i < cap(sem); i++ {
		sem <- true
	}

	return NewReport(results, time.Since(start)), nil
}

func (j job) result(status Status, err error) Result {
	return Result{
		Kind:        j.kind,
		Split:       j.split,
		Source:      j.source,
		Output:      j.output,
		Status:      status,
		Err:         err,
		PairedImage: j.paired,
	}
}

func (j job) run(ctx context.Context, cfg Config, metric distance.Metric) Result {
	if j.kind == KindImage {
		if err := ConvertImage(ctx, j.source, j.output, cfg.StorageClient); err != nil {
			log.Println(err)
			return j.result(StatusFailed, err)
		}

		return j.result(StatusOK, nil)
	}

	height, width := cfg.ImageHeight, cfg.ImageWidth
	if j.paired == "" {
		log.Printf("%s: no matching image, using %dx%d\n", j.source, height, width)
	} else {
		h, w, err := CanvasSize(ctx, j.paired, cfg.StorageClient)
		if err != nil {
			log.Printf("%s: could not read the size of %s (%s), using %dx%d\n", j.source, j.paired, err, height, width)
		} else {
			height, width = h, w
		}
	}

	stats, err := ConvertLabel(ctx, j.source, j.output, height, width, metric, cfg.StorageClient)
	out := j.result(StatusOK, nil)
	out.Height, out.Width = stats.Height, stats.Width
	out.Regions = stats.Regions
	out.ForegroundPixels = stats.ForegroundPixels
	out.Components = stats.Components

	if err != nil {
		log.Println(err)
		out.Status, out.Err = StatusFailed, err
	}

	return out
}
