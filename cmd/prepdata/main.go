// prepdata converts the MoNuSeg images and XML annotations into the NIfTI
// layout (images, normalized distance maps and dataset.json) used for
// nnU-Net training.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	_ "github.com/carbocation/nucleiseg/compileinfoprint"
	"github.com/carbocation/nucleiseg/dataset"
)

func init() {
	flag.Usage = func() {
		flag.PrintDefaults()

		log.Println("Example config file layout:")
		bts, err := json.MarshalIndent(dataset.DefaultConfig(), "", "  ")
		if err == nil {
			log.Println(string(bts))
		}
	}
}

func main() {
	start := time.Now()
	log.Println("prepdata start")
	defer func() {
		log.Printf("prepdata end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	var configPath, source, output, name, metric, summary string
	var workers, height, width int

	flag.StringVar(&configPath, "config", "", "(Optional) JSON config file. Flags set on the command line override its values.")
	flag.StringVar(&source, "source", "", "(Optional) Raw MoNuSeg folder containing imagesTr, labelsTr and imagesTs. Default: "+dataset.DefaultSourceDir)
	flag.StringVar(&output, "output", "", "(Optional) Output dataset folder. Default: {source}/{name}")
	flag.StringVar(&name, "name", "", "(Optional) Dataset name. Default: "+dataset.DefaultName)
	flag.StringVar(&metric, "metric", "", "(Optional) Distance metric: exact or chamfer5. Default: exact")
	flag.IntVar(&workers, "workers", 0, "(Optional) Number of files to convert concurrently. Default: 4 * number of CPUs")
	flag.IntVar(&height, "height", 0, "(Optional) Canvas height for annotations without a matching image. Default: 1000")
	flag.IntVar(&width, "width", 0, "(Optional) Canvas width for annotations without a matching image. Default: 1000")
	flag.StringVar(&summary, "summary", "", "(Optional) Path for a tab-delimited per-file summary. Default: {output}/conversion_summary.tsv")
	flag.Parse()

	cfg := dataset.Config{}
	if configPath != "" {
		var err error
		cfg, err = dataset.ParseConfigFromPath(configPath)
		if err != nil {
			log.Println(err)
			flag.Usage()
			os.Exit(1)
		}
	}

	// Flags take precedence over the config file
	if source != "" {
		cfg.SourceDir = source
	}
	if output != "" {
		cfg.OutputDir = output
	}
	if name != "" {
		cfg.Name = name
	}
	if metric != "" {
		cfg.Metric = metric
	}
	if workers != 0 {
		cfg.Workers = workers
	}
	if height != 0 {
		cfg.ImageHeight = height
	}
	if width != 0 {
		cfg.ImageWidth = width
	}

	if err := cfg.Finalize(); err != nil {
		log.Fatalln(err)
	}

	log.Printf("Converting %s into %s with the %s metric and %d workers\n", cfg.SourceDir, cfg.OutputDir, cfg.DistanceMetric(), cfg.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := dataset.Run(ctx, cfg)
	if err != nil {
		log.Fatalln(err)
	}
	log.Println(report.Summary())

	for _, res := range report.Failed() {
		log.Printf("Failed: %s\n", res.Err)
	}

	layout := dataset.Layout{Root: cfg.OutputDir}
	manifest, err := dataset.WriteManifest(layout, cfg)
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("Wrote %s with %d training and %d test cases\n", layout.ManifestPath(), manifest.NumTraining, manifest.NumTest)
	for _, name := range manifest.Unpaired {
		log.Printf("Left %s out of dataset.json: no label volume of the same name\n", name)
	}

	if summary == "" {
		summary = filepath.Join(cfg.OutputDir, "conversion_summary.tsv")
	}
	if err := report.WriteTSVFile(summary); err != nil {
		log.Fatalln(err)
	}
	log.Printf("Wrote per-file summary to %s\n", summary)

	if len(report.Failed()) > 0 {
		os.Exit(1)
	}
}
