// trainlauncher exports the nnU-Net environment for a prepared dataset and
// runs preprocessing followed by training.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	_ "github.com/carbocation/nucleiseg/compileinfoprint"
	"github.com/carbocation/nucleiseg/dataset"
	"github.com/carbocation/nucleiseg/launcher"
)

func main() {
	start := time.Now()
	log.Println("trainlauncher start")
	defer func() {
		log.Printf("trainlauncher end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	var datasetRoot, name, configuration, fold string
	var dryRun, skipPreprocess bool

	flag.StringVar(&datasetRoot, "dataset", "", "(Optional) Prepared dataset folder. Default: "+dataset.DefaultConfig().OutputDir)
	flag.StringVar(&name, "name", dataset.DefaultName, "(Optional) Dataset name or ID passed to nnU-Net.")
	flag.StringVar(&configuration, "config", launcher.DefaultConfiguration, "(Optional) nnU-Net configuration, e.g., 2d or 3d_fullres.")
	flag.StringVar(&fold, "fold", launcher.DefaultFold, "(Optional) Cross-validation fold to train.")
	flag.BoolVar(&dryRun, "dry-run", false, "(Optional) Print the commands without running them.")
	flag.BoolVar(&skipPreprocess, "skip-preprocess", false, "(Optional) Skip planning and preprocessing.")
	flag.Parse()

	if datasetRoot == "" {
		datasetRoot = dataset.DefaultConfig().OutputDir
	}

	if stat, err := os.Stat(datasetRoot); err != nil || !stat.IsDir() {
		log.Printf("Dataset folder %s does not exist. Run prepdata first.\n", datasetRoot)
		flag.PrintDefaults()
		os.Exit(1)
	}

	env, err := launcher.NewEnv(datasetRoot)
	if err != nil {
		log.Fatalln(err)
	}

	log.Println("Environment Setup:")
	log.Printf("  RAW_DATA: %s\n", env.RawDataBase)
	log.Printf("  PREPROC : %s\n", env.Preprocessed)
	log.Printf("  RESULTS : %s\n", env.Results)

	if !dryRun {
		if err := env.Setup(); err != nil {
			log.Fatalln(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := launcher.Runner{Env: env, DryRun: dryRun}
	if err := runner.Run(ctx, launcher.Steps(name, configuration, fold, skipPreprocess)); err != nil {
		log.Fatalln(err)
	}
}
