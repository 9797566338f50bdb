// Package launcher prepares the environment for, and runs, the external
// nnU-Net planning and training commands against a prepared dataset.
package launcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/carbocation/pfx"
)

const (
	DefaultConfiguration = "2d"
	DefaultFold          = "0"
)

// Env holds the directories the training framework discovers through
// environment variables. All are derived from the dataset root.
type Env struct {
	RawDataBase  string
	Preprocessed string
	Results      string
}

// NewEnv derives the environment from the dataset root: raw data lives in the
// root's parent, with preprocessed and results folders beside it.
func NewEnv(datasetRoot string) (Env, error) {
	abs, err := filepath.Abs(datasetRoot)
	if err != nil {
		return Env{}, pfx.Err(err)
	}

	parent := filepath.Dir(abs)

	return Env{
		RawDataBase:  parent,
		Preprocessed: filepath.Join(parent, "preprocessed"),
		Results:      filepath.Join(parent, "results"),
	}, nil
}

// Vars returns the variables to export. Both the v1 and v2 names are set.
func (e Env) Vars() map[string]string {
	return map[string]string{
		"nnUNet_raw_data_base": e.RawDataBase,
		"nnUNet_raw":           e.RawDataBase,
		"nnUNet_preprocessed":  e.Preprocessed,
		"RESULTS_FOLDER":       e.Results,
		"nnUNet_results":       e.Results,
	}
}

// Environ merges Vars over base (typically os.Environ()), replacing any
// existing definitions.
func (e Env) Environ(base []string) []string {
	vars := e.Vars()

	out := make([]string, 0, len(base)+len(vars))
	for _, kv := range base {
		key := kv
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			key = kv[:idx]
		}
		if _, overridden := vars[key]; overridden {
			continue
		}
		out = append(out, kv)
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+vars[k])
	}

	return out
}

// Setup creates the preprocessed and results directories.
func (e Env) Setup() error {
	for _, dir := range []string{e.Preprocessed, e.Results} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}

// Step is one external command.
type Step struct {
	Name    string
	Program string
	Args    []string
}

func (s Step) String() string {
	return strings.Join(append([]string{s.Program}, s.Args...), " ")
}

// PreprocessStep plans and preprocesses the dataset, verifying its integrity.
func PreprocessStep(dataset, configuration string) Step {
	return Step{
		Name:    "preprocess",
		Program: "nnUNetv2_plan_and_preprocess",
		Args:    []string{"-d", dataset, "-c", configuration, "--verify_dataset_integrity"},
	}
}

func TrainStep(dataset, configuration, fold string) Step {
	return Step{
		Name:    "train",
		Program: "nnUNetv2_train",
		Args:    []string{"-d", dataset, "-c", configuration, "-f", fold},
	}
}

// Steps returns the standard pipeline: preprocessing (unless skipped), then
// training. Empty configuration and fold fall back to 2d and fold 0.
func Steps(dataset, configuration, fold string, skipPreprocess bool) []Step {
	if configuration == "" {
		configuration = DefaultConfiguration
	}
	if fold == "" {
		fold = DefaultFold
	}

	var out []Step
	if !skipPreprocess {
		out = append(out, PreprocessStep(dataset, configuration))
	}

	return append(out, TrainStep(dataset, configuration, fold))
}

// Runner executes steps in order with the training environment applied.
type Runner struct {
	Env    Env
	Stdout io.Writer
	Stderr io.Writer

	// DryRun logs each command instead of executing it.
	DryRun bool
}

// Run executes steps sequentially and stops at the first failure. There are no
// retries.
func (r Runner) Run(ctx context.Context, steps []Step) error {
	for _, step := range steps {
		if r.DryRun {
			log.Printf("[dry run] %s: %s\n", step.Name, step)
			continue
		}

		start := time.Now()
		log.Printf("%s start: %s\n", step.Name, step)

		cmd := exec.CommandContext(ctx, step.Program, step.Args...)
		cmd.Env = r.Env.Environ(os.Environ())
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr
		if cmd.Stdout == nil {
			cmd.Stdout = os.Stdout
		}
		if cmd.Stderr == nil {
			cmd.Stderr = os.Stderr
		}

		if err := cmd.Run(); err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				return pfx.Err(fmt.Errorf("%s exited with code %d: %w", step.Name, exitErr.ExitCode(), err))
			}
			return pfx.Err(fmt.Errorf("%s: %w", step.Name, err))
		}

		log.Printf("%s end. Took %.2f seconds\n", step.Name, time.Since(start).Seconds())
	}

	return nil
}
