package launcher

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestNewEnv(t *testing.T) {
	base := t.TempDir()
	env, err := NewEnv(filepath.Join(base, "MoNuSeg", "TaskCSDS_CancerSegmentation"))
	if err != nil {
		t.Fatal(err)
	}

	parent := filepath.Join(base, "MoNuSeg")
	if env.RawDataBase != parent {
		t.Errorf("RawDataBase = %q, want %q", env.RawDataBase, parent)
	}
	if env.Preprocessed != filepath.Join(parent, "preprocessed") {
		t.Errorf("Preprocessed = %q", env.Preprocessed)
	}
	if env.Results != filepath.Join(parent, "results") {
		t.Errorf("Results = %q", env.Results)
	}

	vars := env.Vars()
	for _, key := range []string{"nnUNet_raw_data_base", "nnUNet_preprocessed", "RESULTS_FOLDER", "nnUNet_raw", "nnUNet_results"} {
		if vars[key] == "" {
			t.Errorf("%s is not set", key)
		}
	}

	if err := env.Setup(); err != nil {
		t.Fatal(err)
	}
	for _, dir := range []string{env.Preprocessed, env.Results} {
		if stat, err := os.Stat(dir); err != nil || !stat.IsDir() {
			t.Errorf("%s was not created: %v", dir, err)
		}
	}
}

func TestEnvironOverrides(t *testing.T) {
	env := Env{RawDataBase: "/raw", Preprocessed: "/pre", Results: "/res"}

	got := env.Environ([]string{"PATH=/bin", "RESULTS_FOLDER=/old", "EMPTY"})

	seen := map[string]int{}
	for _, kv := range got {
		key := strings.SplitN(kv, "=", 2)[0]
		seen[key]++
	}
	if seen["RESULTS_FOLDER"] != 1 {
		t.Errorf("Expected RESULTS_FOLDER once, got %d times in %v", seen["RESULTS_FOLDER"], got)
	}
	if seen["PATH"] != 1 || seen["EMPTY"] != 1 {
		t.Errorf("Expected unrelated variables to survive, got %v", got)
	}

	for _, kv := range got {
		if kv == "RESULTS_FOLDER=/old" {
			t.Error("Old RESULTS_FOLDER was not replaced")
		}
	}
}

func TestSteps(t *testing.T) {
	steps := Steps("TaskCSDS_CancerSegmentation", "", "", false)
	if len(steps) != 2 {
		t.Fatalf("Expected 2 steps, got %d", len(steps))
	}

	wantPre := []string{"-d", "TaskCSDS_CancerSegmentation", "-c", "2d", "--verify_dataset_integrity"}
	if steps[0].Program != "nnUNetv2_plan_and_preprocess" || !reflect.DeepEqual(steps[0].Args, wantPre) {
		t.Errorf("Unexpected preprocess step %+v", steps[0])
	}

	wantTrain := []string{"-d", "TaskCSDS_CancerSegmentation", "-c", "2d", "-f", "0"}
	if steps[1].Program != "nnUNetv2_train" || !reflect.DeepEqual(steps[1].Args, wantTrain) {
		t.Errorf("Unexpected train step %+v", steps[1])
	}

	skipped := Steps("D", "3d_fullres", "4", true)
	if len(skipped) != 1 || skipped[0].String() != "nnUNetv2_train -d D -c 3d_fullres -f 4" {
		t.Errorf("Unexpected steps %+v", skipped)
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}
}

func TestRunnerStopsAtFirstFailure(t *testing.T) {
	requireShell(t)

	dir := t.TempDir()
	first := filepath.Join(dir, "first")
	never := filepath.Join(dir, "never")

	steps := []Step{
		{Name: "first", Program: "sh", Args: []string{"-c", `printf %s "$nnUNet_raw_data_base" > "$0"`, first}},
		{Name: "fail", Program: "sh", Args: []string{"-c", "exit 3"}},
		{Name: "never", Program: "sh", Args: []string{"-c", `touch "$0"`, never}},
	}

	r := Runner{Env: Env{RawDataBase: "/raw", Preprocessed: "/pre", Results: "/res"}}
	err := r.Run(context.Background(), steps)
	if err == nil {
		t.Fatal("Expected an error from the failing step")
	}
	if !strings.Contains(err.Error(), "code 3") {
		t.Errorf("Expected the exit code in %q", err)
	}

	bts, readErr := os.ReadFile(first)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(bts) != "/raw" {
		t.Errorf("Step saw nnUNet_raw_data_base=%q", bts)
	}

	if _, err := os.Stat(never); !os.IsNotExist(err) {
		t.Error("Steps after a failure must not run")
	}
}

func TestRunnerDryRun(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")

	r := Runner{DryRun: true}
	steps := []Step{{Name: "touch", Program: "sh", Args: []string{"-c", `touch "$0"`, marker}}}
	if err := r.Run(context.Background(), steps); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("A dry run must not execute anything")
	}
}

func TestRunnerMissingProgram(t *testing.T) {
	r := Runner{}
	err := r.Run(context.Background(), []Step{{Name: "missing", Program: "definitely-not-a-real-program-xyz"}})
	if err == nil {
		t.Error("Expected an error for a missing program")
	}
}
