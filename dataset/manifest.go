package dataset

import (
	"encoding/json"
	"os"
	"path"

	"github.com/carbocation/pfx"
)

// Pair links a training image to its label volume, both relative to the
// dataset root.
type Pair struct {
	Image string `json:"image"`
	Label string `json:"label"`
}

// Manifest is the dataset.json descriptor read by the training framework.
type Manifest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Reference   string            `json:"reference"`
	Licence     string            `json:"licence"`
	Release     string            `json:"release"`
	Modality    map[string]string `json:"modality"`
	Labels      map[string]string `json:"labels"`
	NumTraining int               `json:"numTraining"`
	NumTest     int               `json:"numTest"`
	Training    []Pair            `json:"training"`
	Test        []string          `json:"test"`

	// Unpaired lists training images left out because labelsTr has no volume
	// of the same name (e.g., their annotation failed to convert).
	Unpaired []string `json:"-"`
}

// BuildManifest enumerates the converted images in the layout. A training image
// is listed only when labelsTr holds a label of the same name; the rest are
// reported in Unpaired.
func BuildManifest(layout Layout, cfg Config) (Manifest, error) {
	out := Manifest{
		Name:        cfg.Name,
		Description: cfg.Description,
		Reference:   cfg.Reference,
		Licence:     cfg.Licence,
		Release:     cfg.Release,
		Modality:    cfg.Modality,
		Labels:      cfg.Labels.Legend(),
		Training:    []Pair{},
		Test:        []string{},
	}

	training, err := layout.Volumes(KindImage, Training)
	if err != nil {
		return out, err
	}
	labels, err := layout.Volumes(KindLabel, Training)
	if err != nil {
		return out, err
	}
	haveLabel := make(map[string]bool, len(labels))
	for _, name := range labels {
		haveLabel[name] = true
	}

	for _, name := range training {
		if !haveLabel[name] {
			out.Unpaired = append(out.Unpaired, name)
			continue
		}

		out.Training = append(out.Training, Pair{
			Image: "./" + path.Join("images"+string(Training), name),
			Label: "./" + path.Join("labels"+string(Training), name),
		})
	}

	test, err := layout.Volumes(KindImage, Test)
	if err != nil {
		return out, err
	}
	for _, name := range test {
		out.Test = append(out.Test, "./"+path.Join("images"+string(Test), name))
	}

	out.NumTraining = len(out.Training)
	out.NumTest = len(out.Test)

	return out, nil
}

// WriteManifest builds the manifest and writes it to dataset.json under the
// layout root.
func WriteManifest(layout Layout, cfg Config) (Manifest, error) {
	m, err := BuildManifest(layout, cfg)
	if err != nil {
		return m, err
	}

	bts, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return m, pfx.Err(err)
	}

	if err := os.WriteFile(layout.ManifestPath(), append(bts, '\n'), 0644); err != nil {
		return m, pfx.Err(err)
	}

	return m, nil
}
