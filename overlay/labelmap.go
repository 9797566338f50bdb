package overlay

import (
	"fmt"
	"sort"
	"strconv"
)

// A Label tracks the segmentation ID with the human-identifiable Label and
// human-interpretable color (in RGB hex, e.g., #FF0000 for red).
type Label struct {
	Label     string `json:"-"`
	ID        uint   `json:"id"`
	Color     string `json:"color"`
	SortOrder int    `json:"sort_order,omitempty"`
}

// LabelMap ([string label name]Label) keeps track of the relationship between
// human-visible colors and the segmentation ID (used for deep learning) of that
// label.
type LabelMap map[string]Label

// DefaultLabels is the two-class legend for nuclei segmentation.
func DefaultLabels() LabelMap {
	return LabelMap{
		"background": {ID: 0, Color: ""},
		"nuclei":     {ID: 1, Color: "#cb181d"},
	}
}

// Valid ensures that the LabelMap is valid by testing that it is bijective and
// that every colour parses.
func (l LabelMap) Valid() error {
	inverse := make(map[uint]string)
	for k, v := range l {
		if other, exists := inverse[v.ID]; exists {
			return fmt.Errorf("Labels %q and %q share ID %d", other, k, v.ID)
		}
		inverse[v.ID] = k

		if _, err := nrgbaFromColorCode(v.Color); err != nil {
			return fmt.Errorf("Label %q: %w", k, err)
		}
	}

	return nil
}

func (l LabelMap) Sorted() []Label {
	out := make([]Label, 0, len(l))

	for k, v := range l {
		v.Label = k
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool {
		// If SortOrder is defined and different, use it:
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}

		// If SortOrder is not defined, or is the same for two values, drop down
		// to the ID field for sorting
		return out[i].ID < out[j].ID
	})

	return out
}

// Legend maps the stringified ID to the label name, the form the training
// framework expects in dataset.json.
func (l LabelMap) Legend() map[string]string {
	out := make(map[string]string, len(l))
	for k, v := range l {
		out[strconv.FormatUint(uint64(v.ID), 10)] = k
	}

	return out
}

// Foreground returns the first non-background label in sort order, used to
// colour mask overlays.
func (l LabelMap) Foreground() (Label, bool) {
	for _, v := range l.Sorted() {
		if v.ID != 0 {
			return v, true
		}
	}

	return Label{}, false
}
