package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/carbocation/pfx"
	"github.com/montanaflynn/stats"
)

// Report collects the per-file results of a Run, sorted by split, kind and
// source path.
type Report struct {
	Results []Result
	Elapsed time.Duration
}

func NewReport(results []Result, elapsed time.Duration) Report {
	sorted := append([]Result(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Split != sorted[j].Split {
			return sorted[i].Split < sorted[j].Split
		}
		if sorted[i].Kind != sorted[j].Kind {
			return sorted[i].Kind < sorted[j].Kind
		}
		return sorted[i].Source < sorted[j].Source
	})

	return Report{Results: sorted, Elapsed: elapsed}
}

// Counts tallies results by status.
func (r Report) Counts() map[Status]int {
	out := make(map[Status]int)
	for _, res := range r.Results {
		out[res.Status]++
	}

	return out
}

func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}

	return out
}

// MedianForegroundFraction is the median share of foreground pixels across
// successfully converted labels.
func (r Report) MedianForegroundFraction() (float64, error) {
	var fractions stats.Float64Data
	for _, res := range r.Results {
		if res.Kind != KindLabel || res.Status != StatusOK || res.Height*res.Width == 0 {
			continue
		}
		fractions = append(fractions, float64(res.ForegroundPixels)/float64(res.Height*res.Width))
	}

	median, err := stats.Median(fractions)
	if err != nil {
		return 0, pfx.Err(err)
	}

	return median, nil
}

// Summary is a one-line description suitable for logging.
func (r Report) Summary() string {
	counts := r.Counts()
	out := fmt.Sprintf("%d files: %d ok, %d failed, %d skipped in %.2f seconds",
		len(r.Results), counts[StatusOK], counts[StatusFailed], counts[StatusSkipped], r.Elapsed.Seconds())

	if median, err := r.MedianForegroundFraction(); err == nil {
		out += fmt.Sprintf(". Median foreground fraction %.4f", median)
	}

	return out
}

var tsvHeader = []string{"split", "kind", "source", "output", "status", "height", "width", "regions", "foreground_pixels", "components", "error"}

// WriteTSV emits one tab-delimited row per result, with a header.
func (r Report) WriteTSV(w io.Writer) error {
	if _, err := fmt.Fprintln(w, strings.Join(tsvHeader, "\t")); err != nil {
		return pfx.Err(err)
	}

	for _, res := range r.Results {
		errText := ""
		if res.Err != nil {
			errText = strings.NewReplacer("\t", " ", "\n", " ").Replace(res.Err.Error())
		}

		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			res.Split.String(), res.Kind, res.Source, res.Output, res.Status,
			res.Height, res.Width, res.Regions, res.ForegroundPixels, res.Components, errText)
		if err != nil {
			return pfx.Err(err)
		}
	}

	return nil
}

func (r Report) WriteTSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	fw := bufio.NewWriter(f)
	if err := r.WriteTSV(fw); err != nil {
		return err
	}
	if err := fw.Flush(); err != nil {
		return pfx.Err(err)
	}

	return pfx.Err(f.Close())
}
