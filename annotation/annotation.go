// Package annotation parses polygon annotations from Aperio ImageScope-style
// XML, as distributed with the MoNuSeg nuclei segmentation dataset.
package annotation

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/nucleiseg"
	"github.com/carbocation/pfx"
	"golang.org/x/net/html/charset"
)

// Vertex is a polygon vertex on the integer pixel grid. X is the column, Y is
// the row.
type Vertex struct {
	X, Y int
}

// Region is a closed polygon. The edge from the last vertex back to the first
// is implicit.
type Region []Vertex

// Annotation is the ordered set of regions from one annotation file.
type Annotation struct {
	Source  string
	Regions []Region
}

// VertexCount is the total number of vertices over all regions.
func (a Annotation) VertexCount() int {
	n := 0
	for _, r := range a.Regions {
		n += len(r)
	}

	return n
}

// xmlRegion matches a <Region> element wherever it sits in the document.
type xmlRegion struct {
	ID       string `xml:"Id,attr"`
	Vertices struct {
		Vertex []struct {
			X string `xml:"X,attr"`
			Y string `xml:"Y,attr"`
		} `xml:"Vertex"`
	} `xml:"Vertices"`
}

// Parse reads one annotation document. Every Region element is collected in
// document order regardless of its depth. A document without regions yields
// an empty Annotation.
func Parse(r io.Reader) (Annotation, error) {
	out := Annotation{}

	// Aperio exports are frequently declared as ISO-8859-1 rather than UTF-8
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	sawRoot := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return Annotation{}, pfx.Err(err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true

		if start.Name.Local != "Region" {
			continue
		}

		var raw xmlRegion
		if err := decoder.DecodeElement(&raw, &start); err != nil {
			return Annotation{}, pfx.Err(err)
		}

		region := make(Region, 0, len(raw.Vertices.Vertex))
		for i, v := range raw.Vertices.Vertex {
			x, err := truncateCoordinate(v.X)
			if err != nil {
				return Annotation{}, pfx.Err(fmt.Errorf("Region %q vertex %d X: %w", raw.ID, i, err))
			}
			y, err := truncateCoordinate(v.Y)
			if err != nil {
				return Annotation{}, pfx.Err(fmt.Errorf("Region %q vertex %d Y: %w", raw.ID, i, err))
			}
			region = append(region, Vertex{X: x, Y: y})
		}

		out.Regions = append(out.Regions, region)
	}

	// Whitespace-only input has no root element, which is malformed rather
	// than empty
	if !sawRoot {
		return Annotation{}, pfx.Err(fmt.Errorf("no root element found"))
	}

	return out, nil
}

// ParseFile parses the annotation at path, which may be local or on Google
// Storage (gs://) and may be compressed.
func ParseFile(ctx context.Context, path string, client *storage.Client) (Annotation, error) {
	f, err := nucleiseg.Open(ctx, path, client)
	if err != nil {
		return Annotation{}, err
	}
	defer f.Close()

	out, err := Parse(f)
	if err != nil {
		return Annotation{}, fmt.Errorf("%s: %w", path, err)
	}
	out.Source = path

	return out, nil
}

// truncateCoordinate parses a floating point coordinate and truncates it
// toward zero, so "10.9" becomes 10 and "-0.7" becomes 0. Downstream masks
// were produced with truncation, not rounding.
func truncateCoordinate(text string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("coordinate %q is out of range", text)
	}

	return int(f), nil
}
