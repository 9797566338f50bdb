package annotation

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const twoRegions = `<?xml version="1.0" encoding="UTF-8"?>
<Annotations MicronsPerPixel="0.252000">
  <Annotation Id="1" Name="" ReadOnly="0">
    <Regions>
      <RegionAttributeHeaders/>
      <Region Id="1" Type="0" Zoom="1">
        <Vertices>
          <Vertex X="2" Y="2" Z="0"/>
          <Vertex X="2" Y="8" Z="0"/>
          <Vertex X="8.4" Y="8.9" Z="0"/>
          <Vertex X="8.999" Y="2.0001" Z="0"/>
        </Vertices>
      </Region>
      <Region Id="2" Type="0" Zoom="1">
        <Vertices>
          <Vertex X="10.9" Y="11.5"/>
          <Vertex X="14" Y="11"/>
          <Vertex X="12" Y="15"/>
        </Vertices>
      </Region>
    </Regions>
  </Annotation>
</Annotations>`

func TestParseTwoRegions(t *testing.T) {
	ann, err := Parse(strings.NewReader(twoRegions))
	if err != nil {
		t.Fatal(err)
	}

	want := []Region{
		{{2, 2}, {2, 8}, {8, 8}, {8, 2}},
		{{10, 11}, {14, 11}, {12, 15}},
	}

	if !reflect.DeepEqual(ann.Regions, want) {
		t.Errorf("Got %v, want %v", ann.Regions, want)
	}

	if ann.VertexCount() != 7 {
		t.Errorf("Expected 7 vertices, got %d", ann.VertexCount())
	}
}

// Truncation toward zero (not rounding) is the historical behavior and output
// masks depend on it.
func TestVertexTruncation(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"10.9", 10},
		{"10.1", 10},
		{"10", 10},
		{" 7.5 ", 7},
		{"-0.7", 0},
		{"-3.9", -3},
		{"1e2", 100},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := truncateCoordinate(tt.text)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("truncateCoordinate(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseEmptyDocument(t *testing.T) {
	for _, doc := range []string{
		`<Annotations/>`,
		`<?xml version="1.0"?><Annotations><Annotation><Regions></Regions></Annotation></Annotations>`,
	} {
		ann, err := Parse(strings.NewReader(doc))
		if err != nil {
			t.Errorf("%s: %v", doc, err)
			continue
		}
		if len(ann.Regions) != 0 {
			t.Errorf("%s: expected no regions, got %d", doc, len(ann.Regions))
		}
	}
}

func TestParseDegenerateRegionsPassThrough(t *testing.T) {
	doc := `<Annotations><Region><Vertices/></Region><Region><Vertices><Vertex X="1" Y="1"/></Vertices></Region></Annotations>`

	ann, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}

	if len(ann.Regions) != 2 {
		t.Fatalf("Expected 2 regions, got %d", len(ann.Regions))
	}
	if len(ann.Regions[0]) != 0 || len(ann.Regions[1]) != 1 {
		t.Errorf("Unexpected region sizes %d and %d", len(ann.Regions[0]), len(ann.Regions[1]))
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unclosed", `<Annotations><Region><Vertices><Vertex X="1" Y="1"/>`},
		{"garbage", `this is not xml <<<`},
		{"empty", ``},
		{"non-numeric", `<Annotations><Region><Vertices><Vertex X="one" Y="1"/></Vertices></Region></Annotations>`},
		{"missing attribute", `<Annotations><Region><Vertices><Vertex X="1"/></Vertices></Region></Annotations>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.doc)); err == nil {
				t.Errorf("Expected an error for %q", tt.doc)
			}
		})
	}
}

func TestParseLatin1(t *testing.T) {
	// "Région" in ISO-8859-1 carries a byte that is invalid UTF-8
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><Annotations Name=\"R\xe9gion\"><Region><Vertices><Vertex X=\"1\" Y=\"2\"/></Vertices></Region></Annotations>"

	ann, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(ann.Regions) != 1 || ann.Regions[0][0] != (Vertex{1, 2}) {
		t.Errorf("Unexpected regions %v", ann.Regions)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "case.xml")
	if err := os.WriteFile(plain, []byte(twoRegions), 0644); err != nil {
		t.Fatal(err)
	}

	packed := filepath.Join(dir, "case.xml.gz")
	f, err := os.Create(packed)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	zw.Write([]byte(twoRegions))
	zw.Close()
	f.Close()

	for _, path := range []string{plain, packed} {
		ann, err := ParseFile(context.Background(), path, nil)
		if err != nil {
			t.Fatal(err)
		}
		if ann.Source != path {
			t.Errorf("Expected source %s, got %s", path, ann.Source)
		}
		if len(ann.Regions) != 2 {
			t.Errorf("%s: expected 2 regions, got %d", path, len(ann.Regions))
		}
	}

	if _, err := ParseFile(context.Background(), filepath.Join(dir, "missing.xml"), nil); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
