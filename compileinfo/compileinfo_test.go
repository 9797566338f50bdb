package compileinfo

import (
	"bytes"
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	c := CompileInfo{Package: "github.com/carbocation/nucleiseg/cmd/prepdata", GoVersion: "go1.18", Commit: "abc", CommitTime: "2022-01-01T00:00:00Z", Modified: true}

	s := c.String()
	for _, want := range []string{c.Package, "go1.18", "abc", "modified"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %q in %q", want, s)
		}
	}

	if s := (CompileInfo{}).String(); !strings.Contains(s, "unavailable") {
		t.Errorf("Unexpected empty banner %q", s)
	}
}

func TestFprint(t *testing.T) {
	var buf bytes.Buffer
	Fprint(&buf)

	if !strings.HasSuffix(buf.String(), "\n") {
		t.Errorf("Expected a trailing newline in %q", buf.String())
	}
}
