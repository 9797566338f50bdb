package nucleiseg

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// bucketClient returns a storage client whose object reads are served from
// objects, keyed by object name within bucket.
func bucketClient(t *testing.T, bucket string, objects map[string][]byte) *storage.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, exists := objects[strings.TrimPrefix(r.URL.Path, "/"+bucket+"/")]
		if !exists || !strings.HasPrefix(r.URL.Path, "/"+bucket+"/") {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(srv.Close)

	client, err := storage.NewClient(context.Background(), option.WithEndpoint(srv.URL+"/storage/v1/"), option.WithoutAuthentication())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}

func gzipBytes(t *testing.T, payload []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

func TestDetectDataType(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   DataType
	}{
		{"gzip", []byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00}, DataTypeGzip},
		{"zip", []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0x00}, DataTypeZip},
		{"bzip2", []byte("BZh91A"), DataTypeBZip2},
		{"xml", []byte("<?xml "), DataTypeNoCompression},
		{"short", []byte{0x1f}, DataTypeNoCompression},
		{"empty", nil, DataTypeNoCompression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDataType(tt.header); got != tt.want {
				t.Errorf("DetectDataType(%v) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestOpenLocalGzip(t *testing.T) {
	payload := []byte("<Annotations></Annotations>")

	dir := t.TempDir()
	for name, contents := range map[string][]byte{"plain.xml": payload, "packed.xml.gz": gzipBytes(t, payload)} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, contents, 0644); err != nil {
			t.Fatal(err)
		}

		f, err := Open(context.Background(), path, nil)
		if err != nil {
			t.Fatal(err)
		}
		got, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			t.Fatal(err)
		}

		if !bytes.Equal(got, payload) {
			t.Errorf("%s: got %q, want %q", name, got, payload)
		}
	}
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	f, err := Open(context.Background(), path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no bytes, got %d", len(got))
	}
}

func TestGoogleStorageRequiresClient(t *testing.T) {
	if _, err := Open(context.Background(), "gs://bucket/labels/a.xml", nil); err == nil {
		t.Error("Expected an error when opening a gs:// path without a client")
	}
}

func TestOpenGoogleStorage(t *testing.T) {
	payload := []byte("<Annotations></Annotations>")
	client := bucketClient(t, "monuseg", map[string][]byte{
		"labelsTr/plain.xml":     payload,
		"labelsTr/packed.xml.gz": gzipBytes(t, payload),
	})

	for _, path := range []string{"gs://monuseg/labelsTr/plain.xml", "gs://monuseg/labelsTr/packed.xml.gz"} {
		f, err := Open(context.Background(), path, client)
		if err != nil {
			t.Fatal(err)
		}
		got, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			t.Fatal(err)
		}

		if !bytes.Equal(got, payload) {
			t.Errorf("%s: got %q, want %q", path, got, payload)
		}
	}

	if _, err := Open(context.Background(), "gs://monuseg/labelsTr/missing.xml", client); err == nil {
		t.Error("Expected an error for a missing object")
	}
}

func TestSplitGoogleStoragePath(t *testing.T) {
	bucket, object, err := SplitGoogleStoragePath("gs://monuseg/labelsTr/TCGA-18.xml")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "monuseg" || object != "labelsTr/TCGA-18.xml" {
		t.Errorf("Got bucket %q object %q", bucket, object)
	}

	if _, _, err := SplitGoogleStoragePath("gs://monuseg"); err == nil {
		t.Error("Expected an error for a path without an object")
	}
}
