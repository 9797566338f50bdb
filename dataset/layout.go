package dataset

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/nucleiseg"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"
)

// Split is the training or test partition of the dataset.
type Split string

const (
	Training Split = "Tr"
	Test     Split = "Ts"
)

func (s Split) String() string {
	switch s {
	case Training:
		return "training"
	case Test:
		return "test"
	}

	return string(s)
}

// Kind distinguishes image volumes from label (distance map) volumes.
type Kind string

const (
	KindImage Kind = "image"
	KindLabel Kind = "label"
)

const niftiSuffix = ".nii.gz"

// Layout is the output directory tree the training framework reads:
// images{Tr,Ts} and labels{Tr,Ts} under Root, plus dataset.json.
type Layout struct {
	Root string
}

// Dir is the output directory for volumes of the given kind and split.
func (l Layout) Dir(kind Kind, split Split) string {
	if kind == KindLabel {
		return filepath.Join(l.Root, "labels"+string(split))
	}

	return filepath.Join(l.Root, "images"+string(split))
}

func (l Layout) ManifestPath() string {
	return filepath.Join(l.Root, "dataset.json")
}

// OutputPath maps a source file to its volume in the layout. The name is
// the source's base name with its extension replaced by .nii.gz.
func (l Layout) OutputPath(kind Kind, split Split, source string) string {
	return filepath.Join(l.Dir(kind, split), Stem(source)+niftiSuffix)
}

// Setup creates the four output directories. It is safe to call repeatedly.
func (l Layout) Setup() error {
	if l.Root == "" {
		return pfx.Err(fmt.Errorf("Layout has no root directory"))
	}

	for _, split := range []Split{Training, Test} {
		for _, kind := range []Kind{KindImage, KindLabel} {
			if err := os.MkdirAll(l.Dir(kind, split), 0755); err != nil {
				return pfx.Err(err)
			}
		}
	}

	return nil
}

// Volumes lists the .nii.gz files in one output directory, sorted by name.
func (l Layout) Volumes(kind Kind, split Split) ([]string, error) {
	entries, err := os.ReadDir(l.Dir(kind, split))
	if err != nil {
		return nil, pfx.Err(err)
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), niftiSuffix) {
			continue
		}
		out = append(out, entry.Name())
	}
	sort.Strings(out)

	return out, nil
}

// Stem strips the directory and extension from path. Volume names lose the
// whole .nii.gz suffix, not just .gz.
func Stem(path string) string {
	base := filepath.Base(path)
	if strings.HasSuffix(base, niftiSuffix) {
		return strings.TrimSuffix(base, niftiSuffix)
	}

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Source describes where one split's raw inputs live. Directories may be
// local or on Google Storage (gs://).
type Source struct {
	Split     Split
	ImageDir  string
	LabelDir  string
	ImageExts []string
}

// Sources returns the raw MoNuSeg layout: training annotations live in their
// own labelsTr folder, while test annotations sit beside the test images.
func Sources(sourceDir string) []Source {
	imageExts := []string{".tif", ".tiff"}

	return []Source{
		{
			Split:     Training,
			ImageDir:  joinPath(sourceDir, "imagesTr"),
			LabelDir:  joinPath(sourceDir, "labelsTr"),
			ImageExts: imageExts,
		},
		{
			Split:     Test,
			ImageDir:  joinPath(sourceDir, "imagesTs"),
			LabelDir:  joinPath(sourceDir, "imagesTs"),
			ImageExts: imageExts,
		},
	}
}

// Images lists the source images of the split, sorted. A missing directory
// yields no files. The client is only needed for gs:// directories.
func (s Source) Images(ctx context.Context, client *storage.Client) ([]string, error) {
	return listWithSuffix(ctx, client, s.ImageDir, s.ImageExts...)
}

// Annotations lists the split's XML annotation files, sorted.
func (s Source) Annotations(ctx context.Context, client *storage.Client) ([]string, error) {
	return listWithSuffix(ctx, client, s.LabelDir, ".xml")
}

// byStem indexes paths by their Stem. The first path wins if two share a stem
// (e.g., a.tif and a.tiff), matching sorted order.
func byStem(paths []string) map[string]string {
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		stem := Stem(p)
		if _, exists := out[stem]; !exists {
			out[stem] = p
		}
	}

	return out
}

// joinPath joins elements onto a local or gs:// directory. filepath.Join
// would collapse the "//" of a gs:// prefix.
func joinPath(dir string, elem ...string) string {
	if nucleiseg.IsGoogleStoragePath(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + path.Join(elem...)
	}

	return filepath.Join(append([]string{dir}, elem...)...)
}

func hasSuffix(name string, suffixes []string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, suffix := range suffixes {
		if ext == suffix {
			return true
		}
	}

	return false
}

func listWithSuffix(ctx context.Context, client *storage.Client, dir string, suffixes ...string) ([]string, error) {
	if nucleiseg.IsGoogleStoragePath(dir) {
		return listGoogleStorageWithSuffix(ctx, client, dir, suffixes...)
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, pfx.Err(err)
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() || !hasSuffix(entry.Name(), suffixes) {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(out)

	return out, nil
}

// listGoogleStorageWithSuffix lists the objects directly under a gs://
// "directory". An empty listing is not an error, as with a missing local
// folder.
func listGoogleStorageWithSuffix(ctx context.Context, client *storage.Client, dir string, suffixes ...string) ([]string, error) {
	if client == nil {
		return nil, pfx.Err(fmt.Errorf("%s: a storage client is required for gs:// paths", dir))
	}

	bucketName, prefix, err := nucleiseg.SplitGoogleStoragePath(strings.TrimSuffix(dir, "/") + "/")
	if err != nil {
		return nil, pfx.Err(err)
	}

	var out []string
	it := client.Bucket(bucketName).Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: "/"})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		} else if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", dir, err))
		}

		// Synthetic "subdirectory" entries carry only a Prefix
		if attrs.Name == "" || !hasSuffix(attrs.Name, suffixes) {
			continue
		}

		out = append(out, "gs://"+bucketName+"/"+attrs.Name)
	}
	sort.Strings(out)

	return out, nil
}
