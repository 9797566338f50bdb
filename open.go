package nucleiseg

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// ReadCloser is the handle returned by Open. Callers must Close it on every
// path.
type ReadCloser interface {
	io.Reader
	io.Closer
}

// SplitGoogleStoragePath splits gs://bucket/object/path into its bucket and
// object parts.
func SplitGoogleStoragePath(path string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// IsGoogleStoragePath reports whether path should be read through a storage
// client rather than the local filesystem.
func IsGoogleStoragePath(path string) bool {
	return strings.HasPrefix(path, "gs://")
}

// MaybeOpenFromGoogleStorage opens path from Google Storage if it has a gs://
// prefix, and from the local filesystem otherwise. A nil client with a gs://
// path is an error.
func MaybeOpenFromGoogleStorage(ctx context.Context, path string, client *storage.Client) (ReadCloser, error) {
	if IsGoogleStoragePath(path) {
		if client == nil {
			return nil, pfx.Err(fmt.Errorf("%s: a storage client is required for gs:// paths", path))
		}

		bucketName, pathName, err := SplitGoogleStoragePath(path)
		if err != nil {
			return nil, pfx.Err(err)
		}

		rdr, err := client.Bucket(bucketName).Object(pathName).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %s", path, err))
		}

		return rdr, nil
	}

	return os.Open(path)
}

// Open opens a local or gs:// path and transparently decompresses it if it
// carries a known compression signature. Closing the returned handle closes
// both the decompressor and the underlying file.
func Open(ctx context.Context, path string, client *storage.Client) (ReadCloser, error) {
	f, err := MaybeOpenFromGoogleStorage(ctx, path, client)
	if err != nil {
		return nil, err
	}

	r, err := MaybeDecompress(f)
	if err != nil {
		f.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return &stackedCloser{Reader: r, closers: []io.Closer{r, f}}, nil
}

// stackedCloser closes the decompressor and then the source handle.
type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}
