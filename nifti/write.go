package nifti

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
)

// Encode writes v as a single-file NIfTI-1 stream (header, empty extension
// flag, voxels).
func Encode(w io.Writer, v Volume) error {
	if err := v.Validate(); err != nil {
		return err
	}

	hdr := newHeader(v)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return pfx.Err(err)
	}

	// No extensions follow
	if _, err := w.Write([]byte{0, 0, 0, 0}); err != nil {
		return pfx.Err(err)
	}

	if _, err := w.Write(v.Data); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// Write saves v to path, gzip-compressed if path ends in .gz. The volume is
// written to a temporary file in the same folder and renamed into place, so a
// failure never leaves a partial file at path.
func Write(path string, v Volume) (err error) {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return pfx.Err(err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)

	if strings.HasSuffix(path, ".gz") {
		zw := gzip.NewWriter(bw)
		if err = Encode(zw, v); err != nil {
			return err
		}
		if err = zw.Close(); err != nil {
			return pfx.Err(err)
		}
	} else if err = Encode(bw, v); err != nil {
		return err
	}

	if err = bw.Flush(); err != nil {
		return pfx.Err(err)
	}
	if err = tmp.Close(); err != nil {
		return pfx.Err(err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// ReadHeader decodes the header at the start of a (possibly gzipped) stream.
func ReadHeader(r io.Reader) (Header, error) {
	var hdr Header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return hdr, pfx.Err(err)
	}

	if hdr.SizeofHdr != HeaderSize {
		return hdr, pfx.Err(fmt.Errorf("sizeof_hdr is %d, expected %d (big endian files are not supported)", hdr.SizeofHdr, HeaderSize))
	}

	return hdr, nil
}
