package nucleiseg

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"

	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeBZip2
)

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
}

// DetectDataType checks the leading bytes against a set of known compression
// signatures. Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
func DetectDataType(header []byte) DataType {
	for dt, sig := range byteCodeSigs {
		if len(header) < len(sig) {
			continue
		}
		if !bytes.Equal(header[:len(sig)], sig) {
			continue
		}
		return dt
	}

	return DataTypeNoCompression
}

// MaybeDecompress peeks at the head of r and, if it is compressed, wraps it in
// the matching decompressor. Streams from Google Storage can't seek, so we peek
// through a buffer instead of rewinding.
func MaybeDecompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)

	// A short stream (e.g., an empty annotation file) is not an error here.
	head, err := br.Peek(6)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}

	switch DetectDataType(head) {
	case DataTypeGzip:
		return gzip.NewReader(br)
	case DataTypeZip:
		return &readCloserFaker{zipstream.NewReader(br)}, nil
	case DataTypeBZip2:
		return &readCloserFaker{bzip2.NewReader(br)}, nil
	case DataTypeXZ:
		reader, err := xz.NewReader(br, 0)
		if err != nil {
			return nil, err
		}
		return &readCloserFaker{reader}, nil
	}

	return &readCloserFaker{br}, nil
}

// readCloserFaker "upgrades" readers that don't need to be closed
type readCloserFaker struct {
	io.Reader
}

func (c *readCloserFaker) Close() error {
	return nil
}
