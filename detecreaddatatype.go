package wbbcpanel

import (
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
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
	DataTypeZ
	DataTypeBZip2
)

func (d DataType) String() string {
	switch d {
	case DataTypeNoCompression:
		return "plain"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeZ:
		return "zlib"
	case DataTypeBZip2:
		return "bzip2"
	}

	return "invalid"
}

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZ:     {0x1f, 0x9d},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
}

// DetectDataType attempts to detect the data type of a stream by checking
// against a set of known data types. Streams shorter than a signature
// cannot match it. Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
func DetectDataType(r io.Reader) (DataType, error) {
	buff := make([]byte, 6)
	n, err := io.ReadFull(r, buff)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return DataTypeInvalid, err
	}
	buff = buff[:n]

	// Match known signatures
Outer:
	for dt, sig := range byteCodeSigs {
		if len(sig) > len(buff) {
			continue
		}
		for position := range sig {
			if buff[position] != sig[position] {
				continue Outer
			}
		}
		return dt, nil
	}

	return DataTypeNoCompression, nil
}

// MaybeDecompress sniffs the compression of r and returns a reader over the
// decompressed stream. Closing the returned reader also closes r.
// Uncompressed input is returned as-is, rewound to its start.
func MaybeDecompress(r ReadSeekCloser) (io.ReadCloser, error) {
	dt, err := DetectDataType(r)
	if err != nil {
		return nil, err
	}

	// Rewind before handing the stream to a decompressor
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	switch dt {
	case DataTypeGzip:
		// gzip.Reader reads concatenated members by default, which is what
		// bgzip output is.
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &decompressedReadCloser{Reader: gz, closers: []io.Closer{gz, r}}, nil
	case DataTypeZip:
		// Only the first entry of the archive is read
		zr := zipstream.NewReader(r)
		if _, err := zr.Next(); err != nil {
			return nil, err
		}
		return &decompressedReadCloser{Reader: zr, closers: []io.Closer{r}}, nil
	case DataTypeBZip2:
		return &decompressedReadCloser{Reader: bzip2.NewReader(r), closers: []io.Closer{r}}, nil
	case DataTypeXZ:
		reader, err := xz.NewReader(r, 0)
		if err != nil {
			return nil, err
		}
		return &decompressedReadCloser{Reader: reader, closers: []io.Closer{r}}, nil
	case DataTypeZ:
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &decompressedReadCloser{Reader: zr, closers: []io.Closer{zr, r}}, nil
	}

	// No data type detected. For now, we assume this is uncompressed.
	return r, nil
}

// decompressedReadCloser closes the decompressor (when it has a Close) and
// then the underlying source.
type decompressedReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (c *decompressedReadCloser) Close() error {
	var firstErr error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
