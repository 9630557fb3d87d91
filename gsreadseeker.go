package wbbcpanel

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

type ReadSeekCloser interface {
	io.Reader
	io.Seeker
	io.Closer
}

// GSReadSeekCloser decorates a Google Storage object handle with io.Reader,
// io.Seeker and io.Closer. Storage readers cannot seek, so a Seek drops the
// current range reader and the next Read opens a new one at the new offset.
// Derived from
// https://github.com/googleapis/google-cloud-go/issues/1124#issuecomment-419070541
type GSReadSeekCloser struct {
	*storage.ObjectHandle
	Context context.Context

	r      *storage.Reader
	size   int64
	offset int64
}

func (s *GSReadSeekCloser) Read(buf []byte) (int, error) {
	if s.r == nil {
		r, err := s.NewRangeReader(s.Context, s.offset, -1)
		if err != nil {
			return 0, err
		}
		s.r = r
	}

	n, err := s.r.Read(buf)
	s.offset += int64(n)

	return n, err
}

func (s *GSReadSeekCloser) Seek(offset int64, whence int) (int64, error) {
	var next int64

	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = s.offset + offset
	case io.SeekEnd:
		next = s.size + offset
	default:
		return 0, fmt.Errorf("io.Seeker 'whence' value %d is not valid", whence)
	}

	if next < 0 {
		return 0, fmt.Errorf("cannot seek to negative offset %d", next)
	}

	if next != s.offset && s.r != nil {
		s.r.Close()
		s.r = nil
	}
	s.offset = next

	return s.offset, nil
}

// Close releases the open range reader, if any. The object handle itself
// holds no resources.
func (s *GSReadSeekCloser) Close() error {
	if s.r == nil {
		return nil
	}

	err := s.r.Close()
	s.r = nil

	return err
}

// IsGoogleStoragePath reports whether path should be read through a Google
// Storage client.
func IsGoogleStoragePath(path string) bool {
	return strings.HasPrefix(path, "gs://")
}

// OpenSeeker opens a local file, or a gs:// object if client is non-nil.
func OpenSeeker(path string, client *storage.Client) (ReadSeekCloser, error) {
	if !IsGoogleStoragePath(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return f, nil
	}

	if client == nil {
		return nil, fmt.Errorf("%s: a Google Storage client is required to read gs:// paths", path)
	}

	// Detect the bucket and the path to the actual file
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 {
		return nil, fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	handle := client.Bucket(pathParts[0]).Object(pathParts[1])

	wrappedHandle := &GSReadSeekCloser{
		ObjectHandle: handle,
		Context:      context.Background(),
	}

	// Make a hard call to get the filesize. This also surfaces missing
	// objects at open time, like os.Open does.
	attrs, err := handle.Attrs(wrappedHandle.Context)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	wrappedHandle.size = attrs.Size

	return wrappedHandle, nil
}
