package wbbcpanel

import (
	"bufio"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// MaxLineSize bounds a single line of any tabular input. VCF INFO columns
// can be long, so this is well above bufio's 64KiB default.
var MaxLineSize = 16 * 1024 * 1024

// LineReader walks a (possibly compressed, possibly remote) text file one
// line at a time.
type LineReader struct {
	path    string
	rc      io.ReadCloser
	scanner *bufio.Scanner
	line    int
}

func OpenLines(path string, client *storage.Client) (*LineReader, error) {
	src, err := OpenSeeker(path, client)
	if err != nil {
		return nil, err
	}

	rc, err := MaybeDecompress(src)
	if err != nil {
		src.Close()
		return nil, err
	}

	return NewLineReader(path, rc), nil
}

// NewLineReader wraps an already-open stream. path is only used for
// reporting.
func NewLineReader(path string, rc io.ReadCloser) *LineReader {
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	return &LineReader{
		path:    path,
		rc:      rc,
		scanner: scanner,
	}
}

func (l *LineReader) Scan() bool {
	if !l.scanner.Scan() {
		return false
	}
	l.line++

	return true
}

// Text returns the current line without its line terminator. Windows line
// endings are tolerated.
func (l *LineReader) Text() string {
	return strings.TrimSuffix(l.scanner.Text(), "\r")
}

// Line is the 1-based number of the current line.
func (l *LineReader) Line() int {
	return l.line
}

func (l *LineReader) Path() string {
	return l.path
}

func (l *LineReader) Err() error {
	return l.scanner.Err()
}

func (l *LineReader) Close() error {
	return l.rc.Close()
}
