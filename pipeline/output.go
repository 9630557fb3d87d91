package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/carbocation/pfx"
)

const (
	AllelesExtension     = ".alleles"
	FrequenciesExtension = ".F"
)

var BufferSize = 4096 * 8

// Output owns the .alleles and .F files of one run. Each Append writes a
// whole batch to both files and flushes them, so the two files always hold
// the same number of complete rows between appends.
type Output struct {
	AllelePath    string
	FrequencyPath string

	mu         sync.Mutex
	alleleFile *os.File
	freqFile   *os.File
	alleles    *bufio.Writer
	freqs      *bufio.Writer
	rows       int
	closed     bool
}

// CreateOutput creates (or truncates) <modelPath>/<baseName>.alleles and
// <modelPath>/<baseName>.F. modelPath must already exist.
func CreateOutput(modelPath, baseName string) (*Output, error) {
	o := &Output{
		AllelePath:    filepath.Join(modelPath, baseName+AllelesExtension),
		FrequencyPath: filepath.Join(modelPath, baseName+FrequenciesExtension),
	}

	var err error
	o.alleleFile, err = os.OpenFile(o.AllelePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, pfx.Err(err)
	}

	o.freqFile, err = os.OpenFile(o.FrequencyPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		o.alleleFile.Close()
		return nil, pfx.Err(err)
	}

	o.alleles = bufio.NewWriterSize(o.alleleFile, BufferSize)
	o.freqs = bufio.NewWriterSize(o.freqFile, BufferSize)

	return o, nil
}

// Append writes one batch of rows to both files and flushes them. Batches
// whose lengths differ are refused whole.
func (o *Output) Append(alleles, frequencies []string) error {
	if len(alleles) != len(frequencies) {
		return fmt.Errorf("%w: %d alleles, %d frequencies", ErrResultMismatch, len(alleles), len(frequencies))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("append to closed output %s", o.AllelePath)
	}

	for _, line := range alleles {
		if _, err := o.alleles.WriteString(line); err != nil {
			return pfx.Err(err)
		}
	}
	for _, line := range frequencies {
		if _, err := o.freqs.WriteString(line); err != nil {
			return pfx.Err(err)
		}
	}

	if err := o.alleles.Flush(); err != nil {
		return pfx.Err(err)
	}
	if err := o.freqs.Flush(); err != nil {
		return pfx.Err(err)
	}

	o.rows += len(alleles)

	return nil
}

// Rows is the number of rows written to each file so far.
func (o *Output) Rows() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.rows
}

// Close flushes and closes both files. It is safe to call more than once.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = pfx.Err(err)
		}
	}

	keep(o.alleles.Flush())
	keep(o.freqs.Flush())
	keep(o.alleleFile.Close())
	keep(o.freqFile.Close())

	return firstErr
}
