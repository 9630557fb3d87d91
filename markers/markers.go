// Package markers builds the set of candidate marker IDs from genotype-array
// marker files (23andMe-style TSV: rsid, chromosome, position, ...).
package markers

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/wbbcpanel"
	"github.com/carbocation/wbbcpanel/ldregion"
)

var (
	ErrNoMarkerFiles = errors.New("please set one or more TSV files or a TSV directory")
	ErrNoCandidates  = errors.New("there is no available SNP in the TSV files")
)

// Map columns in the marker file to their positions
const (
	ColMarkerID int = iota
	ColChromosome
	ColPosition
)

var autosomes = func() map[string]struct{} {
	out := make(map[string]struct{}, 22)
	for i := 1; i <= 22; i++ {
		out[strconv.Itoa(i)] = struct{}{}
	}
	return out
}()

// IsAutosome is true for the labels "1" through "22" exactly.
func IsAutosome(label string) bool {
	_, exists := autosomes[label]
	return exists
}

// Set is a read-only-after-construction set of marker IDs.
type Set map[string]struct{}

func (s Set) Has(markerID string) bool {
	_, exists := s[markerID]
	return exists
}

func (s Set) Len() int {
	return len(s)
}

// Sorted returns the IDs in lexical order. Useful for logging and tests;
// matching never depends on it.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

type Collection struct {
	Set Set

	// ExcludedHighLD counts rows dropped because they fell in a high LD
	// region. A marker repeated across files is counted once per row.
	ExcludedHighLD int

	// Skipped counts rows that needed a position for the LD check but had
	// none that could be parsed.
	Skipped int
}

// Collect reads each marker file and returns the autosomal marker IDs that
// are not inside any region of the index. regions may be nil. At least one
// marker must survive.
func Collect(paths []string, regions *ldregion.Index, client *storage.Client) (*Collection, error) {
	if len(paths) == 0 {
		return nil, ErrNoMarkerFiles
	}

	c := &Collection{Set: make(Set)}

	for _, path := range paths {
		log.Printf("Collecting RSID in TSV file %s...\n", path)

		if err := c.collectFile(path, regions, client); err != nil {
			return nil, err
		}
	}

	if c.Set.Len() == 0 {
		return nil, ErrNoCandidates
	}

	log.Printf("Finished collecting %d RSID in %s\n", c.Set.Len(), strings.Join(paths, " "))
	log.Printf("Apart from %d RSID in high LD regions (%d rows without a usable position).\n", c.ExcludedHighLD, c.Skipped)

	return c, nil
}

func (c *Collection) collectFile(path string, regions *ldregion.Index, client *storage.Client) error {
	lr, err := wbbcpanel.OpenLines(path, client)
	if err != nil {
		return pfx.Err(err)
	}
	defer lr.Close()

	checkLD := regions.Len() > 0

	for lr.Scan() {
		line := lr.Text()
		if len(line) == 0 || line[0] == '#' || line[0] == '\t' || line[0] == '"' {
			continue
		}

		cols := strings.Split(line, "\t")
		if len(cols) <= ColChromosome {
			continue
		}

		markerID, chromosome := cols[ColMarkerID], cols[ColChromosome]
		if c.Set.Has(markerID) || !IsAutosome(chromosome) {
			continue
		}

		if checkLD {
			if len(cols) <= ColPosition {
				c.Skipped++
				continue
			}

			pos, err := strconv.Atoi(strings.TrimSpace(cols[ColPosition]))
			if err != nil {
				c.Skipped++
				continue
			}

			if regions.Contains(chromosome, pos) {
				c.ExcludedHighLD++
				continue
			}
		}

		c.Set[markerID] = struct{}{}
	}

	if err := lr.Err(); err != nil {
		return pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return nil
}

// FilesInDir lists the regular files directly inside dir, in lexical order.
// Subdirectories are not descended into.
func FilesInDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pfx.Err(err)
	}

	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		// Follow symlinks
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, path)
	}

	return out, nil
}
