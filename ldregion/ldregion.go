// Package ldregion loads regions of high linkage disequilibrium and answers
// whether a chromosomal position falls inside any of them. See
// https://genome.sph.umich.edu/wiki/Regions_of_high_linkage_disequilibrium_(LD)
package ldregion

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/biogo/store/interval"
	"github.com/carbocation/pfx"
	"github.com/carbocation/wbbcpanel"
)

// ErrNotFound is returned when a region file was requested but could not be
// opened.
var ErrNotFound = errors.New("high linkage disequilibrium file is not available")

// Region is a closed interval: both Start and End are inside it.
type Region struct {
	Chromosome string
	Start      int
	End        int
}

func (r Region) Contains(chromosome string, pos int) bool {
	return NormalizeChromosome(chromosome) == NormalizeChromosome(r.Chromosome) &&
		pos >= r.Start && pos <= r.End
}

func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chromosome, r.Start, r.End)
}

// NormalizeChromosome strips a leading "chr", so that "chr6" and "6" refer to
// the same chromosome.
func NormalizeChromosome(chromosome string) string {
	return strings.TrimPrefix(strings.TrimSpace(chromosome), "chr")
}

// Index holds the loaded regions, with one interval tree per chromosome. A
// nil *Index is valid and contains nothing, which is how "no region file was
// configured" is represented.
type Index struct {
	regions []Region
	trees   map[string]*interval.IntTree
}

func New(regions []Region) (*Index, error) {
	idx := &Index{
		regions: make([]Region, 0, len(regions)),
		trees:   make(map[string]*interval.IntTree),
	}

	for _, r := range regions {
		if err := idx.add(r); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

func (x *Index) add(r Region) error {
	if r.Start > r.End {
		return fmt.Errorf("region %s: start is after end", r)
	}

	chromosome := NormalizeChromosome(r.Chromosome)
	tree, exists := x.trees[chromosome]
	if !exists {
		tree = &interval.IntTree{}
		x.trees[chromosome] = tree
	}

	iv := intInterval{start: r.Start, end: r.End, uid: uintptr(len(x.regions))}
	if err := tree.Insert(iv, false); err != nil {
		return pfx.Err(fmt.Errorf("region %s: %w", r, err))
	}

	x.regions = append(x.regions, r)

	return nil
}

// Contains reports whether pos on chromosome lies within any region.
func (x *Index) Contains(chromosome string, pos int) bool {
	if x == nil {
		return false
	}

	tree, exists := x.trees[NormalizeChromosome(chromosome)]
	if !exists {
		return false
	}

	return len(tree.Get(point(pos))) > 0
}

// Regions returns the regions in the order they were loaded.
func (x *Index) Regions() []Region {
	if x == nil {
		return nil
	}

	out := make([]Region, len(x.regions))
	copy(out, x.regions)

	return out
}

func (x *Index) Len() int {
	if x == nil {
		return 0
	}

	return len(x.regions)
}

// Load reads a tab-delimited file of chromosome, start and end. Lines starting
// with # are comments. Rows that do not have exactly 3 columns, or whose
// coordinates are not integers, are skipped.
func Load(path string, client *storage.Client) (*Index, error) {
	lr, err := wbbcpanel.OpenLines(path, client)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s': %v", ErrNotFound, path, err)
	}
	defer lr.Close()

	idx, err := New(nil)
	if err != nil {
		return nil, err
	}

	skipped := 0
	for lr.Scan() {
		line := lr.Text()
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}

		r, err := parseRegion(line)
		if err == nil {
			err = idx.add(r)
		}
		if err != nil {
			log.Printf("Skipping %s line %d: %v\n", lr.Path(), lr.Line(), err)
			skipped++
			continue
		}
	}
	if err := lr.Err(); err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	log.Printf("Loaded %d high LD regions from %s (%d rows skipped)\n", idx.Len(), path, skipped)

	return idx, nil
}

func parseRegion(line string) (Region, error) {
	cols := strings.Split(line, "\t")
	if len(cols) != 3 {
		return Region{}, fmt.Errorf("expected 3 columns, found %d", len(cols))
	}

	start, err := strconv.Atoi(strings.TrimSpace(cols[1]))
	if err != nil {
		return Region{}, err
	}

	end, err := strconv.Atoi(strings.TrimSpace(cols[2]))
	if err != nil {
		return Region{}, err
	}

	return Region{
		Chromosome: NormalizeChromosome(cols[0]),
		Start:      start,
		End:        end,
	}, nil
}

// intInterval adapts a region to biogo's IntInterface with inclusive bounds.
type intInterval struct {
	start, end int
	uid        uintptr
}

func (i intInterval) Overlap(b interval.IntRange) bool {
	return i.end >= b.Start && i.start <= b.End
}

func (i intInterval) ID() uintptr {
	return i.uid
}

func (i intInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.start, End: i.end}
}

// point queries the tree for intervals containing a single position.
type point int

func (p point) Overlap(b interval.IntRange) bool {
	return b.Start <= int(p) && int(p) <= b.End
}
