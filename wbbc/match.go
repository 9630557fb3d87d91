// Package wbbc extracts reference-panel markers from the Westlake BioBank for
// Chinese (WBBC) per-chromosome VCFs. See https://wbbc.westlake.edu.cn/
package wbbc

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/wbbcpanel"
	"github.com/carbocation/wbbcpanel/markers"
)

// DefaultPathTemplate locates one VCF per chromosome, with %s in place of
// the chromosome number.
const DefaultPathTemplate = "wbbc_vcf/WBBC.chr%s.GRCh37_PhaseI.vcf"

// Result holds the output lines of one VCF. Alleles[i] and Frequencies[i]
// always describe the same marker.
type Result struct {
	Path        string
	Alleles     []string
	Frequencies []string

	// Scanned counts usable bi-allelic SNP records in the file; Matched
	// counts the distinct candidate IDs among them.
	Scanned int
	Matched int
}

func (r *Result) Len() int {
	return len(r.Alleles)
}

// Match scans one VCF and emits an allele line and a frequency line for each
// candidate marker that passes the filters. Output follows the order in
// which markers first appear in the VCF; when an ID repeats, its last record
// is the one evaluated. Failing to open or read the file is an error;
// individual malformed records are skipped.
func Match(candidates markers.Set, vcfPath string, opts Options, client *storage.Client) (*Result, error) {
	lr, err := wbbcpanel.OpenLines(vcfPath, client)
	if err != nil {
		return nil, err
	}
	defer lr.Close()

	log.Println("Processing WBBC vcf file:", vcfPath)

	out := &Result{Path: vcfPath}

	records := make([]Record, 0)
	seen := make(map[string]int)

	for lr.Scan() {
		rec, ok := ParseRecord(lr.Text())
		if !ok {
			continue
		}
		out.Scanned++

		if !candidates.Has(rec.ID) {
			continue
		}

		if i, exists := seen[rec.ID]; exists {
			records[i] = rec
			continue
		}
		seen[rec.ID] = len(records)
		records = append(records, rec)
	}
	if err := lr.Err(); err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", vcfPath, err))
	}
	out.Matched = len(records)

	for _, rec := range records {
		row, ok := opts.Evaluate(rec)
		if !ok {
			continue
		}

		out.Alleles = append(out.Alleles, row.AlleleLine())
		out.Frequencies = append(out.Frequencies, row.FrequencyLine(opts.Digits))
	}

	return out, nil
}

// Matcher binds the candidate set and options so that a whole chromosome
// can be processed from just its number.
type Matcher struct {
	Candidates   markers.Set
	PathTemplate string
	Options      Options
	Client       *storage.Client
}

// Path returns the VCF for a chromosome. Templates without a % verb are used
// as-is.
func (m *Matcher) Path(chromosome int) string {
	template := m.PathTemplate
	if template == "" {
		template = DefaultPathTemplate
	}

	if !strings.Contains(template, "%") {
		return template
	}

	return fmt.Sprintf(template, strconv.Itoa(chromosome))
}

func (m *Matcher) MatchChromosome(chromosome int) (*Result, error) {
	if err := m.Options.Validate(); err != nil {
		return nil, err
	}

	path := m.Path(chromosome)

	if m.Options.ValidateHeader {
		if err := ValidateHeader(path, m.Options.RequiredKeys(), m.Client); err != nil {
			return nil, err
		}
	}

	return Match(m.Candidates, path, m.Options, m.Client)
}
