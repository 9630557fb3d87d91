package wbbc

import "strings"

// Map columns in a sites-only VCF to their positions
const (
	ColChrom int = iota
	ColPos
	ColID
	ColRef
	ColAlt
	ColQual
	ColFilter
	ColInfo

	SitesOnlyColumns
)

// Record is the part of a VCF data line needed to emit a marker.
type Record struct {
	ID   string
	Ref  string
	Alt  string
	Info string
}

// ParseRecord accepts only bi-allelic SNPs with an ID from sites-only VCF
// lines: exactly 8 columns, ID other than ".", single-character REF and ALT.
// Anything else (including header lines) yields false.
func ParseRecord(line string) (Record, bool) {
	if len(line) == 0 || line[0] == '#' {
		return Record{}, false
	}

	cols := strings.Split(line, "\t")
	if len(cols) != SitesOnlyColumns {
		return Record{}, false
	}

	if cols[ColID] == "." || len(cols[ColRef]) != 1 || len(cols[ColAlt]) != 1 {
		return Record{}, false
	}

	return Record{
		ID:   cols[ColID],
		Ref:  cols[ColRef],
		Alt:  cols[ColAlt],
		Info: cols[ColInfo],
	}, true
}
