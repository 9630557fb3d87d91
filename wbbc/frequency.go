package wbbc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
)

// Polarity decides which allele the frequency file describes.
type Polarity int

const (
	// PolarityReference writes "<id> <ref> <alt>" and the reference allele
	// frequency (1 - population AF) for every population.
	PolarityReference Polarity = iota

	// PolarityMajor writes "<id> <minor> <major>", where the major allele is
	// decided by the combined AF (ALT is major when AF >= 0.5), and the
	// major allele frequency for every population.
	PolarityMajor
)

func (p Polarity) String() string {
	switch p {
	case PolarityReference:
		return "ref"
	case PolarityMajor:
		return "major"
	}

	return fmt.Sprintf("Polarity(%d)", int(p))
}

func ParsePolarity(s string) (Polarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ref", "reference":
		return PolarityReference, nil
	case "major":
		return PolarityMajor, nil
	}

	return PolarityReference, fmt.Errorf("Polarity %q is not recognized. Valid values include: ref, major", s)
}

// WBBC INFO keys. The WBBC PhaseI VCFs are annotated with rsIDs from dbSNP151
// and these fields, among others: AC, AF, AN, NS, then AF and AN for each of
// the North, Central, South and Lingnan Han Chinese, then DP and VQSLOD.
const (
	KeyCombinedAF = "AF"
	WBBCInfoCount = 15
)

var WBBCPopulationKeys = []string{"North_AF", "Central_AF", "South_AF", "Lingnan_AF"}

type Options struct {
	// Decimal digits kept in the frequency file.
	Digits int

	// Markers whose population standard deviation of the population
	// frequencies is below this are dropped. Equal values are kept.
	StdevThreshold float64

	Polarity Polarity

	CombinedKey    string
	PopulationKeys []string

	// When positive, records whose INFO does not split into exactly this
	// many entries are skipped.
	InfoFieldCount int

	// When set, each VCF header must declare every key in CombinedKey and
	// PopulationKeys as an INFO field.
	ValidateHeader bool
}

func DefaultOptions() Options {
	keys := make([]string, len(WBBCPopulationKeys))
	copy(keys, WBBCPopulationKeys)

	return Options{
		Digits:         6,
		StdevThreshold: 0.03,
		Polarity:       PolarityReference,
		CombinedKey:    KeyCombinedAF,
		PopulationKeys: keys,
		InfoFieldCount: WBBCInfoCount,
	}
}

var ErrInvalidOptions = errors.New("invalid frequency options")

// IsZero reports whether o names no INFO keys at all, i.e. it was left unset.
func (o Options) IsZero() bool {
	return o.CombinedKey == "" && len(o.PopulationKeys) == 0
}

// Validate rejects options under which no marker could ever be accepted.
func (o Options) Validate() error {
	if o.CombinedKey == "" {
		return fmt.Errorf("%w: no combined AF key", ErrInvalidOptions)
	}

	if len(o.PopulationKeys) == 0 {
		return fmt.Errorf("%w: no population AF keys", ErrInvalidOptions)
	}

	for _, key := range o.PopulationKeys {
		if key == "" {
			return fmt.Errorf("%w: empty population AF key", ErrInvalidOptions)
		}
	}

	if o.Digits < 0 {
		return fmt.Errorf("%w: %d digits", ErrInvalidOptions, o.Digits)
	}

	return nil
}

// RequiredKeys lists the INFO keys a record must carry.
func (o Options) RequiredKeys() []string {
	return append([]string{o.CombinedKey}, o.PopulationKeys...)
}

// Row is one accepted marker.
type Row struct {
	MarkerID    string
	Allele1     string
	Allele2     string
	Frequencies []float64
	Stdev       float64
}

func (r Row) AlleleLine() string {
	return fmt.Sprintf("%s %s %s\n", r.MarkerID, r.Allele1, r.Allele2)
}

func (r Row) FrequencyLine(digits int) string {
	sb := strings.Builder{}
	for i, f := range r.Frequencies {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(FormatFrequency(f, digits))
	}
	sb.WriteByte('\n')

	return sb.String()
}

// Evaluate applies the INFO and variance filters to a record. The second
// return value is false when the record should be skipped: malformed INFO,
// a monomorphic combined AF (exactly 0 or 1), or too little spread between
// populations.
func (o Options) Evaluate(rec Record) (Row, bool) {
	info := ParseInfo(rec.Info)
	if o.InfoFieldCount > 0 && info.Len() != o.InfoFieldCount {
		return Row{}, false
	}

	af, err := info.Float(o.CombinedKey)
	if err != nil || af == 0 || af == 1 {
		return Row{}, false
	}

	pops := make([]float64, len(o.PopulationKeys))
	for i, key := range o.PopulationKeys {
		if pops[i], err = info.Float(key); err != nil {
			return Row{}, false
		}
	}

	sd, err := stats.StandardDeviationPopulation(stats.Float64Data(pops))
	if err != nil || sd < o.StdevThreshold {
		return Row{}, false
	}

	row := Row{
		MarkerID:    rec.ID,
		Frequencies: make([]float64, len(pops)),
		Stdev:       sd,
	}

	switch {
	case o.Polarity == PolarityMajor && af >= 0.5:
		// ALT is the major allele, and the population AFs describe it
		row.Allele1, row.Allele2 = rec.Ref, rec.Alt
		copy(row.Frequencies, pops)
	case o.Polarity == PolarityMajor:
		row.Allele1, row.Allele2 = rec.Alt, rec.Ref
		for i, f := range pops {
			row.Frequencies[i] = 1 - f
		}
	default:
		row.Allele1, row.Allele2 = rec.Ref, rec.Alt
		for i, f := range pops {
			row.Frequencies[i] = 1 - f
		}
	}

	return row, true
}

// Round rounds f to the given number of decimal places, deciding on the
// exact binary value of f and sending exact halves to the even digit, so
// Round(0.125, 2) is 0.12 while Round(0.135, 2) is 0.14.
func Round(f float64, digits int) float64 {
	if digits < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		p := math.Pow10(-digits)
		return math.RoundToEven(f/p) * p
	}

	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', digits, 64), 64)
	if err != nil {
		return f
	}

	return r
}

// FormatFrequency rounds f and prints its shortest representation. Whole
// numbers keep a decimal point ("1.0", not "1") and values below 1e-4 switch
// to exponent form ("5e-05").
func FormatFrequency(f float64, digits int) string {
	s := strconv.FormatFloat(Round(f, digits), 'g', -1, 64)
	if math.IsInf(f, 0) || math.IsNaN(f) || strings.ContainsAny(s, ".e") {
		return s
	}

	return s + ".0"
}
