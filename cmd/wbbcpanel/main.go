// wbbcpanel builds an ancestry reference panel from the WBBC per-chromosome
// VCFs: an .alleles file and an .F file of per-population frequencies for
// every candidate marker whose frequencies differ enough between the North,
// Central, South and Lingnan Han Chinese populations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/wbbcpanel"
	"github.com/carbocation/wbbcpanel/compileinfo"
	"github.com/carbocation/wbbcpanel/markers"
	"github.com/carbocation/wbbcpanel/pipeline"
	"github.com/carbocation/wbbcpanel/wbbc"
	"github.com/kelseyhightower/envconfig"
)

// Environment provides the defaults for every flag, e.g. WBBCPANEL_TSV_DIR.
type Environment struct {
	TSV            string  `envconfig:"TSV"`
	TSVDir         string  `envconfig:"TSV_DIR"`
	ModelPath      string  `envconfig:"MODEL_PATH" default:"."`
	Name           string  `envconfig:"NAME"`
	Digits         int     `envconfig:"DIGITS" default:"6"`
	Stdev          float64 `envconfig:"STDEV" default:"0.03"`
	HighLD         string  `envconfig:"HIGH_LD"`
	Workers        int     `envconfig:"WORKERS"`
	VCFTemplate    string  `envconfig:"VCF_TEMPLATE"`
	Polarity       string  `envconfig:"POLARITY" default:"ref"`
	InfoFields     int     `envconfig:"INFO_FIELDS" default:"15"`
	ValidateHeader bool    `envconfig:"VALIDATE_HEADER"`
}

// fileList collects space-separated paths from one or more -tsv flags.
type fileList []string

func (f *fileList) String() string {
	return strings.Join(*f, " ")
}

func (f *fileList) Set(value string) error {
	*f = append(*f, strings.Fields(value)...)
	return nil
}

func main() {
	log.Println(compileinfo.Get())

	var env Environment
	if err := envconfig.Process("wbbcpanel", &env); err != nil {
		log.Fatalln(err)
	}

	if env.Workers < 1 {
		env.Workers = pipeline.DefaultWorkers()
	}
	if env.VCFTemplate == "" {
		env.VCFTemplate = wbbc.DefaultPathTemplate
	}
	if env.Name == "" {
		env.Name = "wbbc_" + time.Now().Format("2006-01-02")
	}

	var tsvFiles fileList

	var tsvDir, modelPath, name, highLD, vcfTemplate, polarity string
	var digits, workers, infoFields int
	var stdev float64
	var validateHeader bool
	flag.Var(&tsvFiles, "tsv", "Space-separated list of marker TSV files (rsid, chromosome, position). May be repeated. Optionally, may be google storage URLs (gs://)")
	flag.StringVar(&tsvDir, "tsv-dir", env.TSVDir, "Directory whose files are all used as marker TSV files, in addition to any --tsv files.")
	flag.StringVar(&modelPath, "model-path", env.ModelPath, "Directory into which the .alleles and .F files are written. Created if needed.")
	flag.StringVar(&name, "name", env.Name, "Base name of the output files.")
	flag.IntVar(&digits, "digits", env.Digits, "Number of decimal places kept in the .F file.")
	flag.Float64Var(&stdev, "stdev", env.Stdev, "Minimum standard deviation of the population allele frequencies for a marker to be kept.")
	flag.StringVar(&highLD, "high-ld", env.HighLD, "Optional. Tab-delimited chromosome, start, end of high-LD regions whose markers are excluded. Optionally, may be a google storage URL (gs://)")
	flag.IntVar(&workers, "workers", env.Workers, "Number of chromosomes processed at once.")
	flag.StringVar(&vcfTemplate, "vcf-template", env.VCFTemplate, "Path of each chromosome's WBBC VCF, with %s in place of the chromosome number. May be gzipped, and may be a google storage URL (gs://)")
	flag.StringVar(&polarity, "polarity", env.Polarity, "Which allele the frequencies describe: 'ref' (the reference allele) or 'major' (the major allele by combined AF)")
	flag.IntVar(&infoFields, "info-fields", env.InfoFields, "Expected number of INFO entries per record. Records with any other count are skipped. 0 disables the check.")
	flag.BoolVar(&validateHeader, "validate-header", env.ValidateHeader, "Check that each VCF header declares the AF and population AF INFO fields before scanning it.")
	flag.Parse()

	opts := wbbc.DefaultOptions()
	opts.Digits = digits
	opts.StdevThreshold = stdev
	opts.InfoFieldCount = infoFields
	opts.ValidateHeader = validateHeader

	var err error
	if opts.Polarity, err = wbbc.ParsePolarity(polarity); err != nil {
		flag.Usage()
		log.Fatalln(err)
	}

	if digits < 0 {
		flag.Usage()
		log.Fatalln("--digits must not be negative")
	}

	if len(tsvFiles) == 0 {
		tsvFiles.Set(env.TSV)
	}

	files, err := markerFiles(tsvFiles, tsvDir)
	if err != nil {
		flag.Usage()
		log.Fatalln(err)
	}

	for i := range files {
		files[i] = wbbcpanel.ExpandHome(files[i])
	}

	cfg := pipeline.Config{
		MarkerFiles:  files,
		RegionFile:   wbbcpanel.ExpandHome(highLD),
		ModelPath:    wbbcpanel.ExpandHome(modelPath),
		BaseName:     name,
		PathTemplate: wbbcpanel.ExpandHome(vcfTemplate),
		Workers:      workers,
		Options:      opts,
	}

	if needsStorage(cfg) {
		cfg.Client, err = storage.NewClient(context.Background())
		if err != nil {
			log.Fatalln(err)
		}
		defer cfg.Client.Close()
	}

	if err := os.MkdirAll(cfg.ModelPath, 0755); err != nil {
		log.Fatalln(pfx.Err(err))
	}

	summary, err := pipeline.Execute(cfg)
	if err != nil {
		log.Fatalln(err)
	}

	for _, f := range summary.Failures {
		log.Println("Failed:", f)
	}
}

// markerFiles combines the explicit --tsv files with every file in
// --tsv-dir.
func markerFiles(tsvFiles fileList, tsvDir string) ([]string, error) {
	files := append([]string{}, tsvFiles...)

	if tsvDir != "" {
		listed, err := markers.FilesInDir(wbbcpanel.ExpandHome(tsvDir))
		if err != nil {
			return nil, err
		}

		if len(listed) == 0 {
			log.Printf("No marker files found in %s\n", tsvDir)
		}
		files = append(files, listed...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: please provide --tsv or --tsv-dir", markers.ErrNoMarkerFiles)
	}

	return files, nil
}

func needsStorage(cfg pipeline.Config) bool {
	paths := append([]string{cfg.RegionFile, cfg.PathTemplate}, cfg.MarkerFiles...)
	for _, path := range paths {
		if wbbcpanel.IsGoogleStoragePath(path) {
			return true
		}
	}

	return false
}
