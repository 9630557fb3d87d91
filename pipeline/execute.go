package pipeline

import (
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/wbbcpanel/ldregion"
	"github.com/carbocation/wbbcpanel/markers"
	"github.com/carbocation/wbbcpanel/wbbc"
)

// Config is everything one run needs. The zero values of PathTemplate,
// Chromosomes, Workers and Options mean the WBBC path, all 22 autosomes,
// DefaultWorkers and wbbc.DefaultOptions respectively.
type Config struct {
	MarkerFiles []string

	// Optional. Markers inside any region are excluded.
	RegionFile string

	ModelPath string
	BaseName  string

	PathTemplate string
	Chromosomes  []int
	Workers      int

	Options wbbc.Options

	// Needed only when some path is a gs:// URL
	Client *storage.Client
}

// Execute loads the exclusion regions, collects the candidate markers,
// creates the output files, and runs the chromosome tasks. Configuration and
// input errors are returned before any output file is created.
func Execute(cfg Config) (summary Summary, err error) {
	started := time.Now()

	if cfg.BaseName == "" {
		return summary, fmt.Errorf("no output base name was given")
	}

	if len(cfg.MarkerFiles) == 0 {
		return summary, markers.ErrNoMarkerFiles
	}

	if cfg.Options.IsZero() {
		cfg.Options = wbbc.DefaultOptions()
	}
	if err := cfg.Options.Validate(); err != nil {
		return summary, err
	}

	var regions *ldregion.Index
	if cfg.RegionFile != "" {
		regions, err = ldregion.Load(cfg.RegionFile, cfg.Client)
		if err != nil {
			return summary, err
		}
	}

	collection, err := markers.Collect(cfg.MarkerFiles, regions, cfg.Client)
	if err != nil {
		return summary, err
	}

	out, err := CreateOutput(cfg.ModelPath, cfg.BaseName)
	if err != nil {
		return summary, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	chromosomes := cfg.Chromosomes
	if len(chromosomes) == 0 {
		chromosomes = Autosomes()
	}

	matcher := &wbbc.Matcher{
		Candidates:   collection.Set,
		PathTemplate: cfg.PathTemplate,
		Options:      cfg.Options,
		Client:       cfg.Client,
	}

	log.Printf("Matching %d candidate markers against %d chromosomes (%s polarity)\n",
		collection.Set.Len(), len(chromosomes), cfg.Options.Polarity)

	summary, err = Run(matcher, chromosomes, cfg.Workers, out)
	if err != nil {
		return summary, pfx.Err(err)
	}

	log.Printf("Finished in %v\n", time.Since(started))

	return summary, nil
}
