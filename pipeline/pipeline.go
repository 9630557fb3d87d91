// Package pipeline fans the per-chromosome matching out to a bounded pool of
// workers and funnels the results, in completion order, into one pair of
// output files.
package pipeline

import (
	"errors"
	"fmt"
	"log"
	"runtime"

	"github.com/carbocation/wbbcpanel/wbbc"
	"golang.org/x/sync/errgroup"
)

var ErrResultMismatch = errors.New("the rows of alleles and frequencies differ")

// MinimumWorkers is the floor applied to the default worker count. Tasks
// spend most of their time reading files.
const MinimumWorkers = 4

// ChromosomeMatcher produces the allele and frequency lines for one
// chromosome. *wbbc.Matcher is the production implementation.
type ChromosomeMatcher interface {
	MatchChromosome(chromosome int) (*wbbc.Result, error)
}

// Autosomes returns 1 through 22.
func Autosomes() []int {
	out := make([]int, 0, 22)
	for i := 1; i <= 22; i++ {
		out = append(out, i)
	}

	return out
}

func DefaultWorkers() int {
	if n := runtime.NumCPU(); n > MinimumWorkers {
		return n
	}

	return MinimumWorkers
}

type TaskFailure struct {
	Chromosome int
	Err        error
}

func (f TaskFailure) Error() string {
	return fmt.Sprintf("chromosome %d: %v", f.Chromosome, f.Err)
}

func (f TaskFailure) Unwrap() error {
	return f.Err
}

type Summary struct {
	// Accepted is the number of rows written to each output file.
	Accepted int
	Tasks    int
	Failures []TaskFailure
}

func (s Summary) Succeeded() int {
	return s.Tasks - len(s.Failures)
}

type taskResult struct {
	chromosome int
	result     *wbbc.Result
	err        error
}

// Run matches every chromosome with at most workers tasks in flight, and
// appends each successful task's rows to out as soon as it finishes. A task
// that fails, or whose allele and frequency counts differ, is recorded in
// the summary and its rows are discarded; the other tasks carry on. Only a
// failure to write out is returned as an error, after all tasks finish.
func Run(m ChromosomeMatcher, chromosomes []int, workers int, out *Output) (Summary, error) {
	if workers < 1 {
		workers = DefaultWorkers()
	}

	// Buffered so that no worker ever waits on the writer
	results := make(chan taskResult, len(chromosomes))

	go func() {
		g := errgroup.Group{}
		g.SetLimit(workers)

		for _, chromosome := range chromosomes {
			chromosome := chromosome
			log.Printf("\tTask %d is launching...\n", chromosome)

			g.Go(func() error {
				res, err := m.MatchChromosome(chromosome)
				results <- taskResult{chromosome: chromosome, result: res, err: err}

				// Failures travel with the result so that one bad
				// chromosome does not cancel the others.
				return nil
			})
		}

		g.Wait()
		close(results)
	}()

	summary := Summary{Tasks: len(chromosomes)}
	var writeErr error

	// This loop is the only writer of out and summary
	for tr := range results {
		if err := validate(tr); err != nil {
			summary.Failures = append(summary.Failures, TaskFailure{Chromosome: tr.chromosome, Err: err})
			log.Printf("\tTask %d failed and was not saved to file: %v\n", tr.chromosome, err)
			continue
		}

		if writeErr != nil {
			summary.Failures = append(summary.Failures, TaskFailure{Chromosome: tr.chromosome, Err: writeErr})
			continue
		}

		if err := out.Append(tr.result.Alleles, tr.result.Frequencies); err != nil {
			writeErr = err
			summary.Failures = append(summary.Failures, TaskFailure{Chromosome: tr.chromosome, Err: err})
			log.Printf("\tTask %d could not be saved: %v\n", tr.chromosome, err)
			continue
		}

		summary.Accepted += tr.result.Len()
		log.Printf("\tTask %d succeeded, %d SNPs from %s have been saved in %s and %s respectively\n",
			tr.chromosome, tr.result.Len(), tr.result.Path, out.AllelePath, out.FrequencyPath)
	}

	log.Printf("All %d tasks finished (%d failed). Totally %d SNPs have been saved in %s and %s respectively.\n",
		summary.Tasks, len(summary.Failures), summary.Accepted, out.AllelePath, out.FrequencyPath)

	return summary, writeErr
}

func validate(tr taskResult) error {
	if tr.err != nil {
		return tr.err
	}

	if tr.result == nil {
		return fmt.Errorf("no result was returned")
	}

	if a, f := len(tr.result.Alleles), len(tr.result.Frequencies); a != f {
		return fmt.Errorf("%w: the rows of alleles is %d, while the rows of frequency is %d", ErrResultMismatch, a, f)
	}

	return nil
}
