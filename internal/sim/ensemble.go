package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/d33fur/caso/internal/tableau"
)

// Job is one independent run of a batch.
type Job struct {
	Name    string
	Method  *tableau.Tableau
	Params  Params
	Options Options
}

// Ensemble runs many independent problems concurrently. Every run gets its
// own Simulator; observers of the base simulator are shared by all runs and
// must therefore be safe for concurrent use. Metrics are not shared.
type Ensemble struct {
	base  *Simulator
	limit int
}

func NewEnsemble(base *Simulator) *Ensemble {
	return &Ensemble{base: base}
}

// SetLimit bounds the number of runs in flight. n <= 0 means no limit.
func (e *Ensemble) SetLimit(n int) { e.limit = n }

// Run integrates every element of params with the base simulator's method
// and options. Results are index-aligned with params. The first failure
// cancels the remaining runs and is returned.
func (e *Ensemble) Run(ctx context.Context, params []Params) ([]*Result, error) {
	jobs := make([]Job, len(params))
	for i, p := range params {
		jobs[i] = Job{
			Name:    fmt.Sprintf("run-%d", i),
			Method:  e.base.tab,
			Params:  p,
			Options: e.base.opts,
		}
	}
	return e.RunJobs(ctx, jobs)
}

// RunJobs is Run for jobs that may differ in method and options.
func (e *Ensemble) RunJobs(ctx context.Context, jobs []Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i, job := range jobs {
		g.Go(func() error {
			s := New(job.Method, job.Options)
			s.SetLogger(e.base.log.WithField("job", job.Name))
			for _, o := range e.base.observers {
				s.AddObserver(o)
			}

			res, err := s.Run(ctx, job.Params)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.base.log.WithError(err).Debug("ensemble aborted")
		return nil, err
	}
	return results, nil
}
