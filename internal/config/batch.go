package config

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/d33fur/caso/internal/sim"
	"github.com/d33fur/caso/internal/tableau"
)

// Batch is a set of independent runs loaded from YAML. Every run starts
// from DefaultConfig, so a run only has to name what differs.
type Batch struct {
	Name        string
	Description string
	Concurrency int
	Runs        []*Run
	Sweeps      []Sweep
}

type Run struct {
	Name   string `yaml:"name"`
	Config `yaml:",inline"`
}

// Sweep expands into one run per value of Param spread evenly over
// [Min, Max]. Base is decoded on top of DefaultConfig.
type Sweep struct {
	Param string  `yaml:"param"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Steps int     `yaml:"steps"`
	Base  *Config `yaml:"base"`
}

type batchFile struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Concurrency int         `yaml:"concurrency"`
	Runs        []yaml.Node `yaml:"runs"`
	Sweeps      []yaml.Node `yaml:"sweeps"`
}

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b, err := ParseBatch(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return b, nil
}

func ParseBatch(data []byte) (*Batch, error) {
	var f batchFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	b := &Batch{Name: f.Name, Description: f.Description, Concurrency: f.Concurrency}
	for i := range f.Runs {
		run := &Run{Config: *DefaultConfig()}
		if err := f.Runs[i].Decode(run); err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}
		if run.Name == "" {
			run.Name = fmt.Sprintf("run-%d", i+1)
		}
		b.Runs = append(b.Runs, run)
	}
	for i := range f.Sweeps {
		sw := Sweep{Base: DefaultConfig()}
		if err := f.Sweeps[i].Decode(&sw); err != nil {
			return nil, fmt.Errorf("sweep %d: %w", i+1, err)
		}
		b.Sweeps = append(b.Sweeps, sw)
	}
	return b, nil
}

// Expand returns the runs of the sweep, named "<param>=<value>".
func (s Sweep) Expand() ([]*Run, error) {
	if s.Param == "" {
		return nil, fmt.Errorf("sweep: missing param")
	}
	if s.Steps < 1 {
		return nil, fmt.Errorf("sweep %s: steps must be positive, got %d", s.Param, s.Steps)
	}
	base := s.Base
	if base == nil {
		base = DefaultConfig()
	}

	runs := make([]*Run, 0, s.Steps)
	for i := 0; i < s.Steps; i++ {
		v := s.Min
		if s.Steps > 1 {
			v += float64(i) * (s.Max - s.Min) / float64(s.Steps-1)
		}
		cfg := base.Clone()
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, 1)
		}
		cfg.Params[s.Param] = v
		runs = append(runs, &Run{Name: fmt.Sprintf("%s=%.4g", s.Param, v), Config: *cfg})
	}
	return runs, nil
}

// AllRuns returns the explicit runs followed by every expanded sweep.
func (b *Batch) AllRuns() ([]*Run, error) {
	runs := append([]*Run(nil), b.Runs...)
	for _, sw := range b.Sweeps {
		expanded, err := sw.Expand()
		if err != nil {
			return nil, err
		}
		runs = append(runs, expanded...)
	}
	return runs, nil
}

func (b *Batch) Jobs(reg *tableau.Registry) ([]sim.Job, error) {
	runs, err := b.AllRuns()
	if err != nil {
		return nil, err
	}
	jobs := make([]sim.Job, 0, len(runs))
	for _, r := range runs {
		job, err := r.Job(r.Name, reg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Name, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Execute runs the whole batch on an ensemble built around base. Results are
// in run order; any failure fails the batch.
func (b *Batch) Execute(ctx context.Context, base *sim.Simulator, reg *tableau.Registry) ([]*sim.Result, error) {
	jobs, err := b.Jobs(reg)
	if err != nil {
		return nil, err
	}
	ens := sim.NewEnsemble(base)
	ens.SetLimit(b.Concurrency)
	return ens.RunJobs(ctx, jobs)
}
