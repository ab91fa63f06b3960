package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// Batch is one history unit's worth of modifications, identified by the
// commit that produced them.
type Batch struct {
	ID   string
	Mods []Modification
}

type RunnerOptions struct {
	Accessor Accessor
	Compiler Compiler
	Logger   Logger
	// DryRun writes a report of the would-be operations to Out instead of
	// calling the remote store.
	DryRun bool
	Out    io.Writer
	// AfterApply runs once per fully applied batch, in order. A failure
	// aborts the run before the next batch starts.
	AfterApply func(ctx context.Context, batchID string) error
}

type Runner struct {
	opts RunnerOptions
}

func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Accessor == nil {
		return nil, errors.New("reconcile: accessor is required")
	}
	if opts.Compiler == nil {
		return nil, errors.New("reconcile: compiler is required")
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	return &Runner{opts: opts}, nil
}

// Run builds and applies one Delta per batch, in order, stopping at the
// first failure. It returns how many batches completed. A failed run leaves
// the remote store partially updated; rerunning from the same starting
// point replays the failed Delta safely.
func (r *Runner) Run(ctx context.Context, batches []Batch) (int, error) {
	done := 0
	for _, batch := range batches {
		delta, err := BuildDelta(batch.Mods, r.opts.Compiler)
		if err != nil {
			return done, fmt.Errorf("batch %s: %w", batch.ID, err)
		}
		if r.opts.DryRun {
			fmt.Fprintf(r.opts.Out, "%s (%d changes)\n", batch.ID, delta.Size())
			for _, line := range delta.Describe() {
				fmt.Fprintf(r.opts.Out, "\t%s\n", line)
			}
			done++
			continue
		}
		r.opts.Logger.Printf("applying batch %s (%d changes)", batch.ID, delta.Size())
		if err := delta.Execute(ctx, r.opts.Accessor, r.opts.Logger); err != nil {
			return done, fmt.Errorf("batch %s: %w", batch.ID, err)
		}
		if r.opts.AfterApply != nil {
			if err := r.opts.AfterApply(ctx, batch.ID); err != nil {
				return done, fmt.Errorf("recording applied batch %s: %w", batch.ID, err)
			}
		}
		done++
	}
	return done, nil
}
