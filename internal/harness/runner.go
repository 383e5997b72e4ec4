// internal/harness/runner.go
// Package: harness
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/autorun/internal/config"
	"github.com/mwiater/autorun/internal/extract"
	"github.com/mwiater/autorun/internal/sweep"
)

var (
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	summaryStyle = lipgloss.NewStyle().Faint(true)
)

// Runner drives the enumeration loop. It is the only stateful piece of a
// sweep and runs every command strictly one after another.
type Runner struct {
	Sweep   *config.Sweep
	Options Options
	Exec    Executor
	Out     Appender
	Log     io.Writer
}

// Run walks the parameter space from the configured start offset to
// exhaustion. Per-execution failures degrade to NOT FOUND cells; only
// output-file errors and cancellation abort the sweep.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if r.Sweep == nil {
		return Summary{}, errors.New("sweep is required")
	}
	opts := r.Options
	if opts.Repetitions <= 0 {
		opts.Repetitions = 1
	}
	if opts.Mode == Live {
		if opts.OutputPath == "" {
			return Summary{}, errors.New("output path is required")
		}
		if r.Exec == nil || r.Out == nil {
			return Summary{}, errors.New("live mode requires an executor and an appender")
		}
	}
	log := r.Log
	if log == nil {
		log = io.Discard
	}

	space := r.Sweep.Space
	header := sweep.Header(space, extract.Names(r.Sweep.Rules))

	sum := Summary{StartedAt: time.Now()}

	switch opts.Mode {
	case Live:
		empty, err := r.Out.Empty(opts.OutputPath)
		if err != nil {
			return sum, fmt.Errorf("inspect %s: %w", opts.OutputPath, err)
		}
		if empty {
			if err := r.Out.Append(opts.OutputPath, header); err != nil {
				return sum, fmt.Errorf("write header: %w", err)
			}
		}
	case DryRunFull:
		fmt.Fprintf(log, "HEADER:\t%s\n", header)
	}

	sum.Total = space.Count()
	a := space.Initialize()
	k, more := 1, true
	if opts.Start > 1 {
		n := space.Seek(a, opts.Start-1)
		k += n
		more = n == opts.Start-1
	}

	for more {
		if err := ctx.Err(); err != nil {
			return r.finish(sum), err
		}

		command := sweep.WithTimeout(sweep.Render(r.Sweep.Command, a), opts.Timeout)
		fmt.Fprintf(log, "[%d/%d]: %s\n", k, sum.Total, command)

		if opts.Mode == Live {
			cells, timedOut, err := r.measure(ctx, log, command, opts)
			if err != nil {
				return r.finish(sum), err
			}
			sum.TimedOut += timedOut
			for _, c := range cells {
				if c == extract.NotFound {
					sum.NotFound++
				}
			}
			if err := r.Out.Append(opts.OutputPath, sweep.Row(a, cells)); err != nil {
				return r.finish(sum), fmt.Errorf("append row %d: %w", k, err)
			}
		} else if opts.Mode == DryRunFull {
			fmt.Fprintf(log, "\t%s\n", sweep.Row(a, extract.Placeholders(r.Sweep.Rules)))
		}

		sum.Ran++
		k++
		more = space.Advance(a)
	}

	sum = r.finish(sum)
	r.report(log, sum, opts.Mode)
	return sum, nil
}

// repetitionBar redraws one static progress line per combination.
func repetitionBar(log io.Writer, reps int) func(done int) {
	if reps <= 1 {
		return func(int) {}
	}
	bar := progress.New(progress.WithSolidFill("11"), progress.WithWidth(30))
	return func(done int) {
		fmt.Fprintf(log, "\r\tComputing repetitions %s", bar.ViewAs(float64(done)/float64(reps)))
	}
}

// measure executes command opts.Repetitions times and folds the extracted
// values into one cell per rule.
func (r *Runner) measure(ctx context.Context, log io.Writer, command string, opts Options) ([]string, int, error) {
	agg := extract.NewAggregator(r.Sweep.Rules)
	draw := repetitionBar(log, opts.Repetitions)

	var (
		warnings []string
		timedOut int
	)
	for i := 0; i < opts.Repetitions; i++ {
		draw(i)

		res, err := r.Exec.Execute(ctx, command)
		if err != nil {
			if ctx.Err() != nil {
				return nil, timedOut, ctx.Err()
			}
			warnings = append(warnings, fmt.Sprintf("repetition %d: %v", i+1, err))
			agg.Miss()
			continue
		}
		if opts.Timeout > 0 && res.ExitCode == TimeoutExitCode {
			timedOut++
			warnings = append(warnings, fmt.Sprintf("repetition %d: timed out after %ds", i+1, opts.Timeout))
		}
		agg.Observe(res.Output)
	}
	if opts.Repetitions > 1 {
		draw(opts.Repetitions)
		fmt.Fprintln(log)
	}

	for _, w := range warnings {
		fmt.Fprintln(log, warnStyle.Render("\tWARNING: "+w))
	}
	return agg.Cells(), timedOut, nil
}

func (r *Runner) finish(sum Summary) Summary {
	sum.FinishedAt = time.Now()
	return sum
}

func (r *Runner) report(log io.Writer, sum Summary, mode Mode) {
	line := fmt.Sprintf("Ran %d of %d combinations in %s", sum.Ran, sum.Total, sum.FinishedAt.Sub(sum.StartedAt).Round(time.Millisecond))
	if mode == Live {
		line += fmt.Sprintf(" (%d NOT FOUND cells, %d timeouts)", sum.NotFound, sum.TimedOut)
	} else {
		line += fmt.Sprintf(" (%s mode, nothing executed)", mode)
	}
	fmt.Fprintln(log, summaryStyle.Render(line))
}
