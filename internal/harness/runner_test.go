package harness

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/autorun/internal/config"
	"github.com/mwiater/autorun/internal/extract"
)

// fakeExecutor answers each command from a function and records every call.
type fakeExecutor struct {
	calls   []string
	respond func(command string, call int) (Result, error)
}

func (f *fakeExecutor) Execute(_ context.Context, command string) (Result, error) {
	f.calls = append(f.calls, command)
	if f.respond == nil {
		return Result{}, nil
	}
	return f.respond(command, len(f.calls))
}

func buildSweep(t *testing.T, rules ...config.ExtractConfig) *config.Sweep {
	t.Helper()
	max, step := 4.0, 2.0
	min := 0.0
	cfg := config.Config{
		Command: "./bench",
		Parameters: []config.ParameterConfig{
			{Name: "x", Type: "list", List: []any{1.0, 2.0}},
			{Name: "y", Type: "scaling", Min: &min, Max: &max, Step: &step, StepType: "add"},
		},
		Extract: rules,
	}
	if len(rules) == 0 {
		cfg.Extract = []config.ExtractConfig{{Name: "latency", Regex: `latency=(\d+)`, Type: "numerical"}}
	}
	sw, err := cfg.Build()
	require.NoError(t, err)
	return sw
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func TestRunner_LiveWritesHeaderAndRows(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.csv")
	exec := &fakeExecutor{respond: func(command string, _ int) (Result, error) {
		// echo the last argument back as the measurement
		fields := strings.Fields(command)
		return Result{Output: "latency=" + fields[len(fields)-1] + "\n"}, nil
	}}
	var log bytes.Buffer

	r := &Runner{
		Sweep:   buildSweep(t),
		Options: Options{OutputPath: out},
		Exec:    exec,
		Out:     FileAppender{},
		Log:     &log,
	}
	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	want := []string{
		"x, y, latency",
		"1, 0, 0",
		"1, 2, 2",
		"1, 4, 4",
		"2, 0, 0",
		"2, 2, 2",
		"2, 4, 4",
	}
	if diff := cmp.Diff(want, readLines(t, out)); diff != "" {
		t.Fatalf("csv mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, sum.Total)
	assert.Equal(t, 6, sum.Ran)
	assert.Zero(t, sum.NotFound)
	assert.Len(t, exec.calls, 6)
	assert.Contains(t, log.String(), "[1/6]: ./bench 1 0\n")
	assert.Contains(t, log.String(), "[6/6]: ./bench 2 4\n")
}

func TestRunner_RepetitionsAverageNumericAndKeepLastOther(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.csv")
	values := []string{"10", "20", "30"}
	exec := &fakeExecutor{respond: func(_ string, call int) (Result, error) {
		v := values[(call-1)%3]
		return Result{Output: "latency=" + v + " tag=t" + v}, nil
	}}
	var log bytes.Buffer

	r := &Runner{
		Sweep: buildSweep(t,
			config.ExtractConfig{Name: "latency", Regex: `latency=(\d+)`, Type: "numerical"},
			config.ExtractConfig{Name: "tag", Regex: `tag=(\w+)`, Type: "string"},
		),
		Options: Options{OutputPath: out, Repetitions: 3},
		Exec:    exec,
		Out:     FileAppender{},
		Log:     &log,
	}
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	lines := readLines(t, out)
	require.Len(t, lines, 7)
	assert.Equal(t, "x, y, latency, tag", lines[0])
	assert.Equal(t, "1, 0, 20, t30", lines[1])
	assert.Len(t, exec.calls, 18)
	assert.Contains(t, log.String(), "\r\tComputing repetitions ")
	assert.Contains(t, log.String(), " 33%")
	assert.Contains(t, log.String(), "100%\n")
}

func TestRepetitionBar(t *testing.T) {
	var log bytes.Buffer
	repetitionBar(&log, 1)(1)
	assert.Empty(t, log.String(), "single repetitions draw nothing")

	draw := repetitionBar(&log, 4)
	draw(0)
	assert.True(t, strings.HasPrefix(log.String(), "\r\tComputing repetitions "))
	assert.True(t, strings.HasSuffix(log.String(), "  0%"))
	log.Reset()
	draw(2)
	assert.True(t, strings.HasSuffix(log.String(), " 50%"))
}

func TestRunner_MissingRepetitionInvalidatesNumericCell(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.csv")
	exec := &fakeExecutor{respond: func(_ string, call int) (Result, error) {
		if call == 2 {
			return Result{Output: "crashed"}, nil
		}
		return Result{Output: "latency=10"}, nil
	}}

	r := &Runner{
		Sweep:   buildSweep(t),
		Options: Options{OutputPath: out, Repetitions: 3},
		Exec:    exec,
		Out:     FileAppender{},
	}
	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	lines := readLines(t, out)
	assert.Equal(t, "1, 0, "+extract.NotFound, lines[1])
	assert.Equal(t, "1, 2, 10", lines[2])
	assert.Equal(t, 1, sum.NotFound)
}

func TestRunner_ExecutorErrorIsNotFatal(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.csv")
	exec := &fakeExecutor{respond: func(_ string, call int) (Result, error) {
		if call == 1 {
			return Result{}, errors.New("exec: no such file")
		}
		return Result{Output: "latency=5"}, nil
	}}
	var log bytes.Buffer

	r := &Runner{Sweep: buildSweep(t), Options: Options{OutputPath: out}, Exec: exec, Out: FileAppender{}, Log: &log}
	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	lines := readLines(t, out)
	require.Len(t, lines, 7)
	assert.Equal(t, "1, 0, "+extract.NotFound, lines[1])
	assert.Equal(t, "1, 2, 5", lines[2])
	assert.Equal(t, 6, sum.Ran)
	assert.Contains(t, log.String(), "no such file")
}

func TestRunner_TimeoutWrapsCommandAndStillScansOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.csv")
	exec := &fakeExecutor{respond: func(string, int) (Result, error) {
		return Result{Output: "latency=7\n", ExitCode: TimeoutExitCode}, nil
	}}

	r := &Runner{Sweep: buildSweep(t), Options: Options{OutputPath: out, Timeout: 5}, Exec: exec, Out: FileAppender{}}
	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "timeout 5 ./bench 1 0", exec.calls[0])
	assert.Equal(t, 6, sum.TimedOut)
	assert.Equal(t, "1, 0, 7", readLines(t, out)[1])
}

func TestRunner_StartOffset(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.csv")
	exec := &fakeExecutor{}
	var log bytes.Buffer

	r := &Runner{Sweep: buildSweep(t), Options: Options{OutputPath: out, Start: 3}, Exec: exec, Out: FileAppender{}, Log: &log}
	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	want := []string{"./bench 1 4", "./bench 2 0", "./bench 2 2", "./bench 2 4"}
	if diff := cmp.Diff(want, exec.calls); diff != "" {
		t.Fatalf("commands mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, sum.Ran)
	assert.True(t, strings.HasPrefix(log.String(), "[3/6]: ./bench 1 4\n"))
}

func TestRunner_StartPastEndRunsNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.csv")
	exec := &fakeExecutor{}

	r := &Runner{Sweep: buildSweep(t), Options: Options{OutputPath: out, Start: 7}, Exec: exec, Out: FileAppender{}}
	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Ran)
	assert.Empty(t, exec.calls)
	assert.Equal(t, []string{"x, y, latency"}, readLines(t, out))
}

func TestRunner_ExistingFileKeepsHeader(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(out, []byte("x, y, latency\n1, 0, 3\n"), 0o644))

	r := &Runner{
		Sweep:   buildSweep(t),
		Options: Options{OutputPath: out, Start: 2},
		Exec:    &fakeExecutor{respond: func(string, int) (Result, error) { return Result{Output: "latency=3"}, nil }},
		Out:     FileAppender{},
	}
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	lines := readLines(t, out)
	require.Len(t, lines, 7)
	assert.Equal(t, "x, y, latency", lines[0])
	assert.Equal(t, "1, 2, 3", lines[2])
}

func TestRunner_DryRunNeverTouchesOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.csv")
	exec := &fakeExecutor{}
	var log bytes.Buffer

	r := &Runner{Sweep: buildSweep(t), Options: Options{OutputPath: out, Mode: DryRun, Timeout: 3}, Exec: exec, Out: FileAppender{}, Log: &log}
	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	_, statErr := os.Stat(out)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "dry run must not create the output file")
	assert.Empty(t, exec.calls)
	assert.Equal(t, 6, sum.Ran)
	assert.Contains(t, log.String(), "[2/6]: timeout 3 ./bench 1 2\n")
	assert.NotContains(t, log.String(), "HEADER:")
}

func TestRunner_DryRunFullPrintsPlaceholders(t *testing.T) {
	var log bytes.Buffer
	r := &Runner{Sweep: buildSweep(t), Options: Options{Mode: DryRunFull}, Log: &log}
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	got := log.String()
	assert.True(t, strings.HasPrefix(got, "HEADER:\tx, y, latency\n"))
	assert.Contains(t, got, "[1/6]: ./bench 1 0\n\t1, 0, <latency>\n")
	assert.Contains(t, got, "\t2, 4, <latency>\n")
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Sweep: buildSweep(t), Options: Options{OutputPath: filepath.Join(t.TempDir(), "r.csv")}, Exec: &fakeExecutor{}, Out: FileAppender{}}
	_, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_LiveRequiresOutputPath(t *testing.T) {
	r := &Runner{Sweep: buildSweep(t), Exec: &fakeExecutor{}, Out: FileAppender{}}
	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "live", Live.String())
	assert.Equal(t, "test", DryRun.String())
	assert.Equal(t, "testf", DryRunFull.String())
}
