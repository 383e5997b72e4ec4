// internal/harness/types.go
// Package: harness
package harness

import "time"

// Mode selects whether combinations are executed or only previewed.
type Mode int

const (
	// Live executes every command and appends one CSV row per combination.
	Live Mode = iota
	// DryRun prints the commands without executing anything.
	DryRun
	// DryRunFull also prints the header and a placeholder row per combination.
	DryRunFull
)

func (m Mode) String() string {
	switch m {
	case DryRun:
		return "test"
	case DryRunFull:
		return "testf"
	default:
		return "live"
	}
}

// Options configures one sweep.
type Options struct {
	// CSV file rows are appended to. Never touched outside Live mode.
	OutputPath string `json:"output_path"`

	// Seconds before the timeout wrapper kills a command; 0 disables it.
	Timeout int `json:"timeout"`

	// 1-based permutation number to resume from, as shown in "[k/total]".
	Start int `json:"start"`

	// Executions per combination; numerical extracts are averaged across them.
	Repetitions int `json:"repetitions"`

	Mode Mode `json:"mode"`
}

// Result is the captured outcome of one command execution.
type Result struct {
	Output   string `json:"output"`    // combined stdout and stderr
	ExitCode int    `json:"exit_code"` // 124 when the timeout wrapper fired
}

// Summary is returned once the sweep reaches DONE.
type Summary struct {
	Total      int       `json:"total"`
	Ran        int       `json:"ran"`
	NotFound   int       `json:"not_found"` // cells recorded as NOT FOUND (live mode only)
	TimedOut   int       `json:"timed_out"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
