// cmd/autorun/root.go
package autorun

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/autorun/internal/config"
	"github.com/mwiater/autorun/internal/harness"
)

// Flag targets. Values are read back through viper once bound.
var (
	timeout     int
	start       int
	configFile  string
	repetitions int
	test        bool
	testFull    bool
	verbose     bool
)

// Collaborators swapped out by tests.
var (
	newExecutor = func() harness.Executor { return harness.ShellExecutor{} }
	newAppender = func() harness.Appender { return harness.FileAppender{} }
)

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

// rootCmd runs a parameter sweep: every combination of the configured
// parameters is appended to the command template, executed, and scraped
// into one CSV row.
var rootCmd = &cobra.Command{
	Use:   "autorun <out_csv>",
	Short: "Run a command over every combination of parameters and collect results in a CSV file",
	Long: `autorun enumerates every combination of the parameters declared in the
configuration file, appends their values to the command template, runs the
resulting command, extracts values from its output with regular expressions,
and appends one CSV row per combination to <out_csv>.

If <out_csv> already exists, new rows are appended to it.`,
	Example: `  autorun results.csv
  autorun results.csv -j sweep.json -r 5 -t 60
  autorun results.csv -s 120        # resume at permutation 120
  autorun results.csv --testf       # preview commands and CSV rows`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runSweep,
}

// Execute runs the root command. Errors are printed in red and the process
// exits with a non-zero status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.IntVarP(&timeout, "timeout", "t", 0, "kill each command after this many seconds (prefixes 'timeout <sec>')")
	flags.IntVarP(&start, "start", "s", 0, "start at permutation <offset> instead of the first one")
	flags.StringVarP(&configFile, "json", "j", config.DefaultFile, "alternate configuration file")
	flags.IntVarP(&repetitions, "reps", "r", 1, "repeat each permutation, averaging numerical extracts")
	flags.BoolVar(&test, "test", false, "print every command without executing it")
	flags.BoolVar(&testFull, "testf", false, "like --test, also print the CSV header and sample rows")
	flags.BoolVarP(&verbose, "verbose", "v", false, "dump the loaded configuration before running")

	for _, name := range []string{"timeout", "start", "json", "reps", "test", "testf", "verbose"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return cmd.Usage()
	}

	cfgPath := viper.GetString("json")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if viper.GetBool("verbose") {
		pp.Fprintln(out, cfg)
	}
	sw, err := cfg.Build()
	if err != nil {
		return err
	}
	if viper.GetBool("verbose") {
		fmt.Fprintf(out, "First combination of %d:\n", sw.Space.Count())
		pp.Fprintln(out, sw.Space.Initialize().Map())
	}

	opts := harness.Options{
		OutputPath:  args[0],
		Timeout:     viper.GetInt("timeout"),
		Start:       viper.GetInt("start"),
		Repetitions: viper.GetInt("reps"),
		Mode:        modeFromFlags(),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return runHarness(ctx, out, sw, opts)
}

func runHarness(ctx context.Context, out io.Writer, sw *config.Sweep, opts harness.Options) error {
	r := &harness.Runner{
		Sweep:   sw,
		Options: opts,
		Log:     out,
	}
	if opts.Mode == harness.Live {
		r.Exec = newExecutor()
		r.Out = newAppender()
	}
	_, err := r.Run(ctx)
	return err
}

func modeFromFlags() harness.Mode {
	switch {
	case viper.GetBool("testf"):
		return harness.DryRunFull
	case viper.GetBool("test"):
		return harness.DryRun
	default:
		return harness.Live
	}
}
