package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/songquanpeng/hamming-ci/common/config"
	"github.com/songquanpeng/hamming-ci/common/logger"
	"github.com/songquanpeng/hamming-ci/common/random"
	"github.com/songquanpeng/hamming-ci/controller"
	"github.com/songquanpeng/hamming-ci/relay"
)

// app holds the per invocation state shared by the commands.
type app struct {
	configPath string
	debug      bool

	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
}

func newApp(stdin io.Reader, stdout io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout}
}

func (a *app) deps() *controller.Deps {
	return &controller.Deps{
		Config: a.cfg,
		API:    relay.NewClient(a.cfg),
		Out:    a.stdout,
		Logger: logger.Logger,
	}
}

// setup loads the configuration and configures the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Debug = true
	}
	if err = logger.Setup(cmd.Context(), cfg, random.NewInvocationID()); err != nil {
		return errors.Wrap(err, "setup logger")
	}
	a.cfg = cfg
	return nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "hamming-ci",
		Short: "Run Hamming voice agent tests as a CI quality gate",
		Long: "hamming-ci launches a Hamming test run for an inbound voice agent, waits for it to finish " +
			"and fails the build when the pass rates fall below the configured thresholds.\n\n" +
			"Stages can be chained through pipes:\n\n" +
			"  hamming-ci wait \"$(hamming-ci run)\" | hamming-ci check",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file, environment variables override it")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newRunCmd(a),
		newWaitCmd(a),
		newCheckCmd(a),
		newPipelineCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Create a test run and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runID, err := controller.Launch(cmd.Context(), a.deps())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, runID)
			return err
		},
	}
}

func newWaitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "wait <run-id> [timeout-seconds]",
		Short: "Wait for a test run to finish and print its results as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var timeout time.Duration
			if len(args) == 2 {
				timeout = parseTimeout(args[1], a.cfg.Timeout())
			}

			_, err := controller.Wait(cmd.Context(), a.deps(), strings.TrimSpace(args[0]), timeout)
			return err
		},
	}
}

// parseTimeout reads the optional timeout argument of wait. An invalid value is
// logged and replaced by fallback.
func parseTimeout(arg string, fallback time.Duration) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || secs <= 0 {
		logger.Logger.Warn("invalid timeout argument, using the configured timeout",
			zap.String("arg", arg),
			zap.Duration("timeout", fallback))
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func newCheckCmd(a *app) *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate test run results from stdin against the quality gates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runID != "" {
				_, err := controller.CheckRun(cmd.Context(), a.deps(), runID)
				return err
			}

			raw, err := readPiped(a.stdin)
			if err != nil {
				return err
			}
			_, err = controller.Check(cmd.Context(), a.deps(), raw)
			return err
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "fetch the results of this run from the API instead of stdin")
	return cmd
}

// readPiped reads the whole input and refuses an interactive terminal.
func readPiped(r io.Reader) ([]byte, error) {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil, errors.New("no results on stdin, pipe the output of `hamming-ci wait` or pass --run-id")
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read stdin")
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, errors.New("stdin is empty, expected a results payload")
	}
	return raw, nil
}

func newPipelineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline",
		Short: "Run, wait and check in one step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := controller.Pipeline(cmd.Context(), a.deps())
			if res != nil {
				logger.Logger.Debug("pipeline finished",
					zap.String("run_id", res.RunID),
					zap.Bool("passed", res.Passed))
			}
			return err
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			out, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(out)
			return err
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// no config needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(a.stdout, config.Version)
			return err
		},
	}
}
