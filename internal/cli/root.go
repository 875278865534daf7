// Package cli implements the learnstyle command: one JSON document in on
// stdin, one JSON response out on stdout.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"learnstyle-workers/internal/common/logger"
	"learnstyle-workers/internal/model"
	"learnstyle-workers/internal/pipeline"

	"github.com/spf13/cobra"
)

const defaultBundlePath = "configs/model-bundle.yaml"

type options struct {
	bundlePath string
	inputPath  string
	logLevel   string
}

// NewRootCmd builds the command tree. Tests run it with their own streams.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "learnstyle",
		Short: "Classify a student profile into a learning style and recommend study habits",
		Long: `learnstyle reads one JSON document and writes one JSON response.

Examples:
  echo '{"Hours_Studied":19,"Attendance":85,...}' | learnstyle predict
  learnstyle recommend --input row.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.inputPath, "input", "i", "", "read input from file instead of stdin")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "log level written to stderr")

	predict := &cobra.Command{
		Use:   "predict",
		Short: "Run the full preprocessing, clustering and recommendation pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, opts)
		},
	}
	predict.Flags().StringVarP(&opts.bundlePath, "bundle", "b", defaultBundlePath, "model bundle (YAML or JSON)")

	recommend := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend from an already standardized row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withInput(cmd, opts, func(in io.Reader) error {
				return pipeline.RecommendJSON(in, cmd.OutOrStdout())
			})
		},
	}

	root.AddCommand(predict, recommend, newRegistryCmd(), newCacheCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runPredict(cmd *cobra.Command, opts *options) error {
	log := logger.NewZapAdapter(logger.New(opts.logLevel, "console", "stderr"))

	bundle, err := model.Load(opts.bundlePath)
	if err != nil {
		// stdout stays one JSON response; the exit status still reports the failure
		if encErr := json.NewEncoder(cmd.OutOrStdout()).Encode(pipeline.Failure(err.Error())); encErr != nil {
			return encErr
		}
		return err
	}

	p := pipeline.New(bundle, pipeline.WithLogger(log), pipeline.WithSource("cli"))
	return withInput(cmd, opts, func(in io.Reader) error {
		return p.RunJSON(in, cmd.OutOrStdout())
	})
}

func withInput(cmd *cobra.Command, opts *options, run func(io.Reader) error) error {
	if opts.inputPath == "" {
		return run(cmd.InOrStdin())
	}
	f, err := os.Open(opts.inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return run(f)
}
