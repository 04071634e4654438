// Command fdf runs a declarative data-refinement pipeline spec (spec.md
// §6's "Pipeline spec file") against a source and emits the final, trace,
// and error streams to a sink.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fdf",
	Short: "fdf runs a declarative tabular data-refinement pipeline",
	Long: `fdf loads a YAML pipeline spec naming a source, an ordered list of
operators, and a sink, and drives every record in the source through the
operator chain, emitting survivors, per-step drop traces, and decode
errors to three parallel output streams.`,
	RunE: runPipeline,
}

var configPath string

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the pipeline spec YAML file (required)")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 1, "batched-parallel worker count; 1 runs sequentially")
	rootCmd.Flags().IntVar(&batchSize, "batch-size", 0, "records per batch in parallel mode (default engine.DefaultBatchSize)")
	_ = rootCmd.MarkFlagRequired("config")
}

var (
	concurrency int
	batchSize   int
)
