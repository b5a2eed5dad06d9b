package main

import (
	"encoding/csv"
	"encoding/json"

	"codeberg.org/mutker/powerlog/internal/logger"
	"codeberg.org/mutker/powerlog/internal/sampler"
	"github.com/spf13/cobra"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Take one observation and print it",
	Args:  cobra.NoArgs,
	RunE:  takeSample,
}

func init() {
	sampleCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	rootCmd.AddCommand(sampleCmd)
}

func takeSample(cmd *cobra.Command, _ []string) error {
	smp := sampler.New(newReader(cfg), sampler.NewPSLister(),
		sampler.WithLogger(logger.Default().With("sampler")),
	)
	obs := smp.Sample(cmd.Context())

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(obs)
	}

	w := csv.NewWriter(cmd.OutOrStdout())
	if err := w.Write(sampler.Columns); err != nil {
		return err
	}
	if err := w.Write(obs.Record()); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
