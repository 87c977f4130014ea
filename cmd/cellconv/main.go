package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	cc "github.com/battlab/cellconv/pkg/cellconv"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := NewRootCommand(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand builds the cellconv command tree: one subcommand per
// source format.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cellconv",
		Short: "Convert campaign/experiment trees of measurement files to Parquet",
		Long: `cellconv converts directories of time-series measurement files into
columnar Parquet files, one per experiment.

Inputs are laid out as START_DIRECTORY/<campaign>/<experiment>/<datafile>;
each experiment's files are concatenated in name order and written to
START_DIRECTORY/<campaign>/<experiment>.parquet next to its directory.`,
		Version: version,
	}
	rootCmd.AddCommand(
		newFormatCommand(cc.FormatCSV, stdout, stderr),
		newFormatCommand(cc.FormatNPY, stdout, stderr),
		newFormatCommand(cc.FormatMAT, stdout, stderr),
	)
	return rootCmd
}
