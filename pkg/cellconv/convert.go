package cellconv

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Loader builds one concatenated table from an ordered list of data
// file paths. Implementations are format-specific (csv, npy, mat) and
// selected once per run. Warnings are non-fatal notes about the load.
type Loader interface {
	Load(paths []string) (t *Table, warnings []string, err error)
}

// Writer serializes a finished table to path and returns the number of
// bytes written.
type Writer interface {
	Write(path string, t *Table) (int64, error)
}

// RunResult is everything a run produced besides the Parquet files:
// counters for the summary plus the collected diagnostics.
type RunResult struct {
	Stats       RunStats
	Diagnostics []Diagnostic
}

// Converter walks a start directory's campaign/experiment tree and
// writes one Parquet file per experiment. Experiments share no state
// other than the running totals, so conversion order is simply scan
// order.
type Converter struct {
	Opts   Options
	Loader Loader
	Writer Writer

	// Log receives warning lines as they happen. Nil silences them
	// (they still land in RunResult.Diagnostics).
	Log io.Writer
}

func (c *Converter) logf(format string, args ...any) {
	if c.Log != nil {
		fmt.Fprintf(c.Log, format+"\n", args...)
	}
}

// Run executes the conversion once. Per-experiment data problems are
// converted into diagnostics and skips; only configuration errors and
// start-directory access failures abort the whole run.
func (c *Converter) Run() (*RunResult, error) {
	if err := c.Opts.Validate(); err != nil {
		return nil, err
	}
	res := &RunResult{}

	campaigns, err := scanCampaigns(c.Opts)
	if err != nil {
		return nil, errors.Wrap(err, "scanning campaigns")
	}
	if len(campaigns) == 0 {
		res.Stats.recordEmpty(c.Opts.StartDirectory,
			fmt.Sprintf("No directories matching '%s'", c.Opts.DirectoryPattern))
	}

	for _, campaign := range campaigns {
		campaignDir := filepath.Join(c.Opts.StartDirectory, campaign)
		experiments := scanExperiments(campaignDir, c.Opts)
		if len(experiments) == 0 {
			res.Stats.recordEmpty(campaignDir,
				fmt.Sprintf("No subdirectories matching '%s'", c.Opts.SubdirectoryPattern))
			continue
		}
		for _, experiment := range experiments {
			c.convertExperiment(campaignDir, experiment, res)
		}
	}

	return res, nil
}

// convertExperiment runs the collect → load → policy → write pipeline
// for one experiment, updating res. The pre-existing-output check comes
// before any loading, so skipped experiments cost nothing.
func (c *Converter) convertExperiment(campaignDir, experiment string, res *RunResult) {
	experimentDir := filepath.Join(campaignDir, experiment)
	target := filepath.Join(campaignDir, experiment+".parquet")

	// A panicking loader or writer fails its experiment, not the run.
	defer func() {
		if r := recover(); r != nil {
			d := Diagnostic{Experiment: experimentDir, Message: fmt.Sprintf("skipping experiment: %v", r)}
			res.Diagnostics = append(res.Diagnostics, d)
			c.logf("warning: %s", d)
		}
	}()

	if !c.Opts.Overwrite {
		if _, err := os.Stat(target); err == nil {
			res.Stats.FilesSkipped++
			return
		}
	}

	files := collectDataFiles(experimentDir, c.Opts.FilePattern)
	if len(files) == 0 {
		res.Stats.recordEmpty(experimentDir,
			fmt.Sprintf("No files matching '%s'", c.Opts.FilePattern))
		return
	}

	record := func(msg string) {
		d := Diagnostic{Experiment: experimentDir, Message: msg}
		res.Diagnostics = append(res.Diagnostics, d)
		c.logf("warning: %s", d)
	}

	// Input sizes feed the compression ratio in the summary.
	var inputBytes int64
	for _, f := range files {
		if info, err := os.Stat(f); err == nil {
			inputBytes += info.Size()
		}
	}

	table, warnings, err := c.Loader.Load(files)
	for _, w := range warnings {
		record(w)
	}
	if err != nil {
		record(fmt.Sprintf("skipping experiment: %v", err))
		return
	}

	for _, d := range ApplyColumnPolicy(table, c.Opts) {
		d.Experiment = experimentDir
		res.Diagnostics = append(res.Diagnostics, d)
		c.logf("warning: %s", d)
	}

	written, err := c.Writer.Write(target, table)
	if err != nil {
		record(fmt.Sprintf("skipping experiment: writing %s: %v", target, err))
		return
	}

	res.Stats.OriginalBytes += inputBytes
	res.Stats.ParquetBytes += written
	res.Stats.FilesConverted++
}
