package cellconv

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrEmptyExperiment means no usable table data was found after loading
// every file in an experiment. The experiment is skipped with a warning;
// the run continues.
var ErrEmptyExperiment = errors.New("no table-shaped data found in experiment")

// FormatError means files meant to be concatenated into one experiment
// table carry incompatible schemas. It is recoverable at experiment
// granularity: the experiment is skipped, the run continues.
type FormatError struct {
	File   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("incompatible format: %s", e.Reason)
	}
	return fmt.Sprintf("incompatible format in %s: %s", e.File, e.Reason)
}

// Diagnostic is a non-fatal condition recorded during a run: missing
// configured columns, failed casts, ignored files. Diagnostics never
// abort the run.
type Diagnostic struct {
	Experiment string
	Message    string
}

func (d Diagnostic) String() string {
	if d.Experiment == "" {
		return d.Message
	}
	return d.Experiment + ": " + d.Message
}
