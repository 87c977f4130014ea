package cellconv

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Format tags the source file format of an experiment. It is selected
// once per run and fixes which adapter builds the tables.
type Format int

const (
	FormatCSV Format = iota
	FormatNPY
	FormatMAT
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatNPY:
		return "npy"
	case FormatMAT:
		return "mat"
	default:
		return "unknown"
	}
}

// DefaultFilePattern returns the case-insensitive extension glob used
// when no file pattern is configured.
func (f Format) DefaultFilePattern() string {
	switch f {
	case FormatCSV:
		return "*.[Cc][Ss][Vv]"
	case FormatNPY:
		return "*.[Nn][Pp][Yy]"
	case FormatMAT:
		return "*.[Mm][Aa][Tt]"
	default:
		return "*"
	}
}

// Parquet engine names.
const (
	EngineSegment   = "segment"
	EngineXitongsys = "xitongsys"
)

// Options is the immutable per-run configuration. Zero values mean
// "not configured"; DefaultOptions fills in the documented defaults.
type Options struct {
	// StartDirectory is the root under which campaign directories live.
	StartDirectory string

	// DirectoryPattern matches campaign directory names.
	DirectoryPattern string
	// SubdirectoryPattern matches experiment directory names.
	SubdirectoryPattern string
	// FilePattern matches data file names. Empty means the format's
	// case-insensitive extension default.
	FilePattern string

	// DatetimeColumn, if set, is parsed as a timestamp by the column
	// policy. IndexColumn, if set, is dropped before writing.
	DatetimeColumn string
	IndexColumn    string

	// Overwrite replaces pre-existing Parquet outputs instead of
	// skipping their experiments.
	Overwrite bool
	// HighPrecision keeps 64-bit numeric columns instead of
	// downcasting to 32-bit.
	HighPrecision bool
	// Verbose lists skipped/empty directories in the summary.
	Verbose bool

	// FormatDescriptor is the path of a YAML column descriptor for the
	// NPY adapter. Empty means the built-in default.
	FormatDescriptor string

	// ParquetEngine is "segment" or "xitongsys".
	ParquetEngine string
	// ParquetCompression names the codec: gzip, snappy, zstd,
	// uncompressed/none.
	ParquetCompression string
}

// DefaultOptions returns the documented defaults: match-all directory
// patterns, current working directory, gzip compression, segment engine.
func DefaultOptions(f Format) Options {
	return Options{
		StartDirectory:      ".",
		DirectoryPattern:    "*",
		SubdirectoryPattern: "*",
		FilePattern:         f.DefaultFilePattern(),
		ParquetEngine:       EngineSegment,
		ParquetCompression:  "gzip",
	}
}

// Validate checks the option set once at entry. Validation failures are
// fatal to the run; anything recoverable is handled later as a
// diagnostic instead.
func (o Options) Validate() error {
	info, err := os.Stat(o.StartDirectory)
	if err != nil {
		return errors.Wrap(err, "start directory")
	}
	if !info.IsDir() {
		return fmt.Errorf("start directory %s is not a directory", o.StartDirectory)
	}
	for _, p := range []struct{ name, pattern string }{
		{"directory-pattern", o.DirectoryPattern},
		{"subdirectory-pattern", o.SubdirectoryPattern},
		{"file-pattern", o.FilePattern},
	} {
		if _, err := filepath.Match(p.pattern, "probe"); err != nil {
			return errors.Wrapf(err, "invalid %s %q", p.name, p.pattern)
		}
	}
	switch o.ParquetEngine {
	case EngineSegment, EngineXitongsys:
	default:
		return fmt.Errorf("unknown parquet engine %q (want %s or %s)", o.ParquetEngine, EngineSegment, EngineXitongsys)
	}
	switch o.ParquetCompression {
	case "gzip", "snappy", "uncompressed", "none":
	case "zstd":
		if o.ParquetEngine != EngineSegment {
			return fmt.Errorf("zstd compression requires the %s engine", EngineSegment)
		}
	default:
		return fmt.Errorf("unknown parquet compression %q", o.ParquetCompression)
	}
	return nil
}
