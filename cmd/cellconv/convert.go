package main

import (
	"fmt"
	"io"

	"github.com/jaffee/commandeer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cc "github.com/battlab/cellconv/pkg/cellconv"
	"github.com/battlab/cellconv/pkg/io/csvio"
	"github.com/battlab/cellconv/pkg/io/matio"
	"github.com/battlab/cellconv/pkg/io/npyio"
	"github.com/battlab/cellconv/pkg/io/parquetio"
)

// Main holds the configuration of one conversion subcommand. Its fields
// become CLI flags through commandeer.
type Main struct {
	Config              string `help:"Optional TOML file with conversion options; explicit flags win."`
	DirectoryPattern    string `help:"Glob to match 'campaign' directory names."`
	SubdirectoryPattern string `help:"Glob to match experiment subdirectory names."`
	FilePattern         string `help:"Glob to match data file names; default is the format's extension, case-insensitive."`
	Datetimes           string `help:"Column to parse as datetimes."`
	Index               string `help:"Column to drop; it duplicates the row index."`
	Overwrite           bool   `help:"Overwrite existing Parquet files instead of skipping them."`
	HighPrecision       bool   `help:"Keep 64-bit numerics; default assumes data is only accurate to 32-bit (~7dp)."`
	Verbose             bool   `help:"Print all the skipped directories."`
	Format              string `help:"YAML column format for npy files: column names, datetime units, precision."`
	ParquetEngine       string `help:"Engine to write Parquet files with: segment or xitongsys."`
	ParquetCompression  string `help:"Parquet compression codec: gzip, snappy, zstd, uncompressed."`
}

// NewMain returns a Main with the documented defaults for format.
func NewMain(format cc.Format) *Main {
	defaults := cc.DefaultOptions(format)
	return &Main{
		DirectoryPattern:    defaults.DirectoryPattern,
		SubdirectoryPattern: defaults.SubdirectoryPattern,
		FilePattern:         defaults.FilePattern,
		ParquetEngine:       defaults.ParquetEngine,
		ParquetCompression:  defaults.ParquetCompression,
	}
}

func newFormatCommand(format cc.Format, stdout, stderr io.Writer) *cobra.Command {
	main := NewMain(format)
	command := &cobra.Command{
		Use:   fmt.Sprintf("%s [flags] [START_DIRECTORY]", format),
		Short: fmt.Sprintf("Convert experiments of %s files to Parquet", format),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startDir := "."
			if len(args) == 1 {
				startDir = args[0]
			}
			return main.Run(format, startDir, cmd.Flags(), stdout, stderr)
		},
	}
	if err := commandeer.Flags(command.Flags(), main); err != nil {
		panic(err)
	}
	return command
}

// Run wires the format's loader and the Parquet writer into a Converter
// and reports the outcome the way the original tool did.
func (m *Main) Run(format cc.Format, startDir string, flags *pflag.FlagSet, stdout, stderr io.Writer) error {
	if m.Config != "" {
		if err := m.applyConfigFile(flags); err != nil {
			return err
		}
	}

	opts := cc.Options{
		StartDirectory:      startDir,
		DirectoryPattern:    m.DirectoryPattern,
		SubdirectoryPattern: m.SubdirectoryPattern,
		FilePattern:         m.FilePattern,
		DatetimeColumn:      m.Datetimes,
		IndexColumn:         m.Index,
		Overwrite:           m.Overwrite,
		HighPrecision:       m.HighPrecision,
		Verbose:             m.Verbose,
		FormatDescriptor:    m.Format,
		ParquetEngine:       m.ParquetEngine,
		ParquetCompression:  m.ParquetCompression,
	}

	loader, err := newLoader(format, opts)
	if err != nil {
		return err
	}
	conv := &cc.Converter{
		Opts:   opts,
		Loader: loader,
		Writer: parquetio.NewWriter(opts.ParquetEngine, opts.ParquetCompression),
		Log:    stderr,
	}

	fmt.Fprintf(stdout, "Converting campaigns in '%s' matching '%s' to Parquet\n",
		opts.StartDirectory, opts.DirectoryPattern)

	res, err := conv.Run()
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, res.Stats.Summary(opts.Overwrite))
	if opts.Verbose && len(res.Stats.EmptyDirectories) > 0 {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, res.Stats.EmptyReport())
	}
	return nil
}

func newLoader(format cc.Format, opts cc.Options) (cc.Loader, error) {
	switch format {
	case cc.FormatCSV:
		return &csvio.Loader{}, nil
	case cc.FormatNPY:
		desc := npyio.DefaultDescriptor()
		if opts.FormatDescriptor != "" {
			var err error
			desc, err = npyio.LoadDescriptor(opts.FormatDescriptor)
			if err != nil {
				return nil, err
			}
		}
		return &npyio.Loader{Descriptor: desc}, nil
	case cc.FormatMAT:
		return &matio.Loader{}, nil
	default:
		return nil, errors.Errorf("unsupported format %s", format)
	}
}
