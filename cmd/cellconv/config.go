package main

import (
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// fileConfig is the TOML shape of a conversion options file. Pointer
// fields distinguish "absent" from zero so flags keep their defaults.
type fileConfig struct {
	DirectoryPattern    *string `toml:"directory_pattern"`
	SubdirectoryPattern *string `toml:"subdirectory_pattern"`
	FilePattern         *string `toml:"file_pattern"`
	Datetimes           *string `toml:"datetime_column"`
	Index               *string `toml:"index_column"`
	Overwrite           *bool   `toml:"overwrite"`
	HighPrecision       *bool   `toml:"high_precision"`
	Verbose             *bool   `toml:"verbose"`
	Format              *string `toml:"format_descriptor"`
	ParquetEngine       *string `toml:"parquet_engine"`
	ParquetCompression  *string `toml:"parquet_compression"`
}

// applyConfigFile overlays m with values from the TOML file, except
// where the corresponding flag was set explicitly: defaults < file <
// flags.
func (m *Main) applyConfigFile(flags *pflag.FlagSet) error {
	b, err := os.ReadFile(m.Config)
	if err != nil {
		return errors.Wrap(err, "reading config file")
	}
	var cfg fileConfig
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return errors.Wrapf(err, "parsing %s", m.Config)
	}

	setString := func(flag string, dst *string, v *string) {
		if v != nil && !flags.Changed(flag) {
			*dst = *v
		}
	}
	setBool := func(flag string, dst *bool, v *bool) {
		if v != nil && !flags.Changed(flag) {
			*dst = *v
		}
	}

	setString("directory-pattern", &m.DirectoryPattern, cfg.DirectoryPattern)
	setString("subdirectory-pattern", &m.SubdirectoryPattern, cfg.SubdirectoryPattern)
	setString("file-pattern", &m.FilePattern, cfg.FilePattern)
	setString("datetimes", &m.Datetimes, cfg.Datetimes)
	setString("index", &m.Index, cfg.Index)
	setBool("overwrite", &m.Overwrite, cfg.Overwrite)
	setBool("high-precision", &m.HighPrecision, cfg.HighPrecision)
	setBool("verbose", &m.Verbose, cfg.Verbose)
	setString("format", &m.Format, cfg.Format)
	setString("parquet-engine", &m.ParquetEngine, cfg.ParquetEngine)
	setString("parquet-compression", &m.ParquetCompression, cfg.ParquetCompression)
	return nil
}
