package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	cc "github.com/battlab/cellconv/pkg/cellconv"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cellconv.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestApplyConfigFileOverridesDefaults(t *testing.T) {
	m := NewMain(cc.FormatCSV)
	m.Config = writeConfig(t, `
directory_pattern = "Campaign*"
datetime_column = "Time"
high_precision = true
parquet_compression = "gzip"
`)
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("directory-pattern", m.DirectoryPattern, "")
	flags.String("datetimes", m.Datetimes, "")
	flags.Bool("high-precision", m.HighPrecision, "")
	flags.String("parquet-compression", m.ParquetCompression, "")

	if err := m.applyConfigFile(flags); err != nil {
		t.Fatal(err)
	}
	if m.DirectoryPattern != "Campaign*" {
		t.Fatalf("DirectoryPattern = %q, want Campaign*", m.DirectoryPattern)
	}
	if m.Datetimes != "Time" {
		t.Fatalf("Datetimes = %q, want Time", m.Datetimes)
	}
	if !m.HighPrecision {
		t.Fatal("HighPrecision should come from the file")
	}
	if m.ParquetCompression != "gzip" {
		t.Fatalf("ParquetCompression = %q, want gzip", m.ParquetCompression)
	}
	// untouched by the file, keeps its default
	if m.FilePattern != cc.FormatCSV.DefaultFilePattern() {
		t.Fatalf("FilePattern = %q, want default", m.FilePattern)
	}
}

func TestApplyConfigFileFlagsWin(t *testing.T) {
	m := NewMain(cc.FormatCSV)
	m.Config = writeConfig(t, `directory_pattern = "FromFile*"`)
	m.DirectoryPattern = "FromFlag*"

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("directory-pattern", "*", "")
	if err := flags.Set("directory-pattern", "FromFlag*"); err != nil {
		t.Fatal(err)
	}

	if err := m.applyConfigFile(flags); err != nil {
		t.Fatal(err)
	}
	if m.DirectoryPattern != "FromFlag*" {
		t.Fatalf("explicit flag should win over the file, got %q", m.DirectoryPattern)
	}
}

func TestApplyConfigFileMalformed(t *testing.T) {
	m := NewMain(cc.FormatCSV)
	m.Config = writeConfig(t, `directory_pattern = [not toml`)
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := m.applyConfigFile(flags); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestApplyConfigFileMissing(t *testing.T) {
	m := NewMain(cc.FormatCSV)
	m.Config = filepath.Join(t.TempDir(), "absent.toml")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := m.applyConfigFile(flags); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
