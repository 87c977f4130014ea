package cellconv

import (
	"strings"
	"testing"
)

func TestSummaryConverted(t *testing.T) {
	s := &RunStats{FilesConverted: 3, OriginalBytes: 2000, ParquetBytes: 500}
	msg := s.Summary(false)
	if !strings.Contains(msg, "3 converted file(s)") || !strings.Contains(msg, "factor of 4") {
		t.Fatalf("unexpected summary: %q", msg)
	}
}

func TestSummarySkippedOnly(t *testing.T) {
	s := &RunStats{FilesSkipped: 2}
	msg := s.Summary(false)
	if !strings.Contains(msg, "2 pre-existing Parquet file(s) skipped") {
		t.Fatalf("unexpected summary: %q", msg)
	}
}

func TestSummaryNothing(t *testing.T) {
	if msg := (&RunStats{}).Summary(false); msg != "No files converted." {
		t.Fatalf("unexpected summary: %q", msg)
	}
	// skips with overwrite enabled still count as nothing done
	if msg := (&RunStats{FilesSkipped: 1}).Summary(true); msg != "No files converted." {
		t.Fatalf("unexpected summary: %q", msg)
	}
}

func TestEmptyReport(t *testing.T) {
	s := &RunStats{}
	s.recordEmpty("Campaign1", "No subdirectories matching '*'")
	s.recordEmpty("Campaign2/Exp1", "No files matching '*.csv'")
	report := s.EmptyReport()
	if !strings.Contains(report, "Campaign1: No subdirectories") || !strings.Contains(report, "Campaign2/Exp1") {
		t.Fatalf("unexpected report: %q", report)
	}
}

func TestOptionsValidate(t *testing.T) {
	opts := DefaultOptions(FormatCSV)
	opts.StartDirectory = t.TempDir()
	if err := opts.Validate(); err != nil {
		t.Fatal(err)
	}

	bad := opts
	bad.ParquetEngine = "fastparquet"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected unknown engine to fail validation")
	}

	bad = opts
	bad.ParquetCompression = "lzma"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected unknown codec to fail validation")
	}

	bad = opts
	bad.ParquetEngine = EngineXitongsys
	bad.ParquetCompression = "zstd"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected zstd to be rejected for the xitongsys engine")
	}

	bad = opts
	bad.DirectoryPattern = "[unclosed"
	if err := bad.Validate(); err == nil {
		t.Fatal("expected malformed glob to fail validation")
	}
}
