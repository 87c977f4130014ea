package cellconv

import (
	"fmt"
	"strings"
)

// RunStats accumulates byte counts and file tallies over one run. It is
// created at run start, updated once per experiment, and consumed by
// Summary at run end.
type RunStats struct {
	OriginalBytes    int64
	ParquetBytes     int64
	FilesConverted   int
	FilesSkipped     int
	EmptyDirectories []string
}

func (s *RunStats) recordEmpty(dir, reason string) {
	s.EmptyDirectories = append(s.EmptyDirectories, fmt.Sprintf("%s: %s", dir, reason))
}

// Summary renders the end-of-run message: conversion count with the
// input/output compression ratio, or the skip count when overwrite was
// disabled and every target already existed, or a plain "nothing done".
func (s *RunStats) Summary(overwrite bool) string {
	switch {
	case s.FilesConverted > 0:
		ratio := float64(s.OriginalBytes) / float64(s.ParquetBytes)
		return fmt.Sprintf("%d converted file(s) are smaller by a factor of %g", s.FilesConverted, ratio)
	case !overwrite && s.FilesSkipped > 0:
		return fmt.Sprintf("No files converted, but %d pre-existing Parquet file(s) skipped", s.FilesSkipped)
	default:
		return "No files converted."
	}
}

// EmptyReport lists every directory that yielded no usable data, one per
// line. Empty when there were none.
func (s *RunStats) EmptyReport() string {
	return strings.Join(s.EmptyDirectories, "\n")
}
