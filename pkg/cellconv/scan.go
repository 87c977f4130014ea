package cellconv

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// listDirs returns the names of subdirectories of root whose names match
// pattern, in ascending case-sensitive lexicographic order. Hidden
// entries and non-directories are excluded.
func listDirs(root, pattern string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", root)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// scanCampaigns lists campaign directories under the start directory.
// A failure here is fatal to the run.
func scanCampaigns(opts Options) ([]string, error) {
	return listDirs(opts.StartDirectory, opts.DirectoryPattern)
}

// scanExperiments lists experiment directories of one campaign. An
// unreadable campaign is reported as empty rather than aborting the run.
func scanExperiments(campaignDir string, opts Options) []string {
	names, err := listDirs(campaignDir, opts.SubdirectoryPattern)
	if err != nil {
		return nil
	}
	return names
}

// collectDataFiles lists data file paths inside an experiment directory
// matching the file pattern, sorted ascending. The sort order fixes the
// row order of the concatenated table.
func collectDataFiles(experimentDir, pattern string) []string {
	entries, err := os.ReadDir(experimentDir)
	if err != nil {
		return nil
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			paths = append(paths, filepath.Join(experimentDir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths
}
