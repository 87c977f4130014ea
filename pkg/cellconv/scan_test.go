package cellconv

import (
	"os"
	"path/filepath"
	"testing"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListDirsFiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "CampaignB", "CampaignA", ".hidden", "other")
	touch(t, filepath.Join(root, "CampaignC")) // file, not a directory

	names, err := listDirs(root, "Campaign*")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "CampaignA" || names[1] != "CampaignB" {
		t.Fatalf("got %v, want [CampaignA CampaignB]", names)
	}
}

func TestCollectDataFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "Data2.csv"))
	touch(t, filepath.Join(dir, "Data1.CSV"))
	touch(t, filepath.Join(dir, "Data10.csv"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, ".Data0.csv"))
	mkdirs(t, dir, "sub.csv")

	paths := collectDataFiles(dir, "*.[Cc][Ss][Vv]")
	if len(paths) != 3 {
		t.Fatalf("expected 3 files, got %v", paths)
	}
	// ascending lexicographic, case-sensitive: uppercase sorts first
	want := []string{"Data1.CSV", "Data10.csv", "Data2.csv"}
	for i, p := range paths {
		if filepath.Base(p) != want[i] {
			t.Fatalf("order %v, want %v", paths, want)
		}
	}
}

func TestCollectDataFilesEmpty(t *testing.T) {
	dir := t.TempDir()
	if paths := collectDataFiles(dir, "*.csv"); len(paths) != 0 {
		t.Fatalf("expected no files, got %v", paths)
	}
}
