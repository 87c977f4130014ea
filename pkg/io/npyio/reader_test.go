package npyio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cc "github.com/battlab/cellconv/pkg/cellconv"
)

// writeNPY writes a version 1.0 .npy file with little-endian float64
// data in the requested order.
func writeNPY(t *testing.T, dir, name string, rows, cols int, fortran bool, values []float64) string {
	t.Helper()
	if len(values) != rows*cols {
		t.Fatalf("writeNPY: %d values for %dx%d", len(values), rows, cols)
	}
	order := "False"
	if fortran {
		order = "True"
	}
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': %s, 'shape': (%d, %d), }", order, rows, cols)
	// pad so magic+version+hlen+header is a multiple of 64, ending in \n
	total := 10 + len(header) + 1
	pad := (64 - total%64) % 64
	header += strings.Repeat(" ", pad) + "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.WriteByte(1)
	buf.WriteByte(0)
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(header))); err != nil {
		t.Fatal(err)
	}
	buf.WriteString(header)
	for _, v := range values {
		if err := binary.Write(&buf, binary.LittleEndian, math.Float64bits(v)); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultDescriptor(t *testing.T) {
	dir := t.TempDir()
	// Time, Current, Voltage, Temperature
	p := writeNPY(t, dir, "run.npy", 2, 4, false, []float64{
		1700000000, 0.5, 3.7, 21.5,
		1700000001, 0.6, 3.8, 21.6,
	})

	tab, warns, err := (&Loader{}).Load([]string{p})
	if err != nil {
		t.Fatal(err)
	}
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if tab.Rows() != 2 || tab.Cols() != 4 {
		t.Fatalf("got %dx%d table, want 2x4", tab.Rows(), tab.Cols())
	}
	tc, ok := tab.ColumnByName("Time")
	if !ok || tc.Kind() != cc.KindTime {
		t.Fatalf("Time column should be a datetime, got %v", tc)
	}
	ts, _ := tc.(*cc.TimeColumn).Get(0)
	if !ts.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("Time[0] = %v, want %v", ts, time.Unix(1700000000, 0).UTC())
	}
	vc, _ := tab.ColumnByName("Voltage")
	v, _ := vc.(*cc.FloatColumn).Get(1)
	if v != 3.8 {
		t.Fatalf("Voltage[1] = %v, want 3.8", v)
	}
}

func TestLoadFortranOrder(t *testing.T) {
	dir := t.TempDir()
	// column-major layout of the same 2x4 array
	p := writeNPY(t, dir, "run.npy", 2, 4, true, []float64{
		1700000000, 1700000001,
		0.5, 0.6,
		3.7, 3.8,
		21.5, 21.6,
	})
	tab, _, err := (&Loader{}).Load([]string{p})
	if err != nil {
		t.Fatal(err)
	}
	vc, _ := tab.ColumnByName("Current")
	v, _ := vc.(*cc.FloatColumn).Get(1)
	if v != 0.6 {
		t.Fatalf("Current[1] = %v, want 0.6", v)
	}
}

func TestLoadFirstFileOnly(t *testing.T) {
	dir := t.TempDir()
	a := writeNPY(t, dir, "a.npy", 1, 4, false, []float64{1700000000, 0.5, 3.7, 21.5})
	b := writeNPY(t, dir, "b.npy", 1, 4, false, []float64{1700000099, 9.9, 9.9, 99.9})

	tab, warns, err := (&Loader{}).Load([]string{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if len(warns) != 1 {
		t.Fatalf("expected one warning about the ignored file, got %v", warns)
	}
	if tab.Rows() != 1 {
		t.Fatalf("only the first file should convert, got %d rows", tab.Rows())
	}
	vc, _ := tab.ColumnByName("Current")
	if v, _ := vc.(*cc.FloatColumn).Get(0); v != 0.5 {
		t.Fatalf("Current[0] = %v, want 0.5 (from first file)", v)
	}
}

func TestLoadWidthMismatchWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	p := writeNPY(t, dir, "run.npy", 2, 2, false, []float64{1, 2, 3, 4})

	_, _, err := (&Loader{}).Load([]string{p})
	if err == nil {
		t.Fatal("expected an error for a 2-column array under the 4-column default format")
	}
	template := p + "_format.yml"
	b, rerr := os.ReadFile(template)
	if rerr != nil {
		t.Fatalf("template descriptor not written: %v", rerr)
	}
	if !strings.Contains(string(b), "date_column:") {
		t.Fatalf("template missing date_column section:\n%s", b)
	}
	if !strings.Contains(err.Error(), template) {
		t.Fatalf("error should point at the template: %v", err)
	}
}

func TestLoadCustomDescriptorFloat32(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "fmt.yml")
	if err := os.WriteFile(yml, []byte("columns:\n  - Stamp\n  - Level\ndate_column:\n  Stamp: ms\nfloat32: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	desc, err := LoadDescriptor(yml)
	if err != nil {
		t.Fatal(err)
	}
	p := writeNPY(t, dir, "run.npy", 1, 2, false, []float64{1700000000500, 0.25})

	tab, _, err := (&Loader{Descriptor: desc}).Load([]string{p})
	if err != nil {
		t.Fatal(err)
	}
	sc, _ := tab.ColumnByName("Stamp")
	ts, _ := sc.(*cc.TimeColumn).Get(0)
	want := time.Unix(1700000000, int64(500*time.Millisecond)).UTC()
	if !ts.Equal(want) {
		t.Fatalf("Stamp[0] = %v, want %v", ts, want)
	}
	lc, _ := tab.ColumnByName("Level")
	if lc.Kind() != cc.KindFloat32 {
		t.Fatalf("Level should downcast per descriptor, got %s", lc.Kind())
	}
	if v, _ := lc.(*cc.Float32Column).Get(0); v != 0.25 {
		t.Fatalf("Level[0] = %v, want 0.25", v)
	}
}

func TestLoadDescriptorRejectsEmpty(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "fmt.yml")
	if err := os.WriteFile(yml, []byte("date_column: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDescriptor(yml); err == nil {
		t.Fatal("expected an error for a descriptor with no columns")
	}
}
