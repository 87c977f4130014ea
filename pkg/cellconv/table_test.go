package cellconv

import (
	"testing"
	"time"
)

func numericSchema() Schema {
	return Schema{Columns: []ColumnSchema{
		{Name: "Time", Type: KindFloat, Nullable: true},
		{Name: "Current", Type: KindFloat, Nullable: true},
	}}
}

func fillRows(t *Table, n int, base float64) {
	for i := 0; i < n; i++ {
		t.AppendNullRow()
		row := t.Rows() - 1
		_ = t.SetCell(row, "Time", base+float64(i))
		_ = t.SetCell(row, "Current", base*10+float64(i))
	}
}

func TestConcat(t *testing.T) {
	a := NewTable(numericSchema())
	b := NewTable(numericSchema())
	fillRows(a, 10, 0)
	fillRows(b, 5, 100)

	if err := Concat(a, b); err != nil {
		t.Fatal(err)
	}
	if a.Rows() != 15 {
		t.Fatalf("expected 15 rows, got %d", a.Rows())
	}
	col, _ := a.ColumnByName("Time")
	v, ok := col.(*FloatColumn).Get(10)
	if !ok || v != 100 {
		t.Fatalf("expected first appended row to follow base rows, got %v (%v)", v, ok)
	}
}

func TestConcatSchemaMismatch(t *testing.T) {
	a := NewTable(numericSchema())
	b := NewTable(Schema{Columns: []ColumnSchema{
		{Name: "Time", Type: KindFloat, Nullable: true},
		{Name: "Voltage", Type: KindFloat, Nullable: true},
	}})
	fillRows(a, 2, 0)
	b.AppendNullRow()

	err := Concat(a, b)
	if err == nil {
		t.Fatal("expected error for mismatched schemas")
	}
	if _, ok := err.(*FormatError); !ok {
		t.Fatalf("expected *FormatError, got %T", err)
	}
	if a.Rows() != 2 {
		t.Fatalf("failed concat must not change the accumulator, got %d rows", a.Rows())
	}
}

func TestDropColumn(t *testing.T) {
	tab := NewTable(numericSchema())
	fillRows(tab, 3, 0)

	if !tab.DropColumn("Current") {
		t.Fatal("expected drop to succeed")
	}
	if tab.Cols() != 1 {
		t.Fatalf("expected 1 column, got %d", tab.Cols())
	}
	if _, ok := tab.ColumnByName("Current"); ok {
		t.Fatal("dropped column still resolvable")
	}
	if tab.DropColumn("Current") {
		t.Fatal("expected drop of missing column to report false")
	}
	// remaining column still intact
	col, _ := tab.ColumnByName("Time")
	if col.Len() != 3 {
		t.Fatalf("expected 3 values, got %d", col.Len())
	}
}

func TestRenameColumn(t *testing.T) {
	tab := NewTable(Schema{Columns: []ColumnSchema{
		{Name: "Cell Voltage", Type: KindFloat, Nullable: true},
	}})
	tab.AppendNullRow()
	_ = tab.SetCell(0, "Cell Voltage", 3.7)

	if !tab.RenameColumn("Cell Voltage", "Cell_Voltage") {
		t.Fatal("expected rename to succeed")
	}
	col, ok := tab.ColumnByName("Cell_Voltage")
	if !ok {
		t.Fatal("renamed column not resolvable")
	}
	if col.Name() != "Cell_Voltage" {
		t.Fatalf("column still reports old name %q", col.Name())
	}
	if v, ok := col.(*FloatColumn).Get(0); !ok || v != 3.7 {
		t.Fatalf("value lost in rename: %v (%v)", v, ok)
	}
}

func TestReplaceColumn(t *testing.T) {
	tab := NewTable(Schema{Columns: []ColumnSchema{
		{Name: "Time", Type: KindInt, Nullable: true},
	}})
	tab.AppendNullRow()
	_ = tab.SetCell(0, "Time", int64(1600000000))

	tc := NewTimeColumn("Time", 0)
	tc.Append(time.Unix(1600000000, 0).UTC())
	if err := tab.ReplaceColumn("Time", tc); err != nil {
		t.Fatal(err)
	}
	if tab.Schema().Columns[0].Type != KindTime {
		t.Fatalf("schema not updated, kind is %s", tab.Schema().Columns[0].Type)
	}

	short := NewTimeColumn("Time", 0)
	if err := tab.ReplaceColumn("Time", short); err == nil {
		t.Fatal("expected length mismatch error")
	}
}
