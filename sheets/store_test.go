package sheets

import "testing"

func TestColumnLetter(t *testing.T) {
	cases := map[int]string{
		0:   "A",
		1:   "B",
		25:  "Z",
		26:  "AA",
		27:  "AB",
		51:  "AZ",
		52:  "BA",
		701: "ZZ",
		702: "AAA",
	}
	for col, want := range cases {
		if got := ColumnLetter(col); got != want {
			t.Errorf("ColumnLetter(%d) = %q, want %q", col, got, want)
		}
	}
}

func TestCellRange(t *testing.T) {
	ref := SheetRef{SheetID: "doc", TabName: "Leads"}
	if got := CellRange(ref, 7, 2); got != "Leads!C7" {
		t.Fatalf("CellRange = %q, want Leads!C7", got)
	}
	if got := RowRange(ref, 3); got != "Leads!A3:ZZ3" {
		t.Fatalf("RowRange = %q, want Leads!A3:ZZ3", got)
	}
}
