package dataset

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const fixtureCSV = `id,date,NH4,BSK5,Suspended,O2,NO3,NO2,SO4,PO4,CL
1,17.02.2000,0.33,2.77,12.0,12.3,9.5,0.057,154.0,0.454,289.5
1,11.05.2000,0.044,3.0,51.6,14.61,17.75,0.034,352.0,0.09,1792.0
2,11.09.2000,0.032,2.1,24.5,9.87,13.8,0.173,416.0,0.2,2509.0
2,13.12.2000,0.17,2.23,35.6,12.4,17.13,0.099,275.2,0.377,1264.0
3,02.03.2001,0.0,3.03,48.8,14.69,10.0,0.065,281.6,0.134,1462.0
3,04.06.2001,,2.5,,8.5,11.7,0.071,,0.18,1290.0
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "river.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func loadFixture(t *testing.T) *Table {
	t.Helper()
	table, err := Load(writeFixture(t, fixtureCSV), "id", "date")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return table
}

func TestLoadShapeAndColumns(t *testing.T) {
	table := loadFixture(t)

	if table.NRows() != 6 {
		t.Errorf("NRows() = %d, want 6", table.NRows())
	}
	if table.NCols() != 11 {
		t.Errorf("NCols() = %d, want 11", table.NCols())
	}

	want := []string{"id", "date", "NH4", "BSK5", "Suspended", "O2", "NO3", "NO2", "SO4", "PO4", "CL"}
	if !reflect.DeepEqual(table.Names(), want) {
		t.Errorf("Names() = %v, want %v", table.Names(), want)
	}
}

func TestLoadDetectsMissingValues(t *testing.T) {
	table := loadFixture(t)

	missing := table.MissingCounts()
	tests := []struct {
		column string
		want   int
	}{
		{column: "NH4", want: 1},
		{column: "Suspended", want: 1},
		{column: "SO4", want: 1},
		{column: "O2", want: 0},
		{column: "id", want: 0},
	}
	for _, tt := range tests {
		if got := missing[tt.column]; got != tt.want {
			t.Errorf("missing[%s] = %d, want %d", tt.column, got, tt.want)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.csv"), "id", "date"); err == nil {
		t.Error("Load() succeeded on a missing file")
	}

	noID := "date,O2\n17.02.2000,12.3\n"
	if _, err := Load(writeFixture(t, noID), "id", "date"); err == nil {
		t.Error("Load() succeeded without the id column")
	}
}

func TestUniqueSites(t *testing.T) {
	table := loadFixture(t)

	got := table.UniqueSites()
	want := []string{"1", "2", "3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueSites() = %v, want %v", got, want)
	}
}

func TestColumnValues(t *testing.T) {
	table := loadFixture(t)

	o2, err := table.Column("O2")
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	if len(o2) != 6 {
		t.Fatalf("len = %d, want 6", len(o2))
	}
	if o2[0] != 12.3 {
		t.Errorf("O2[0] = %v, want 12.3", o2[0])
	}

	nh4, err := table.Column("NH4")
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	if !math.IsNaN(nh4[5]) {
		t.Errorf("NH4[5] = %v, want NaN", nh4[5])
	}

	if _, err := table.Column("nope"); err == nil {
		t.Error("Column() succeeded for an unknown column")
	}
}

func TestFeatureMatrixAlignmentAndTargetDrop(t *testing.T) {
	missingTarget := `id,date,NH4,O2
1,17.02.2000,0.1,10.5
1,11.05.2000,0.2,
2,11.09.2000,0.3,30.5
`
	table, err := Load(writeFixture(t, missingTarget), "id", "date")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	X, y, names, err := table.FeatureMatrix("O2")
	if err != nil {
		t.Fatalf("FeatureMatrix() error = %v", err)
	}

	// The row with a missing target is dropped from both X and y.
	r, _ := X.Dims()
	if r != 2 {
		t.Fatalf("X rows = %d, want 2", r)
	}
	yr, _ := y.Dims()
	if yr != 2 {
		t.Fatalf("y rows = %d, want 2", yr)
	}
	if !reflect.DeepEqual(names, []string{"NH4"}) {
		t.Errorf("feature names = %v, want [NH4]", names)
	}

	// Alignment: surviving rows keep their feature/target pairing.
	if X.At(0, 0) != 0.1 || y.At(0, 0) != 10.5 {
		t.Errorf("row 0 = (%v, %v), want (0.1, 10.5)", X.At(0, 0), y.At(0, 0))
	}
	if X.At(1, 0) != 0.3 || y.At(1, 0) != 30.5 {
		t.Errorf("row 1 = (%v, %v), want (0.3, 30.5)", X.At(1, 0), y.At(1, 0))
	}
}

func TestFeatureMatrixUnknownTarget(t *testing.T) {
	table := loadFixture(t)
	if _, _, _, err := table.FeatureMatrix("oxygen"); err == nil {
		t.Error("FeatureMatrix() succeeded for an unknown target")
	}
}
