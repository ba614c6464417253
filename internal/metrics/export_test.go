package metrics

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return records
}

func TestWriteRegionsCSV(t *testing.T) {
	report := &Report{Regions: []Comparison{
		{
			ColID: 11, DocID: 100, PageID: 1000, PageNr: 1,
			TsIDReference: 5001, TsIDPrediction: 5002,
			RegionID: "r1", Type: "paragraph",
			TextReference:  []string{"line one", "line two"},
			TextPrediction: []string{"line one", "line two"},
			Valid:          true, CER: 0.0625, WER: 0.25,
		},
		{
			ColID: 11, DocID: 100, PageID: 1001, PageNr: 2,
			Warning: WarnNoPrediction, CER: math.NaN(), WER: math.NaN(),
		},
	}}

	path := filepath.Join(t.TempDir(), "textregions.csv")
	if err := report.WriteRegionsCSV(path); err != nil {
		t.Fatalf("WriteRegionsCSV() error = %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("records = %d, want header + 2 rows", len(records))
	}
	if records[0][0] != "colid" || records[0][13] != "wer" {
		t.Errorf("header = %v", records[0])
	}

	valid := records[1]
	if valid[6] != "r1" || valid[10] != "true" {
		t.Errorf("valid row = %v", valid)
	}
	if valid[8] != "line one\nline two" {
		t.Errorf("reference text = %q", valid[8])
	}
	// 0.0625 rounds half to even: "0.062", not "0.063".
	if valid[12] != "0.062" || valid[13] != "0.250" {
		t.Errorf("rates = %q/%q", valid[12], valid[13])
	}

	invalid := records[2]
	if invalid[10] != "false" || invalid[11] != WarnNoPrediction {
		t.Errorf("invalid row = %v", invalid)
	}
	// Undefined rates export as empty cells, not NaN.
	if invalid[12] != "" || invalid[13] != "" {
		t.Errorf("invalid rates = %q/%q", invalid[12], invalid[13])
	}
}

func TestWritePageScoresCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cer_pages.csv")
	scores := map[int]float64{1002: 0.5, 1000: 0.125, 1001: 0.25}
	if err := WritePageScoresCSV(path, "cer", scores); err != nil {
		t.Fatalf("WritePageScoresCSV() error = %v", err)
	}

	records := readCSV(t, path)
	want := [][]string{
		{"pageid", "cer"},
		{"1000", "0.125"},
		{"1001", "0.250"},
		{"1002", "0.500"},
	}
	if len(records) != len(want) {
		t.Fatalf("records = %v", records)
	}
	for i := range want {
		if records[i][0] != want[i][0] || records[i][1] != want[i][1] {
			t.Errorf("row %d = %v, want %v", i, records[i], want[i])
		}
	}
}

func TestPageScoreFlatteners(t *testing.T) {
	report := &Report{ByPage: map[int]Score{
		1000: {CER: 0.1, WER: 0.2},
		1001: {CER: 0.3, WER: 0.4},
	}}
	cers := report.PageCERs()
	wers := report.PageWERs()
	if cers[1000] != 0.1 || cers[1001] != 0.3 {
		t.Errorf("PageCERs() = %v", cers)
	}
	if wers[1000] != 0.2 || wers[1001] != 0.4 {
		t.Errorf("PageWERs() = %v", wers)
	}
}

func TestWriteHistogram(t *testing.T) {
	t.Run("writes a png", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cer_per_page.png")
		values := []float64{0.01, 0.02, 0.02, 0.08, 0.15}
		if err := WriteHistogram(values, 0.01, "CER per page", path); err != nil {
			t.Fatalf("WriteHistogram() error = %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if info.Size() == 0 {
			t.Error("histogram file is empty")
		}
	})

	t.Run("single value still plots", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "h.png")
		if err := WriteHistogram([]float64{0.05}, 0.01, "one page", path); err != nil {
			t.Fatalf("WriteHistogram() error = %v", err)
		}
	})

	t.Run("no values", func(t *testing.T) {
		if err := WriteHistogram(nil, 0.01, "empty", "unused.png"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("bad bin width", func(t *testing.T) {
		if err := WriteHistogram([]float64{0.1}, 0, "bad", "unused.png"); err == nil {
			t.Fatal("expected error")
		}
	})
}
