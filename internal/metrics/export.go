package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// WriteRegionsCSV writes the full comparison table, one row per region
// (or per excluded page), to a CSV file.
func (r *Report) WriteRegionsCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"colid", "docid", "pageid", "pagenr",
		"tsid_reference", "tsid_prediction",
		"textregionid", "type",
		"text_reference", "text_prediction",
		"is_valid", "warning_message", "cer", "wer",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range r.Regions {
		record := []string{
			strconv.Itoa(row.ColID),
			strconv.Itoa(row.DocID),
			strconv.Itoa(row.PageID),
			strconv.Itoa(row.PageNr),
			strconv.Itoa(row.TsIDReference),
			strconv.Itoa(row.TsIDPrediction),
			row.RegionID,
			row.Type,
			strings.Join(row.TextReference, "\n"),
			strings.Join(row.TextPrediction, "\n"),
			strconv.FormatBool(row.Valid),
			row.Warning,
			formatRate(row.CER, row.Valid),
			formatRate(row.WER, row.Valid),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WritePageScoresCSV writes one per-page score column (CER or WER) to a
// CSV file, sorted by page ID for stable output.
func WritePageScoresCSV(path, column string, scores map[int]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	w := csv.NewWriter(f)
	if err := w.Write([]string{"pageid", column}); err != nil {
		return err
	}
	for _, id := range ids {
		if err := w.Write([]string{strconv.Itoa(id), strconv.FormatFloat(scores[id], 'f', 3, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// PageCERs and PageWERs flatten the per-page scores for export and
// plotting.
func (r *Report) PageCERs() map[int]float64 {
	out := make(map[int]float64, len(r.ByPage))
	for id, s := range r.ByPage {
		out[id] = s.CER
	}
	return out
}

func (r *Report) PageWERs() map[int]float64 {
	out := make(map[int]float64, len(r.ByPage))
	for id, s := range r.ByPage {
		out[id] = s.WER
	}
	return out
}

func formatRate(v float64, valid bool) string {
	if !valid {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}
