package batch

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// PageRef is one row of the page list CSV driving a status change run:
// a page addressed by collection name, document title and page number.
type PageRef struct {
	Collection string
	Document   string
	PageNr     int

	// Resolved identifiers, filled in during the run.
	ColID   int
	DocID   int
	TsID    int
	Warning string
}

// ReadPageList loads a page list CSV with a colname,title,pagenr header.
func ReadPageList(path string) ([]PageRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page list: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read page list: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("page list %s is empty", path)
	}

	header := records[0]
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"colname", "title", "pagenr"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("page list %s is missing column %q", path, required)
		}
	}

	refs := make([]PageRef, 0, len(records)-1)
	for i, record := range records[1:] {
		pageNr, err := strconv.Atoi(strings.TrimSpace(record[col["pagenr"]]))
		if err != nil {
			return nil, fmt.Errorf("page list %s line %d: bad page number %q", path, i+2, record[col["pagenr"]])
		}
		refs = append(refs, PageRef{
			Collection: strings.TrimSpace(record[col["colname"]]),
			Document:   strings.TrimSpace(record[col["title"]]),
			PageNr:     pageNr,
		})
	}
	return refs, nil
}

// WritePageList exports the resolved page table, matching the input
// columns plus the identifiers the run looked up.
func WritePageList(path string, refs []PageRef) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"colname", "title", "pagenr", "colid", "docid", "tsid", "warning"}); err != nil {
		return err
	}
	for _, ref := range refs {
		record := []string{
			ref.Collection,
			ref.Document,
			strconv.Itoa(ref.PageNr),
			strconv.Itoa(ref.ColID),
			strconv.Itoa(ref.DocID),
			strconv.Itoa(ref.TsID),
			ref.Warning,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadDocFilter loads a CSV with one document ID per line.
func ReadDocFilter(path string) (map[int]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document filter: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read document filter: %w", err)
	}

	filter := make(map[int]bool, len(records))
	for i, record := range records {
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("document filter %s line %d: bad document id %q", path, i+1, record[0])
		}
		filter[id] = true
	}
	return filter, nil
}
