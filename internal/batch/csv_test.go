package batch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestReadPageList(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := writeFile(t, "pages.csv", "colname,title,pagenr\nLetters 1850,Box 1,3\nLetters 1850,Box 2,14\n")
		refs, err := ReadPageList(path)
		if err != nil {
			t.Fatalf("ReadPageList() error = %v", err)
		}
		if len(refs) != 2 {
			t.Fatalf("refs = %d, want 2", len(refs))
		}
		if refs[0].Collection != "Letters 1850" || refs[0].Document != "Box 1" || refs[0].PageNr != 3 {
			t.Errorf("refs[0] = %+v", refs[0])
		}
		if refs[1].PageNr != 14 {
			t.Errorf("refs[1] = %+v", refs[1])
		}
	})

	t.Run("header is case insensitive and order free", func(t *testing.T) {
		path := writeFile(t, "pages.csv", "Pagenr,Colname,Title\n7,Letters 1850,Box 1\n")
		refs, err := ReadPageList(path)
		if err != nil {
			t.Fatalf("ReadPageList() error = %v", err)
		}
		if refs[0].PageNr != 7 || refs[0].Collection != "Letters 1850" {
			t.Errorf("refs[0] = %+v", refs[0])
		}
	})

	t.Run("missing column", func(t *testing.T) {
		path := writeFile(t, "pages.csv", "colname,pagenr\nLetters 1850,3\n")
		_, err := ReadPageList(path)
		if err == nil || !strings.Contains(err.Error(), "title") {
			t.Fatalf("expected missing-column error, got %v", err)
		}
	})

	t.Run("bad page number", func(t *testing.T) {
		path := writeFile(t, "pages.csv", "colname,title,pagenr\nLetters 1850,Box 1,three\n")
		if _, err := ReadPageList(path); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeFile(t, "pages.csv", "")
		if _, err := ReadPageList(path); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestWritePageList(t *testing.T) {
	refs := []PageRef{
		{Collection: "Letters 1850", Document: "Box 1", PageNr: 3, ColID: 11, DocID: 100, TsID: 5001},
		{Collection: "Letters 1850", Document: "Box 9", PageNr: 1, ColID: 11, Warning: "document not found"},
	}
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WritePageList(path, refs); err != nil {
		t.Fatalf("WritePageList() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %v", lines)
	}
	if lines[0] != "colname,title,pagenr,colid,docid,tsid,warning" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "Letters 1850,Box 1,3,11,100,5001," {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "Letters 1850,Box 9,1,11,0,0,document not found" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestReadDocFilter(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := writeFile(t, "docs.csv", "100\n101\n\n205\n")
		filter, err := ReadDocFilter(path)
		if err != nil {
			t.Fatalf("ReadDocFilter() error = %v", err)
		}
		if len(filter) != 3 || !filter[100] || !filter[101] || !filter[205] {
			t.Errorf("filter = %v", filter)
		}
	})

	t.Run("bad id", func(t *testing.T) {
		path := writeFile(t, "docs.csv", "100\nabc\n")
		if _, err := ReadDocFilter(path); err == nil {
			t.Fatal("expected error")
		}
	})
}
