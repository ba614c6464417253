package trp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDownloadTranscript(t *testing.T) {
	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte("<PcGts>content</PcGts>"))
		}))
		defer server.Close()

		client := New(Config{
			BaseURL:          server.URL,
			DownloadAttempts: 5,
			DownloadDelay:    time.Millisecond,
		})
		content, err := client.DownloadTranscript(context.Background(), server.URL+"/files/1")
		if err != nil {
			t.Fatalf("DownloadTranscript() error = %v", err)
		}
		if content != "<PcGts>content</PcGts>" {
			t.Errorf("content = %q", content)
		}
		if calls.Load() != 3 {
			t.Errorf("calls = %d, want 3", calls.Load())
		}
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "Not Found", http.StatusNotFound)
		}))
		defer server.Close()

		client := New(Config{
			BaseURL:          server.URL,
			DownloadAttempts: 5,
			DownloadDelay:    time.Millisecond,
		})
		if _, err := client.DownloadTranscript(context.Background(), server.URL+"/files/1"); err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", calls.Load())
		}
	})

	t.Run("surfaces last error after exhausting attempts", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}))
		defer server.Close()

		client := New(Config{
			BaseURL:          server.URL,
			DownloadAttempts: 2,
			DownloadDelay:    time.Millisecond,
		})
		if _, err := client.DownloadTranscript(context.Background(), server.URL+"/files/1"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestDownloadTranscriptToFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("page xml"))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, DownloadDelay: time.Millisecond})
	path := filepath.Join(t.TempDir(), "0001.xml")
	if err := client.DownloadTranscriptToFile(context.Background(), server.URL+"/files/1", path); err != nil {
		t.Fatalf("DownloadTranscriptToFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "page xml" {
		t.Errorf("file content = %q", data)
	}
}

func TestUploadTranscript(t *testing.T) {
	t.Run("with status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/collections/11/100/3/text" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("note") != "cleaned up" {
				t.Errorf("note = %q", q.Get("note"))
			}
			if q.Get("status") != "DONE" {
				t.Errorf("status = %q", q.Get("status"))
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != "<PcGts/>" {
				t.Errorf("body = %q", body)
			}
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL})
		err := client.UploadTranscript(context.Background(), "<PcGts/>", 11, 100, 3, "cleaned up", "DONE")
		if err != nil {
			t.Fatalf("UploadTranscript() error = %v", err)
		}
	})

	t.Run("empty status leaves page status unchanged", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.URL.Query()["status"]; ok {
				t.Error("status parameter should be omitted")
			}
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL})
		err := client.UploadTranscript(context.Background(), "<PcGts/>", 11, 100, 3, "note", "")
		if err != nil {
			t.Fatalf("UploadTranscript() error = %v", err)
		}
	})
}

func TestRemoveTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/11/100/3/delete" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "ABCDEF" {
			t.Errorf("key = %q", got)
		}
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	if err := client.RemoveTranscript(context.Background(), 11, 100, 3, "ABCDEF"); err != nil {
		t.Fatalf("RemoveTranscript() error = %v", err)
	}
}

func TestUpdatePageStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/11/100/3/5001/status" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("status") != "GT" {
			t.Errorf("status = %q", q.Get("status"))
		}
		if q.Get("note") != "ground truth" {
			t.Errorf("note = %q", q.Get("note"))
		}
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	if err := client.UpdatePageStatus(context.Background(), 11, 100, 3, 5001, "GT", "ground truth"); err != nil {
		t.Fatalf("UpdatePageStatus() error = %v", err)
	}
}
