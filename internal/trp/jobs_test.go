package trp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitLayoutAnalysis(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/LA" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("collId") != "11" {
			t.Errorf("collId = %q", q.Get("collId"))
		}
		if q.Get("jobImpl") != "P2PaLAJob" {
			t.Errorf("jobImpl = %q", q.Get("jobImpl"))
		}
		if q.Get("doBlockSeg") != "true" || q.Get("doLineSeg") != "true" {
			t.Errorf("segmentation flags = %q/%q", q.Get("doBlockSeg"), q.Get("doLineSeg"))
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(`[{"jobId": "777"}]`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	params := LayoutAnalysisParams{
		ModelID:    55,
		ModelName:  "regions & things",
		MinArea:    0.01,
		JobImpl:    "P2PaLAJob",
		DoBlockSeg: true,
		DoLineSeg:  true,
	}
	jobID, err := client.SubmitLayoutAnalysis(context.Background(), params, 11, 100, []int{1000, 1001})
	if err != nil {
		t.Fatalf("SubmitLayoutAnalysis() error = %v", err)
	}
	if jobID != 777 {
		t.Errorf("jobID = %d, want 777", jobID)
	}

	for _, want := range []string{
		"<docId>100</docId>",
		"<pageId>1000</pageId>",
		"<pageId>1001</pageId>",
		"<key>modelId</key><value>55</value>",
		// The ampersand in the model name must be escaped.
		"<value>regions &amp; things</value>",
		"<key>--min_area</key><value>0.01</value>",
	} {
		if !strings.Contains(gotBody, want) {
			t.Errorf("request body missing %q\nbody: %s", want, gotBody)
		}
	}
	if !strings.HasPrefix(gotBody, "<?xml") {
		t.Error("request body should start with an XML declaration")
	}
}

func TestSubmitLayoutAnalysis_OmitRegionParams(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(`{"jobId": "778"}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	params := DefaultLayoutAnalysisParams()
	params.ModelID = 56
	params.OmitRegionParams = true
	params.Extra = []ParamEntry{{Key: "pars.max_d", Value: "250"}}

	jobID, err := client.SubmitLayoutAnalysis(context.Background(), params, 11, 100, []int{1000})
	if err != nil {
		t.Fatalf("SubmitLayoutAnalysis() error = %v", err)
	}
	if jobID != 778 {
		t.Errorf("jobID = %d, want 778", jobID)
	}
	if strings.Contains(gotBody, "--min_area") {
		t.Error("region parameters should be omitted")
	}
	if !strings.Contains(gotBody, "<key>pars.max_d</key><value>250</value>") {
		t.Errorf("extra entry missing from body: %s", gotBody)
	}
}

func TestParseLayoutJobID(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"array of jobs", `[{"jobId": "123"}]`, 123, false},
		{"single object", `{"jobId": 456}`, 456, false},
		{"numeric id in array", `[{"jobId": 789}]`, 789, false},
		{"empty array", `[]`, 0, true},
		{"garbage", `oops`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLayoutJobID([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLayoutJobID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("jobID = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSubmitTextRecognition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pylaia/11/90/recognition" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("id") != "100" {
			t.Errorf("id = %q", q.Get("id"))
		}
		if q.Get("pages") != "1,2,5" {
			t.Errorf("pages = %q", q.Get("pages"))
		}
		if q.Get("languageModel") != "trainDataLanguageModel" {
			t.Errorf("languageModel = %q", q.Get("languageModel"))
		}
		if q.Get("batchSize") != "10" {
			t.Errorf("batchSize = %q", q.Get("batchSize"))
		}
		if q.Get("b2pBackend") != "Legacy" {
			t.Errorf("b2pBackend = %q", q.Get("b2pBackend"))
		}
		w.Write([]byte(" 901 \n"))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL})
	jobID, err := client.SubmitTextRecognition(context.Background(), RecognitionParams{ModelID: 90}, 11, 100, "1,2,5")
	if err != nil {
		t.Fatalf("SubmitTextRecognition() error = %v", err)
	}
	if jobID != 901 {
		t.Errorf("jobID = %d, want 901", jobID)
	}
}

func TestWaitForJob(t *testing.T) {
	t.Run("polls until finished", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/jobs/777" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			state := "RUNNING"
			if calls.Add(1) >= 3 {
				state = JobStateFinished
			}
			fmt.Fprintf(w, `{"jobId": "777", "state": %q}`, state)
		}))
		defer server.Close()

		client := New(Config{
			BaseURL:      server.URL,
			PollInterval: time.Millisecond,
			PollTimeout:  time.Second,
		})
		if err := client.WaitForJob(context.Background(), 777); err != nil {
			t.Fatalf("WaitForJob() error = %v", err)
		}
		if calls.Load() != 3 {
			t.Errorf("status calls = %d, want 3", calls.Load())
		}
	})

	t.Run("failed job is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"jobId": "777", "state": "FAILED", "description": "model crashed"}`))
		}))
		defer server.Close()

		client := New(Config{BaseURL: server.URL, PollInterval: time.Millisecond})
		err := client.WaitForJob(context.Background(), 777)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "FAILED") || !strings.Contains(err.Error(), "model crashed") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("returns ErrJobTimeout when the deadline passes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"jobId": "777", "state": "RUNNING"}`))
		}))
		defer server.Close()

		client := New(Config{
			BaseURL:      server.URL,
			PollInterval: time.Millisecond,
			PollTimeout:  10 * time.Millisecond,
		})
		err := client.WaitForJob(context.Background(), 777)
		if !errors.Is(err, ErrJobTimeout) {
			t.Fatalf("expected ErrJobTimeout, got %v", err)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"jobId": "777", "state": "RUNNING"}`))
		}))
		defer server.Close()

		client := New(Config{
			BaseURL:      server.URL,
			PollInterval: time.Hour,
			PollTimeout:  time.Hour,
		})
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		if err := client.WaitForJob(ctx, 777); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestJobTerminal(t *testing.T) {
	for state, want := range map[string]bool{
		JobStateFinished: true,
		JobStateFailed:   true,
		JobStateCanceled: true,
		"RUNNING":        false,
		"WAITING":        false,
	} {
		if got := (Job{State: state}).Terminal(); got != want {
			t.Errorf("Terminal() for %s = %v, want %v", state, got, want)
		}
	}
}
