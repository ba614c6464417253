package trp

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// ParamEntry is one key/value job parameter.
type ParamEntry struct {
	Key   string `xml:"key"`
	Value string `xml:"value"`
}

// jobParameters is the XML request body of a layout analysis submission.
// The platform expects <docs> items carrying a docId plus a pageList of
// <pages><pageId> elements, followed by a flat <entry> parameter list.
type jobParameters struct {
	XMLName xml.Name   `xml:"jobParameters"`
	DocList jobDocList `xml:"docList"`
	Params  jobParams  `xml:"params"`
}

type jobDocList struct {
	Docs []jobDoc `xml:"docs"`
}

type jobDoc struct {
	DocID int       `xml:"docId"`
	Pages []jobPage `xml:"pageList>pages"`
}

type jobPage struct {
	PageID int `xml:"pageId"`
}

type jobParams struct {
	Entries []ParamEntry `xml:"entry"`
}

// LayoutAnalysisParams describes a layout analysis job. The region
// detection fields map to the parameter entries a P2PaLA-style job
// expects; jobs that only take a model plus tool-specific tuning (the
// line finder) set OmitRegionParams and pass their keys through Extra.
type LayoutAnalysisParams struct {
	ModelID   int
	ModelName string

	MinArea                      float64
	RectifyRegions               bool
	EnrichExistingTranscriptions bool
	LabelRegions                 bool
	LabelLines                   bool
	LabelWords                   bool
	KeepExistingRegions          bool
	OmitRegionParams             bool

	// Extra entries are appended verbatim to the parameter list, for
	// example the line finder's pars.* keys.
	Extra []ParamEntry

	JobImpl          string
	DoBlockSeg       bool
	DoLineSeg        bool
	DoWordSeg        bool
	DoCreateJobBatch bool
}

// DefaultLayoutAnalysisParams returns the platform defaults: the stock
// layout analysis job with line segmentation only.
func DefaultLayoutAnalysisParams() LayoutAnalysisParams {
	return LayoutAnalysisParams{
		MinArea:        0.01,
		RectifyRegions: true,
		JobImpl:        "TranskribusLaJob",
		DoLineSeg:      true,
	}
}

// entries assembles the ordered parameter list of the request body.
func (p LayoutAnalysisParams) entries() []ParamEntry {
	entries := []ParamEntry{
		{Key: "modelId", Value: strconv.Itoa(p.ModelID)},
		{Key: "modelName", Value: p.ModelName},
	}
	if !p.OmitRegionParams {
		entries = append(entries,
			ParamEntry{Key: "--min_area", Value: strconv.FormatFloat(p.MinArea, 'g', -1, 64)},
			ParamEntry{Key: "--rectify_regions", Value: strconv.FormatBool(p.RectifyRegions)},
			ParamEntry{Key: "enrichExistingTranscriptions", Value: strconv.FormatBool(p.EnrichExistingTranscriptions)},
			ParamEntry{Key: "labelRegions", Value: strconv.FormatBool(p.LabelRegions)},
			ParamEntry{Key: "labelLines", Value: strconv.FormatBool(p.LabelLines)},
			ParamEntry{Key: "labelWords", Value: strconv.FormatBool(p.LabelWords)},
			ParamEntry{Key: "keepExistingRegions", Value: strconv.FormatBool(p.KeepExistingRegions)},
		)
	}
	return append(entries, p.Extra...)
}

// RecognitionParams describes a text recognition (HTR) job. Zero values
// are replaced by the platform defaults in SubmitTextRecognition.
type RecognitionParams struct {
	ModelID                     int
	LanguageModel               string
	DoLinePolygonSimplification *bool
	KeepOriginalLinePolygons    bool
	WriteKwsIndex               bool
	NBest                       int
	UseExistingLinePolygons     bool
	BatchSize                   int
	ClearLines                  *bool
	DoWordSeg                   *bool
	DoNotDeleteWorkDir          bool
	B2PBackend                  string
}

// DefaultRecognitionParams returns the platform defaults for HTR jobs.
func DefaultRecognitionParams() RecognitionParams {
	return RecognitionParams{
		LanguageModel:               "trainDataLanguageModel",
		DoLinePolygonSimplification: boolPtr(true),
		NBest:                       1,
		BatchSize:                   10,
		ClearLines:                  boolPtr(true),
		DoWordSeg:                   boolPtr(true),
		B2PBackend:                  "Legacy",
	}
}

func boolPtr(b bool) *bool { return &b }

func boolOr(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}

// Job is the platform's job status record. Only the fields the polling
// loop needs are decoded.
type Job struct {
	JobID       json.Number `json:"jobId"`
	DocID       int         `json:"docId"`
	Type        string      `json:"type"`
	State       string      `json:"state"`
	Description string      `json:"description"`
	Success     bool        `json:"success"`
}

// Terminal reports whether the job reached a final state.
func (j Job) Terminal() bool {
	switch j.State {
	case JobStateFinished, JobStateFailed, JobStateCanceled:
		return true
	}
	return false
}

// SubmitLayoutAnalysis starts a layout analysis job for the given pages
// of one document and returns the job ID. The request body is built with
// the XML marshaller, so model names and parameter values are escaped.
func (c *Client) SubmitLayoutAnalysis(ctx context.Context, p LayoutAnalysisParams, colID, docID int, pageIDs []int) (int, error) {
	doc := jobDoc{DocID: docID}
	for _, id := range pageIDs {
		doc.Pages = append(doc.Pages, jobPage{PageID: id})
	}
	body, err := xml.Marshal(jobParameters{
		DocList: jobDocList{Docs: []jobDoc{doc}},
		Params:  jobParams{Entries: p.entries()},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal job parameters: %w", err)
	}
	body = append([]byte(xml.Header), body...)

	jobImpl := p.JobImpl
	if jobImpl == "" {
		jobImpl = "TranskribusLaJob"
	}
	params := url.Values{}
	params.Set("collId", strconv.Itoa(colID))
	params.Set("doBlockSeg", strconv.FormatBool(p.DoBlockSeg))
	params.Set("doLineSeg", strconv.FormatBool(p.DoLineSeg))
	params.Set("doWordSeg", strconv.FormatBool(p.DoWordSeg))
	params.Set("jobImpl", jobImpl)
	params.Set("doCreateJobBatch", strconv.FormatBool(p.DoCreateJobBatch))

	resp, err := c.post(ctx, c.endpoint("/LA", params), "application/xml", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to submit layout analysis for document %d: %w", docID, err)
	}

	jobID, err := parseLayoutJobID(resp)
	if err != nil {
		return 0, fmt.Errorf("failed to parse layout analysis response: %w", err)
	}
	return jobID, nil
}

// layoutJobResponse is one job descriptor of the /LA response.
type layoutJobResponse struct {
	JobID json.Number `json:"jobId"`
}

// parseLayoutJobID extracts the job ID from the submission response,
// which is either a list of job descriptors or a single one.
func parseLayoutJobID(body []byte) (int, error) {
	var jobs []layoutJobResponse
	if err := json.Unmarshal(body, &jobs); err == nil && len(jobs) > 0 {
		if id, err := strconv.Atoi(jobs[0].JobID.String()); err == nil {
			return id, nil
		}
	}
	var job layoutJobResponse
	if err := json.Unmarshal(body, &job); err == nil {
		if id, err := strconv.Atoi(job.JobID.String()); err == nil {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no job id in response: %s", string(body))
}

// SubmitTextRecognition starts a text recognition job for a delimited
// page number string (for example "1,2,5") and returns the job ID.
func (c *Client) SubmitTextRecognition(ctx context.Context, p RecognitionParams, colID, docID int, pages string) (int, error) {
	defaults := DefaultRecognitionParams()
	if p.LanguageModel == "" {
		p.LanguageModel = defaults.LanguageModel
	}
	if p.NBest == 0 {
		p.NBest = defaults.NBest
	}
	if p.BatchSize == 0 {
		p.BatchSize = defaults.BatchSize
	}
	if p.B2PBackend == "" {
		p.B2PBackend = defaults.B2PBackend
	}

	params := url.Values{}
	params.Set("languageModel", p.LanguageModel)
	params.Set("id", strconv.Itoa(docID))
	params.Set("pages", pages)
	params.Set("doLinePolygonSimplification", strconv.FormatBool(boolOr(p.DoLinePolygonSimplification, true)))
	params.Set("keepOriginalLinePolygons", strconv.FormatBool(p.KeepOriginalLinePolygons))
	params.Set("writeKwsIndex", strconv.FormatBool(p.WriteKwsIndex))
	params.Set("nBest", strconv.Itoa(p.NBest))
	params.Set("useExistingLinePolygons", strconv.FormatBool(p.UseExistingLinePolygons))
	params.Set("batchSize", strconv.Itoa(p.BatchSize))
	params.Set("clearLines", strconv.FormatBool(boolOr(p.ClearLines, true)))
	params.Set("doWordSeg", strconv.FormatBool(boolOr(p.DoWordSeg, true)))
	params.Set("doNotDeleteWorkDir", strconv.FormatBool(p.DoNotDeleteWorkDir))
	params.Set("b2pBackend", p.B2PBackend)

	endpoint := c.endpoint(fmt.Sprintf("/pylaia/%d/%d/recognition", colID, p.ModelID), params)
	resp, err := c.post(ctx, endpoint, "", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to submit text recognition for document %d: %w", docID, err)
	}

	jobID, err := strconv.Atoi(strings.TrimSpace(string(resp)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse text recognition job id %q: %w", string(resp), err)
	}
	return jobID, nil
}

// JobStatus queries the current state of one job. Transient failures are
// retried with a fixed delay so that a long poll survives server hiccups.
func (c *Client) JobStatus(ctx context.Context, jobID int) (*Job, error) {
	var body []byte
	err := retry.Do(
		func() error {
			var err error
			body, err = c.get(ctx, c.endpoint(fmt.Sprintf("/jobs/%d", jobID), nil))
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.downloadAttempts),
		retry.Delay(c.downloadDelay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query status of job %d: %w", jobID, err)
	}

	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("failed to parse status of job %d: %w", jobID, err)
	}
	return &job, nil
}

// WaitForJob polls the job status on the configured interval until the
// job finishes. A FAILED or CANCELED state is an error, and a job still
// running after the poll timeout returns ErrJobTimeout rather than
// blocking forever.
func (c *Client) WaitForJob(ctx context.Context, jobID int) error {
	deadline := time.Now().Add(c.pollTimeout)
	for {
		job, err := c.JobStatus(ctx, jobID)
		if err != nil {
			return err
		}
		switch job.State {
		case JobStateFinished:
			return nil
		case JobStateFailed, JobStateCanceled:
			return fmt.Errorf("job %d ended in state %s: %s", jobID, job.State, job.Description)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("job %d still %s after %s: %w", jobID, job.State, c.pollTimeout, ErrJobTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}
