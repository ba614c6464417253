package trp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Document is the full content of one document: metadata plus the page
// list with nested transcript versions.
type Document struct {
	Md       DocumentMeta `json:"md"`
	PageList PageList     `json:"pageList"`
}

// PageList wraps the pages array of a full document read.
type PageList struct {
	Pages []Page `json:"pages"`
}

// Page is one document page. PageNr is 1-based; Transcripts are ordered
// newest-first by platform convention (index 0 = latest).
type Page struct {
	PageID int            `json:"pageId"`
	PageNr int            `json:"pageNr"`
	TsList TranscriptList `json:"tsList"`
}

// Transcripts returns the page's transcript versions.
func (p Page) Transcripts() []Transcript {
	return p.TsList.Transcripts
}

// TranscriptList wraps the transcripts array of a page.
type TranscriptList struct {
	Transcripts []Transcript `json:"transcripts"`
}

// Transcript is one version of a page's content.
type Transcript struct {
	TsID      int    `json:"tsId"`
	Key       string `json:"key,omitempty"`
	PageID    int    `json:"pageId,omitempty"`
	PageNr    int    `json:"pageNr,omitempty"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch
	ToolName  string `json:"toolName,omitempty"`
	URL       string `json:"url"`
	FileName  string `json:"fileName,omitempty"`
}

// Time converts the millisecond timestamp to a time.Time.
func (t Transcript) Time() time.Time {
	return time.UnixMilli(t.Timestamp)
}

// GetDocument fetches the full content of one document. There is no
// local caching: batch iterations re-fetch so that transcript lists
// reflect jobs that completed in the meantime.
func (c *Client) GetDocument(ctx context.Context, colID, docID int) (*Document, error) {
	body, err := c.get(ctx, c.endpoint(fmt.Sprintf("/collections/%d/%d/fulldoc", colID, docID), nil))
	if err != nil {
		return nil, fmt.Errorf("failed to get document %d of collection %d: %w", docID, colID, err)
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document content: %w", err)
	}
	return &doc, nil
}
