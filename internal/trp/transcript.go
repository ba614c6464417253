package trp

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/avast/retry-go/v4"
)

// DownloadTranscript fetches the raw PAGE XML content of a transcript by
// its content URL. Server errors and connection loss are retried with a
// fixed delay up to the configured attempt count; exhausting the budget
// surfaces the last error instead of swallowing it.
func (c *Client) DownloadTranscript(ctx context.Context, contentURL string) (string, error) {
	var body []byte
	err := retry.Do(
		func() error {
			var err error
			body, err = c.get(ctx, contentURL)
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
		return "", fmt.Errorf("failed to download transcript %s: %w", contentURL, err)
	}
	return string(body), nil
}

// DownloadTranscriptToFile downloads transcript content and writes it to
// path, with the same retry behaviour as DownloadTranscript.
func (c *Client) DownloadTranscriptToFile(ctx context.Context, contentURL, path string) error {
	content, err := c.DownloadTranscript(ctx, contentURL)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write transcript to %s: %w", path, err)
	}
	return nil
}

// UploadTranscript commits edited page content as a new transcript
// version. An empty status leaves the page status unchanged.
func (c *Client) UploadTranscript(ctx context.Context, content string, colID, docID, pageNr int, comment, status string) error {
	params := url.Values{}
	params.Set("note", comment)
	if status != "" {
		params.Set("status", status)
	}

	endpoint := c.endpoint(fmt.Sprintf("/collections/%d/%d/%d/text", colID, docID, pageNr), params)
	if _, err := c.post(ctx, endpoint, "application/xml", strings.NewReader(content)); err != nil {
		return fmt.Errorf("failed to upload transcript for page %d of document %d: %w", pageNr, docID, err)
	}
	return nil
}

// UpdatePageStatus sets the status of one transcript version.
func (c *Client) UpdatePageStatus(ctx context.Context, colID, docID, pageNr, tsID int, status, comment string) error {
	params := url.Values{}
	params.Set("note", comment)
	params.Set("status", status)

	endpoint := c.endpoint(fmt.Sprintf("/collections/%d/%d/%d/%d/status", colID, docID, pageNr, tsID), params)
	if _, err := c.post(ctx, endpoint, "", nil); err != nil {
		return fmt.Errorf("failed to update status of page %d of document %d: %w", pageNr, docID, err)
	}
	return nil
}

// RemoveTranscript deletes one transcript version identified by its key.
func (c *Client) RemoveTranscript(ctx context.Context, colID, docID, pageNr int, key string) error {
	params := url.Values{}
	params.Set("key", key)

	endpoint := c.endpoint(fmt.Sprintf("/collections/%d/%d/%d/delete", colID, docID, pageNr), params)
	if _, err := c.post(ctx, endpoint, "", nil); err != nil {
		return fmt.Errorf("failed to remove transcript %s of page %d: %w", key, pageNr, err)
	}
	return nil
}
