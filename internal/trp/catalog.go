package trp

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection is one entry of the account's collection listing.
type Collection struct {
	ColID         int    `json:"colId"`
	ColName       string `json:"colName"`
	Description   string `json:"description,omitempty"`
	NrOfDocuments int    `json:"nrOfDocuments,omitempty"`
}

// DocumentMeta is one entry of a collection's document listing. The same
// shape appears as the "md" block of a full document read.
type DocumentMeta struct {
	DocID     int    `json:"docId"`
	Title     string `json:"title"`
	NrOfPages int    `json:"nrOfPages"`
	ColID     int    `json:"collectionId,omitempty"`
}

// ListCollections returns all collections available to the account.
func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	body, err := c.get(ctx, c.endpoint("/collections/list", nil))
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	var collections []Collection
	if err := json.Unmarshal(body, &collections); err != nil {
		return nil, fmt.Errorf("failed to parse collection list: %w", err)
	}
	return collections, nil
}

// ListDocuments returns the documents of one collection.
func (c *Client) ListDocuments(ctx context.Context, colID int) ([]DocumentMeta, error) {
	body, err := c.get(ctx, c.endpoint(fmt.Sprintf("/collections/%d/list", colID), nil))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents of collection %d: %w", colID, err)
	}

	var docs []DocumentMeta
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse document list: %w", err)
	}
	return docs, nil
}

// ResolveCollectionID scans the collection listing for an exact name
// match. A missing name yields ErrNotFound, which callers can tell apart
// from a failed listing request.
func (c *Client) ResolveCollectionID(ctx context.Context, name string) (int, error) {
	collections, err := c.ListCollections(ctx)
	if err != nil {
		return 0, err
	}
	for _, col := range collections {
		if col.ColName == name {
			return col.ColID, nil
		}
	}
	return 0, fmt.Errorf("collection %q: %w", name, ErrNotFound)
}

// ResolveDocumentID scans a document listing for an exact title match.
func ResolveDocumentID(docs []DocumentMeta, title string) (int, error) {
	for _, doc := range docs {
		if doc.Title == title {
			return doc.DocID, nil
		}
	}
	return 0, fmt.Errorf("document %q: %w", title, ErrNotFound)
}
