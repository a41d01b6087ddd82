package api

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// SyncQuery carries the paging parameters for an incremental list request.
type SyncQuery struct {
	Limit        int
	Page         int
	UpdatedSince *time.Time
	Cursor       *string
	// IfNoneMatch sends a conditional request; the server answers 304 when
	// the collection is unchanged.
	IfNoneMatch string
}

// ListPage fetches one page of a paged collection.
func ListPage[T any](ctx context.Context, c *Client, path string, q SyncQuery) (*Response[PagedResponse[T]], error) {
	query := url.Values{}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.UpdatedSince != nil {
		query.Set("updated_since", q.UpdatedSince.UTC().Format(time.RFC3339Nano))
	}
	if q.Cursor != nil && *q.Cursor != "" {
		query.Set("cursor", *q.Cursor)
	}

	req := Request{
		Method: "GET",
		Path:   path,
		Query:  query,
	}
	if q.IfNoneMatch != "" {
		req.Header = make(map[string][]string)
		req.Header["If-None-Match"] = []string{q.IfNoneMatch}
	}

	return Send[PagedResponse[T]](ctx, c, req)
}
