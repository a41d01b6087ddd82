package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// HardwareList is the GET /api/v1/hardware response.
type HardwareList struct {
	Items []HardwareDTO `json:"items"`
	Total int           `json:"total"`
}

// ListHardware fetches a window of the hardware catalog.
func (c *Client) ListHardware(ctx context.Context, limit, offset int) (*HardwareList, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	resp, err := Send[HardwareList](ctx, c, Request{
		Method: http.MethodGet,
		Path:   "/api/v1/hardware",
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// CreateHardware creates a hardware item. The body accepts name, barcode,
// and arbitrary catalog fields.
func (c *Client) CreateHardware(ctx context.Context, payload map[string]any) (*HardwareDTO, error) {
	resp, err := Send[HardwareDTO](ctx, c, Request{
		Method: http.MethodPost,
		Path:   "/api/v1/hardware",
		Body:   payload,
	})
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// UpdateHardware patches a hardware item.
func (c *Client) UpdateHardware(ctx context.Context, id string, patch map[string]any) (*HardwareDTO, error) {
	resp, err := Send[HardwareDTO](ctx, c, Request{
		Method: http.MethodPatch,
		Path:   "/api/v1/hardware/" + id,
		Body:   patch,
	})
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}
