package api

import (
	"context"
	"net/http"
	"net/url"
)

// NewTicket is the body of POST /api/v1/tickets.
type NewTicket struct {
	ClientID    string  `json:"clientId"`
	Title       string  `json:"title"`
	Status      string  `json:"status,omitempty"`
	Assignee    *string `json:"assignee,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ListActiveTickets fetches the unpaginated active-ticket list, optionally
// filtered by client key.
func (c *Client) ListActiveTickets(ctx context.Context, clientKey string) ([]TicketDTO, error) {
	query := url.Values{}
	if clientKey != "" {
		query.Set("client_key", clientKey)
	}
	resp, err := Send[[]TicketDTO](ctx, c, Request{
		Method: http.MethodGet,
		Path:   "/api/v1/tickets/active",
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	if resp.Value == nil {
		return nil, nil
	}
	return *resp.Value, nil
}

// CreateTicket creates a ticket and returns the server's record.
func (c *Client) CreateTicket(ctx context.Context, ticket NewTicket) (*TicketDTO, error) {
	resp, err := Send[TicketDTO](ctx, c, Request{
		Method: http.MethodPost,
		Path:   "/api/v1/tickets",
		Body:   ticket,
	})
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// UpdateTicket patches a ticket with an arbitrary field map.
func (c *Client) UpdateTicket(ctx context.Context, id string, patch map[string]any) (*TicketDTO, error) {
	resp, err := Send[TicketDTO](ctx, c, Request{
		Method: http.MethodPatch,
		Path:   "/api/v1/tickets/" + id,
		Body:   patch,
	})
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// MarkCompleted resolves or reopens a ticket.
func (c *Client) MarkCompleted(ctx context.Context, id string, completed bool) (*TicketDTO, error) {
	status := "open"
	if completed {
		status = "resolved"
	}
	return c.UpdateTicket(ctx, id, map[string]any{"status": status})
}

// DeleteTicket removes a ticket remotely.
func (c *Client) DeleteTicket(ctx context.Context, id string) error {
	return SendDiscard(ctx, c, Request{
		Method: http.MethodDelete,
		Path:   "/api/v1/tickets/" + id,
	})
}
