package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// InventoryReceiveRequest is the body of POST /api/v1/inventory/receive.
type InventoryReceiveRequest struct {
	Barcode         string  `json:"barcode"`
	Quantity        int     `json:"quantity"`
	AcquisitionCost *string `json:"acquisition_cost,omitempty"`
	Vendor          *string `json:"vendor,omitempty"`
	Note            *string `json:"note,omitempty"`
}

// TicketReference is a ticket id that may arrive as a bare number, a
// numeric string, or an {id} object.
type TicketReference struct {
	ID *int64
}

func (r *TicketReference) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		r.ID = &n
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if parsed, err := strconv.ParseInt(s, 10, 64); err == nil {
			r.ID = &parsed
		}
		return nil
	}
	var obj struct {
		ID *int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		r.ID = obj.ID
	}
	return nil
}

// InventoryAdjustmentDetail is the adjustment record embedded in receive and
// adjust responses. All fields are optional; the server populates different
// subsets depending on version.
type InventoryAdjustmentDetail struct {
	ID               *int64  `json:"id,omitempty"`
	Barcode          *string `json:"barcode,omitempty"`
	Quantity         *int    `json:"quantity,omitempty"`
	QuantityChange   *int    `json:"quantityChange,omitempty"`
	PreviousQuantity *int    `json:"previousQuantity,omitempty"`
	NewQuantity      *int    `json:"newQuantity,omitempty"`
	Note             *string `json:"note,omitempty"`
	Description      *string `json:"description,omitempty"`
	Message          *string `json:"message,omitempty"`
}

// InventoryReceiveResponse is the defensive decode of the receive/adjust
// response; shape varies by server version.
type InventoryReceiveResponse struct {
	Ticket     *TicketReference           `json:"ticket,omitempty"`
	TicketID   *int64                     `json:"ticketId,omitempty"`
	Adjustment *InventoryAdjustmentDetail `json:"adjustment,omitempty"`
	Event      *InventoryEventDTO         `json:"event,omitempty"`
	Message    *string                    `json:"message,omitempty"`
}

// Confirmation derives the user-facing title and message, picking the first
// meaningful field in a fixed priority order.
func (r *InventoryReceiveResponse) Confirmation() (title, message string) {
	if r == nil {
		return "Inventory Received", "Inventory received successfully."
	}
	if r.Ticket != nil && r.Ticket.ID != nil {
		return "Ticket Created", fmt.Sprintf("Ticket #%d created.", *r.Ticket.ID)
	}
	if r.TicketID != nil {
		return "Ticket Created", fmt.Sprintf("Ticket #%d created.", *r.TicketID)
	}

	if adj := r.Adjustment; adj != nil {
		if adj.Description != nil && *adj.Description != "" {
			return "Inventory Adjusted", *adj.Description
		}
		if adj.Message != nil && *adj.Message != "" {
			return "Inventory Adjusted", *adj.Message
		}
		if adj.Note != nil && *adj.Note != "" {
			return "Inventory Adjusted", *adj.Note
		}
		if adj.QuantityChange != nil && adj.NewQuantity != nil {
			return "Inventory Adjusted", fmt.Sprintf("Adjusted by %d to %d.", *adj.QuantityChange, *adj.NewQuantity)
		}
		if adj.PreviousQuantity != nil && adj.NewQuantity != nil {
			return "Inventory Adjusted", fmt.Sprintf("Quantity changed from %d to %d.", *adj.PreviousQuantity, *adj.NewQuantity)
		}
		if adj.Quantity != nil {
			unit := "items"
			if *adj.Quantity == 1 {
				unit = "item"
			}
			if adj.Barcode != nil && *adj.Barcode != "" {
				return "Inventory Adjusted", fmt.Sprintf("Received %d %s for %s.", *adj.Quantity, unit, *adj.Barcode)
			}
			return "Inventory Adjusted", fmt.Sprintf("Received %d %s.", *adj.Quantity, unit)
		}
	}

	if r.Message != nil && *r.Message != "" {
		return "Inventory Received", *r.Message
	}
	return "Inventory Received", "Inventory received successfully."
}

// AdjustInventory posts a quantity adjustment. The response may carry the
// authoritative event the server recorded, either bare or enveloped.
func (c *Client) AdjustInventory(ctx context.Context, req InventoryAdjustmentRequest) (*InventoryReceiveResponse, error) {
	resp, err := Send[json.RawMessage](ctx, c, Request{
		Method: http.MethodPost,
		Path:   "/api/v1/inventory/adjust",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	if resp.Value == nil {
		return nil, nil
	}
	return decodeAdjustResponse(*resp.Value)
}

// decodeAdjustResponse accepts both adjust response generations: newer
// servers answer with the recorded event itself, older ones wrap it in an
// envelope alongside adjustment and ticket details.
func decodeAdjustResponse(body json.RawMessage) (*InventoryReceiveResponse, error) {
	var event InventoryEventDTO
	if err := json.Unmarshal(body, &event); err == nil && event.ID != "" {
		return &InventoryReceiveResponse{Event: &event}, nil
	}
	var envelope InventoryReceiveResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &DecodingError{cause: err}
	}
	return &envelope, nil
}

// ReceiveInventory posts a receipt of stock by barcode. Blank optional
// fields are omitted.
func (c *Client) ReceiveInventory(ctx context.Context, req InventoryReceiveRequest) (*InventoryReceiveResponse, error) {
	req.Barcode = strings.TrimSpace(req.Barcode)
	req.AcquisitionCost = trimOptional(req.AcquisitionCost)
	req.Vendor = trimOptional(req.Vendor)
	req.Note = trimOptional(req.Note)

	resp, err := Send[InventoryReceiveResponse](ctx, c, Request{
		Method: http.MethodPost,
		Path:   "/api/v1/inventory/receive",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
