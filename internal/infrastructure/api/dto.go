package api

import "time"

// Wire-format records as the tracker API returns them. The sync endpoints
// use camelCase field names; the client-record and auth endpoints use
// snake_case (the server is inconsistent and both shapes are load-bearing).

type TicketDTO struct {
	ID          string          `json:"id"`
	Number      string          `json:"number"`
	Title       string          `json:"title"`
	Status      string          `json:"status"`
	ClientID    string          `json:"clientId"`
	Assignee    *string         `json:"assignee,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	CreatedAt   time.Time       `json:"createdAt"`
	Description *string         `json:"description,omitempty"`
	Attachments []AttachmentDTO `json:"attachments"`
}

type AttachmentDTO struct {
	ID           string  `json:"id"`
	FileName     string  `json:"fileName"`
	ContentType  string  `json:"contentType"`
	Size         int64   `json:"size"`
	DownloadURL  string  `json:"downloadURL"`
	ThumbnailURL *string `json:"thumbnailURL,omitempty"`
}

type ClientDTO struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Email            *string           `json:"email,omitempty"`
	Phone            *string           `json:"phone,omitempty"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	CustomAttributes map[string]string `json:"customAttributes,omitempty"`
}

type HardwareDTO struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Barcode              string     `json:"barcode"`
	QuantityOnHand       int        `json:"quantityOnHand"`
	UpdatedAt            time.Time  `json:"updatedAt"`
	LastInventoryEventAt *time.Time `json:"lastInventoryEventAt,omitempty"`
}

type InventoryEventDTO struct {
	ID           string    `json:"id"`
	HardwareID   string    `json:"hardwareId"`
	Delta        int       `json:"delta"`
	Balance      int       `json:"balance"`
	Note         *string   `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	PendingRetry bool      `json:"pendingRetry"`
}

// PagedResponse is one page of an incrementally synced collection.
// NextCursor is nil on the final page.
type PagedResponse[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// InventoryAdjustmentRequest is the body of POST /api/v1/inventory/adjust.
type InventoryAdjustmentRequest struct {
	HardwareID string  `json:"hardwareId"`
	Quantity   int     `json:"quantity"`
	Note       *string `json:"note,omitempty"`
	Barcode    string  `json:"barcode"`
}
