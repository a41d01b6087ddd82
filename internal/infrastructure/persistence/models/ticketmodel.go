package models

import "time"

// Ticket status values as the server reports them.
const (
	TicketStatusOpen     = "open"
	TicketStatusPending  = "pending"
	TicketStatusResolved = "resolved"
	TicketStatusClosed   = "closed"
)

// TicketModel is a locally cached ticket. ClientID is a weak reference: it
// may point at a client that has not been synced yet, or that was deleted
// locally; both leave the pointer unresolved until the next client sync.
type TicketModel struct {
	ID        string  `gorm:"primaryKey;size:64"`
	Number    string  `gorm:"size:50;not null;index"`
	Title     string  `gorm:"size:200;not null"`
	Status    string  `gorm:"size:20;not null;index"`
	ClientID  *string `gorm:"size:64;index"`
	Assignee  *string `gorm:"size:100"`
	Details   *string `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;index"`
}

func (TicketModel) TableName() string {
	return "tickets"
}

// AttachmentModel is exclusively owned by one ticket and cascade-deleted
// with it (enforced by the repository, not the database).
type AttachmentModel struct {
	ID           string `gorm:"primaryKey;size:64"`
	TicketID     string `gorm:"size:64;not null;index"`
	FileName     string `gorm:"size:255;not null"`
	ContentType  string `gorm:"size:100;not null"`
	Size         int64  `gorm:"not null"`
	DownloadURL  string `gorm:"size:2048;not null"`
	ThumbnailURL *string `gorm:"size:2048"`
}

func (AttachmentModel) TableName() string {
	return "ticket_attachments"
}
