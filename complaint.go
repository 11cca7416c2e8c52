package bantay

import (
	"time"

	"github.com/google/uuid"
)

// Complaint is a citizen complaint filed against the enforcement office.
// Complaints are managed by an external intake system; this engine only
// reads them when computing analytics windows.
type Complaint struct {
	ID           uuid.UUID       `json:"id"`
	Jurisdiction string          `json:"jurisdiction,omitempty"`
	Subject      string          `json:"subject,omitempty"`
	Status       ComplaintStatus `json:"status"`
	FiledAt      time.Time       `json:"filedAt"`
	ResolvedAt   *time.Time      `json:"resolvedAt,omitempty"`
}

// ComplaintStatus represents the intake status of a complaint.
type ComplaintStatus string

const (
	ComplaintReceived           ComplaintStatus = "received"
	ComplaintUnderInvestigation ComplaintStatus = "under_investigation"
	ComplaintResolved           ComplaintStatus = "resolved"
	ComplaintDismissed          ComplaintStatus = "dismissed"
)
