package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew         TicketStatus = "new"
	TicketStatusAssigned    TicketStatus = "assigned"
	TicketStatusInProgress  TicketStatus = "in_progress"
	TicketStatusPendingUser TicketStatus = "pending_user"
	TicketStatusResolved    TicketStatus = "resolved"
	TicketStatusClosed      TicketStatus = "closed"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// TicketCategory enumerates the portal's issue categories. The category
// decides which detail fields a ticket must carry.
type TicketCategory string

const (
	CategoryHardware       TicketCategory = "hardware"
	CategorySoftware       TicketCategory = "software"
	CategoryNetwork        TicketCategory = "network"
	CategoryAccount        TicketCategory = "account"
	CategoryRDSERP         TicketCategory = "rds_erp"
	CategoryLabSoftware    TicketCategory = "lab_software"
	CategoryLabRequisition TicketCategory = "lab_requisition"
	CategoryOther          TicketCategory = "other"
)

// Categories lists every valid ticket category.
func Categories() []TicketCategory {
	return []TicketCategory{
		CategoryHardware,
		CategorySoftware,
		CategoryNetwork,
		CategoryAccount,
		CategoryRDSERP,
		CategoryLabSoftware,
		CategoryLabRequisition,
		CategoryOther,
	}
}

// TicketDetails carries category-specific fields. Which of these are
// required is decided by the rules package, not here.
type TicketDetails struct {
	AssetID         string
	OSVersion       string
	LabName         string
	SoftwareName    string
	RequisitionType string
	ContactMethod   string
}

// Ticket is the aggregate for helpdesk requests.
type Ticket struct {
	ID          string
	ExternalKey string
	RequesterID string
	AssigneeID  *string
	Title       string
	Description string
	Category    TicketCategory
	Priority    TicketPriority
	Status      TicketStatus
	LabRelated  bool
	Details     TicketDetails
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    *time.Time
}

// Open reports whether the ticket still counts against its SLA.
func (t *Ticket) Open() bool {
	return t.Status != TicketStatusResolved && t.Status != TicketStatusClosed
}
