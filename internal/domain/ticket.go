package domain

import "time"

type TicketStatus string

const (
	TicketActive    TicketStatus = "active"
	TicketUsed      TicketStatus = "used"
	TicketCancelled TicketStatus = "cancelled"
)

// Ticket is issued only once its transaction reaches CONFIRMED. Its
// lifecycle is independent of the transaction's from then on.
type Ticket struct {
	ID            uint         `json:"id"`
	TransactionID uint         `json:"transaction_id"`
	TicketTypeID  uint         `json:"ticket_type_id"`
	OwnerID       uint         `json:"owner_id"`
	Code          string       `json:"code"`
	Status        TicketStatus `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
