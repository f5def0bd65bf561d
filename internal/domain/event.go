package domain

import "time"

type Event struct {
	ID             uint         `json:"id"`
	OrganizerID    uint         `json:"organizer_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Category       string       `json:"category"`
	Location       string       `json:"location"`
	StartsAt       time.Time    `json:"starts_at"`
	EndsAt         *time.Time   `json:"ends_at,omitempty"`
	TotalCapacity  int          `json:"total_capacity"`
	AvailableSeats int          `json:"available_seats"`
	TicketTypes    []TicketType `json:"ticket_types,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Finished reports whether the event is over, using EndsAt when set
// and StartsAt otherwise.
func (e Event) Finished(now time.Time) bool {
	if e.EndsAt != nil {
		return now.After(*e.EndsAt)
	}
	return now.After(e.StartsAt)
}

type TicketType struct {
	ID          uint      `json:"id"`
	EventID     uint      `json:"event_id"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"` // IDR, no minor units
	MaxQuantity int       `json:"max_quantity"`
	Sold        int       `json:"sold"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t TicketType) Available() int {
	return t.MaxQuantity - t.Sold
}
