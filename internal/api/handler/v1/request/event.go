package request

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

type TicketTypeRequest struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	MaxQuantity int    `json:"max_quantity"`
}

type CreateEventRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Location    string              `json:"location"`
	StartsAt    string              `json:"starts_at"` // RFC 3339
	EndsAt      string              `json:"ends_at,omitempty"`
	TicketTypes []TicketTypeRequest `json:"ticket_types"`
}

func (req *CreateEventRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Location, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.StartsAt, validation.Required),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.TicketTypes, validation.Required),
	)
	if err != nil {
		return err
	}

	for _, tt := range req.TicketTypes {
		if err := validation.ValidateStruct(&tt,
			validation.Field(&tt.Name, validation.Required, validation.Length(1, 50)),
			validation.Field(&tt.Price, validation.Min(0)),
			validation.Field(&tt.MaxQuantity, validation.Required, validation.Min(1)),
		); err != nil {
			return err
		}
	}

	return nil
}

type CreateCouponRequest struct {
	Code          string `json:"code"`
	DiscountType  string `json:"discount_type"`
	DiscountValue int64  `json:"discount_value"`
	MinPurchase   int64  `json:"min_purchase"`
	MaxUses       int    `json:"max_uses"`
	ValidFrom     string `json:"valid_from"`  // RFC 3339
	ValidUntil    string `json:"valid_until"` // RFC 3339
}

func (req *CreateCouponRequest) Validate() error {
	if req.DiscountType == "percentage" && (req.DiscountValue < 0 || req.DiscountValue > 100) {
		return errors.New("percentage discount must be between 0 and 100")
	}

	return validation.ValidateStruct(
		req,
		validation.Field(&req.Code, validation.Required, validation.Length(3, 30)),
		validation.Field(&req.DiscountType, validation.Required, validation.In("percentage", "fixed")),
		validation.Field(&req.DiscountValue, validation.Required, validation.Min(1)),
		validation.Field(&req.MinPurchase, validation.Min(0)),
		validation.Field(&req.MaxUses, validation.Required, validation.Min(1)),
		validation.Field(&req.ValidFrom, validation.Required),
		validation.Field(&req.ValidUntil, validation.Required),
	)
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

func (req *CreateReviewRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Rating, validation.Required, validation.Min(1), validation.Max(5)),
		validation.Field(&req.Comment, validation.Length(0, 1000)),
	)
}
