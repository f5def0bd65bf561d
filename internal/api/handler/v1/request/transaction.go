package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CheckoutItemRequest struct {
	TicketTypeID uint `json:"ticket_type_id"`
	Quantity     int  `json:"quantity"`
}

type CreateTransactionRequest struct {
	EventID     uint                  `json:"event_id"`
	Items       []CheckoutItemRequest `json:"items"`
	PointsUsed  int64                 `json:"points_used,omitempty"`
	VoucherCode string                `json:"voucher_code,omitempty"`
}

func (req *CreateTransactionRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.EventID, validation.Required, validation.Min(uint(1))),
		validation.Field(&req.Items, validation.Required),
		validation.Field(&req.PointsUsed, validation.Min(0)),
	)
	if err != nil {
		return err
	}

	for _, item := range req.Items {
		if err := validation.ValidateStruct(&item,
			validation.Field(&item.TicketTypeID, validation.Required, validation.Min(uint(1))),
			validation.Field(&item.Quantity, validation.Required, validation.Min(1)),
		); err != nil {
			return err
		}
	}

	return nil
}

type UpdateTransactionRequest struct {
	Status string `json:"status"`
}

func (req *UpdateTransactionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required, validation.In("CONFIRMED", "REJECTED")),
	)
}
