package response

import "github.com/tiketku/tiketku-api/internal/domain"

type ConfirmTransactionResponse struct {
	Transaction domain.Transaction `json:"transaction"`
	Tickets     []domain.Ticket    `json:"tickets"`
}

type PointsBalanceResponse struct {
	UserID  uint                 `json:"user_id"`
	Balance int64                `json:"balance"`
	Grants  []domain.PointsGrant `json:"grants"`
}
