package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tiketku/tiketku-api/internal/api/handler/v1/request"
	"github.com/tiketku/tiketku-api/internal/api/handler/v1/response"
	"github.com/tiketku/tiketku-api/internal/domain"
	"github.com/tiketku/tiketku-api/internal/service"
)

// maxProofBytes caps payment proof uploads at 5 MiB.
const maxProofBytes = 5 << 20

type TransactionHandlerService interface {
	Checkout(ctx context.Context, req service.CheckoutRequest) (domain.Transaction, error)
	GetTransaction(ctx context.Context, id uint) (domain.Transaction, error)
	GetUserTransactions(ctx context.Context, userID uint) ([]domain.Transaction, error)
	UploadProof(ctx context.Context, id, userID uint, proof []byte) (domain.Transaction, error)
	Confirm(ctx context.Context, id, organizerID uint) (domain.Transaction, []domain.Ticket, error)
	Reject(ctx context.Context, id, organizerID uint) (domain.Transaction, error)
	Cancel(ctx context.Context, id, userID uint) (domain.Transaction, error)
	GetUserTickets(ctx context.Context, userID uint) ([]domain.Ticket, error)
}

type TransactionHandler struct {
	svc TransactionHandlerService
}

func NewTransactionHandler(svc TransactionHandlerService) *TransactionHandler {
	return &TransactionHandler{
		svc: svc,
	}
}

// HandleCreateTransaction godoc
// @Summary      Check out a ticket purchase
// @Description  Prices the line items server-side, applies voucher and points, reserves seats and opens the payment window.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateTransactionRequest  true  "Checkout details"
// @Success      201    {object}  domain.Transaction
// @Failure      400    {object}  response.Err
// @Failure      404    {object}  response.Err
// @Failure      409    {object}  response.Err
// @Failure      422    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /transactions [post]
// @Security BearerAuth
func (h *TransactionHandler) HandleCreateTransaction(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateTransactionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	items := make([]service.CheckoutItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.CheckoutItem{
			TicketTypeID: item.TicketTypeID,
			Quantity:     item.Quantity,
		}
	}

	transaction, err := h.svc.Checkout(ctx.Request.Context(), service.CheckoutRequest{
		UserID:      userID,
		EventID:     req.EventID,
		Items:       items,
		PointsUsed:  req.PointsUsed,
		VoucherCode: req.VoucherCode,
	})
	if err != nil {
		renderCheckoutErr(ctx, req.EventID, err)
		return
	}

	ctx.JSON(http.StatusCreated, transaction)
}

func renderCheckoutErr(ctx *gin.Context, eventID uint, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.RenderErr(ctx, response.ErrNotFound("event", "ID", eventID))
	case errors.Is(err, service.ErrCouponNotFound):
		response.RenderErr(ctx, response.ErrNotFound("voucher", "code", "given"))
	case errors.Is(err, service.ErrInsufficientSeats):
		response.RenderErr(ctx, response.ErrConflict(service.ErrInsufficientSeats))
	case errors.Is(err, service.ErrEmptyCheckout),
		errors.Is(err, service.ErrTicketTypeMismatch),
		errors.Is(err, domain.ErrInvalidAmount):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	case errors.Is(err, service.ErrInsufficientPoints),
		errors.Is(err, service.ErrCouponInactive),
		errors.Is(err, service.ErrCouponNotYetValid),
		errors.Is(err, service.ErrCouponExpired),
		errors.Is(err, service.ErrCouponExhausted),
		errors.Is(err, service.ErrCouponNotApplicable),
		errors.Is(err, service.ErrCouponMinimumNotMet):
		response.RenderErr(ctx, response.ErrUnprocessable(err))
	default:
		err = fmt.Errorf("v1.HandleCreateTransaction -> h.svc.Checkout -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}

// HandleGetTransaction godoc
// @Summary      Get a transaction by ID
// @Tags         transactions
// @Produce      json
// @Param        transactionID  path      int  true  "Transaction ID"
// @Success      200            {object}  domain.Transaction
// @Failure      403            {object}  response.Err
// @Failure      404            {object}  response.Err
// @Failure      500            {object}  response.Err
// @Router       /transactions/{transactionID} [get]
// @Security BearerAuth
func (h *TransactionHandler) HandleGetTransaction(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	transactionID, err := parseIDParam(ctx, "transactionID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid transaction ID: %w", err)))
		return
	}

	transaction, err := h.svc.GetTransaction(ctx.Request.Context(), transactionID)
	if err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("transaction", "ID", transactionID))
			return
		}

		err = fmt.Errorf("v1.HandleGetTransaction -> h.svc.GetTransaction -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	if transaction.UserID != userID && getRoleFromContext(ctx) != domain.RoleAdmin {
		response.RenderErr(ctx, response.ErrPermissionDenied(service.ErrNotTransactionUser))
		return
	}

	ctx.JSON(http.StatusOK, transaction)
}

// HandleGetUserTransactions godoc
// @Summary      List the caller's transactions
// @Tags         transactions
// @Produce      json
// @Success      200  {array}   domain.Transaction
// @Failure      500  {object}  response.Err
// @Router       /transactions [get]
// @Security BearerAuth
func (h *TransactionHandler) HandleGetUserTransactions(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	transactions, err := h.svc.GetUserTransactions(ctx.Request.Context(), userID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetUserTransactions -> h.svc.GetUserTransactions -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, transactions)
}

// HandleUploadProof godoc
// @Summary      Upload a payment proof
// @Description  Attaches the proof and moves the transaction to PENDING_CONFIRMATION. Past the payment deadline the upload is refused with 410.
// @Tags         transactions
// @Accept       multipart/form-data
// @Produce      json
// @Param        transactionID  path      int   true  "Transaction ID"
// @Param        proof          formData  file  true  "Payment proof"
// @Success      200            {object}  domain.Transaction
// @Failure      400            {object}  response.Err
// @Failure      403            {object}  response.Err
// @Failure      404            {object}  response.Err
// @Failure      409            {object}  response.Err
// @Failure      410            {object}  response.Err
// @Failure      500            {object}  response.Err
// @Router       /transactions/{transactionID}/proof [post]
// @Security BearerAuth
func (h *TransactionHandler) HandleUploadProof(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	transactionID, err := parseIDParam(ctx, "transactionID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid transaction ID: %w", err)))
		return
	}

	fileHeader, err := ctx.FormFile("proof")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("missing proof file: %w", err)))
		return
	}
	if fileHeader.Size > maxProofBytes {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("proof file exceeds 5 MiB")))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("unreadable proof file: %w", err)))
		return
	}
	defer file.Close()

	proof, err := io.ReadAll(io.LimitReader(file, maxProofBytes))
	if err != nil {
		err = fmt.Errorf("v1.HandleUploadProof -> io.ReadAll -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	transaction, err := h.svc.UploadProof(ctx.Request.Context(), transactionID, userID, proof)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTransactionNotFound):
			response.RenderErr(ctx, response.ErrNotFound("transaction", "ID", transactionID))
		case errors.Is(err, service.ErrNotTransactionUser):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrPaymentWindowExpired):
			response.RenderErr(ctx, response.ErrGone(err))
		case errors.Is(err, service.ErrInvalidTransactionState):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleUploadProof -> h.svc.UploadProof -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, transaction)
}

// HandleUpdateTransaction godoc
// @Summary      Confirm or reject a payment
// @Description  Organizer verdict on an uploaded proof. CONFIRMED issues tickets; REJECTED releases seats, voucher use and points.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        transactionID  path      int                               true  "Transaction ID"
// @Param        input          body      request.UpdateTransactionRequest  true  "Verdict"
// @Success      200            {object}  response.ConfirmTransactionResponse
// @Failure      400            {object}  response.Err
// @Failure      403            {object}  response.Err
// @Failure      404            {object}  response.Err
// @Failure      409            {object}  response.Err
// @Failure      500            {object}  response.Err
// @Router       /transactions/{transactionID} [patch]
// @Security BearerAuth
func (h *TransactionHandler) HandleUpdateTransaction(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	transactionID, err := parseIDParam(ctx, "transactionID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid transaction ID: %w", err)))
		return
	}

	var req request.UpdateTransactionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var (
		transaction domain.Transaction
		tickets     []domain.Ticket
	)
	if req.Status == string(domain.StatusConfirmed) {
		transaction, tickets, err = h.svc.Confirm(ctx.Request.Context(), transactionID, userID)
	} else {
		transaction, err = h.svc.Reject(ctx.Request.Context(), transactionID, userID)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTransactionNotFound):
			response.RenderErr(ctx, response.ErrNotFound("transaction", "ID", transactionID))
		case errors.Is(err, service.ErrNotEventOrganizer):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrInvalidTransactionState):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleUpdateTransaction -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.ConfirmTransactionResponse{
		Transaction: transaction,
		Tickets:     tickets,
	})
}

// HandleCancelTransaction godoc
// @Summary      Cancel a pending transaction
// @Tags         transactions
// @Produce      json
// @Param        transactionID  path      int  true  "Transaction ID"
// @Success      200            {object}  domain.Transaction
// @Failure      403            {object}  response.Err
// @Failure      404            {object}  response.Err
// @Failure      409            {object}  response.Err
// @Failure      500            {object}  response.Err
// @Router       /transactions/{transactionID}/cancel [post]
// @Security BearerAuth
func (h *TransactionHandler) HandleCancelTransaction(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	transactionID, err := parseIDParam(ctx, "transactionID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid transaction ID: %w", err)))
		return
	}

	transaction, err := h.svc.Cancel(ctx.Request.Context(), transactionID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTransactionNotFound):
			response.RenderErr(ctx, response.ErrNotFound("transaction", "ID", transactionID))
		case errors.Is(err, service.ErrNotTransactionUser):
			response.RenderErr(ctx, response.ErrPermissionDenied(err))
		case errors.Is(err, service.ErrInvalidTransactionState):
			response.RenderErr(ctx, response.ErrConflict(err))
		default:
			err = fmt.Errorf("v1.HandleCancelTransaction -> h.svc.Cancel -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, transaction)
}

// HandleGetUserTickets godoc
// @Summary      List the caller's tickets
// @Tags         tickets
// @Produce      json
// @Success      200  {array}   domain.Ticket
// @Failure      500  {object}  response.Err
// @Router       /tickets [get]
// @Security BearerAuth
func (h *TransactionHandler) HandleGetUserTickets(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	tickets, err := h.svc.GetUserTickets(ctx.Request.Context(), userID)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetUserTickets -> h.svc.GetUserTickets -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, tickets)
}
