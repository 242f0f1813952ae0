package transfers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/platform/httpx"
)

type createRequest struct {
	FromAccountID uuid.UUID       `json:"from_account_id" validate:"required"`
	ToAccountID   uuid.UUID       `json:"to_account_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
}

type createResponse struct {
	SenderTransactionID   uuid.UUID       `json:"sender_transaction_id"`
	ReceiverTransactionID uuid.UUID       `json:"receiver_transaction_id"`
	AmountTo              decimal.Decimal `json:"amount_to"`
}

// Handler wires the transfer endpoint.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleCreate)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.FromAccountID == req.ToAccountID {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "sender and receiver accounts must differ")
		return
	}

	result, err := h.service.Create(r.Context(), CreateInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		AmountFrom:    req.Amount,
	})
	if err != nil {
		h.logger.Error("create transfer", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, createResponse{
		SenderTransactionID:   result.SenderTransactionID,
		ReceiverTransactionID: result.ReceiverTransactionID,
		AmountTo:              result.AmountTo,
	})
}
