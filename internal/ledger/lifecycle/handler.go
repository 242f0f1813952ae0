package lifecycle

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneta-app/moneta/internal/ledger"
	"github.com/moneta-app/moneta/internal/platform/httpx"
)

type openRequest struct {
	Name      string          `json:"name" validate:"required,max=100"`
	Amount    decimal.Decimal `json:"amount"`
	AccountID uuid.UUID       `json:"account_id" validate:"required"`
	TagID     *uuid.UUID      `json:"tag_id"`
}

type renameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type holdingResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	AccountID   uuid.UUID       `json:"account_id"`
	AccountName string          `json:"account_name"`
	Currency    string          `json:"currency"`
	IsOpen      bool            `json:"is_open"`
}

type openResponse struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
}

type closeResponse struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
}

type idResponse struct {
	ID uuid.UUID `json:"id"`
}

func toHoldingResponse(v ledger.HoldingView) holdingResponse {
	return holdingResponse{
		ID:          v.Holding.ID,
		Name:        v.Holding.Name,
		Amount:      v.Holding.Amount,
		AccountID:   v.Account.ID,
		AccountName: v.Account.Name,
		Currency:    v.Currency.Code,
		IsOpen:      v.Holding.IsOpen,
	}
}

// Handler serves one holding kind. The same handler is mounted once for
// credits and once for deposits, each backed by its own Service.
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
	r.Get("/", h.handleList)
	r.Post("/", h.handleOpen)
	r.Get("/{id}", h.handleShow)
	r.Patch("/{id}", h.handleRename)
	r.Post("/{id}/close", h.handleClose)
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	result, err := h.service.Open(r.Context(), OpenInput{
		Name:      req.Name,
		Amount:    req.Amount,
		AccountID: req.AccountID,
		TagID:     req.TagID,
	})
	if err != nil {
		h.logger.Error("open holding", slog.Any("error", err), slog.String("kind", string(h.service.def.Kind)))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, openResponse{
		ID:            result.Holding.ID,
		TransactionID: result.Transaction.ID,
	})
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}

	result, err := h.service.Close(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, closeResponse{
		ID:            result.HoldingID,
		TransactionID: result.Transaction.ID,
	})
}

func (h *Handler) handleShow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}

	view, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toHoldingResponse(view))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var (
		views []ledger.HoldingView
		err   error
	)
	if raw := r.URL.Query().Get("account_id"); raw != "" {
		accountID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid account id")
			return
		}
		views, err = h.service.ListForAccount(r.Context(), accountID)
	} else {
		views, err = h.service.ListAll(r.Context())
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	out := make([]holdingResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toHoldingResponse(v))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}

	var req renameRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	renamed, err := h.service.Rename(r.Context(), id, req.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, idResponse{ID: renamed})
}
