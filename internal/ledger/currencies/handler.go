package currencies

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/moneta-app/moneta/internal/platform/httpx"
)

type currencyResponse struct {
	ID   int32  `json:"id"`
	Code string `json:"code"`
}

// Handler wires the read-only currency reference endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleShow)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list currencies", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	out := make([]currencyResponse, 0, len(currencies))
	for _, c := range currencies {
		out = append(out, currencyResponse{ID: c.ID, Code: c.Code})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) handleShow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid currency id")
		return
	}

	currency, err := h.service.Get(r.Context(), int32(id))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, currencyResponse{ID: currency.ID, Code: currency.Code})
}
