package commissions

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/summary", h.Summary)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/payments", h.ListPayments)
	r.Post("/{id}/payments", h.RegisterPayment)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := httpx.Pagination(r, 50)
	req := ListCommissionsRequest{Limit: limit, Offset: offset}
	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		status := Status(raw)
		if !status.Valid() {
			httpx.RespondError(w, &httpx.ValidationError{Fields: map[string]string{"status": "is unknown"}})
			return
		}
		req.Status = &status
	}
	if commercial := strings.TrimSpace(q.Get("commercial")); commercial != "" {
		req.Commercial = &commercial
	}

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.fail(w, "list commissions failed", err)
		return
	}
	if items == nil {
		items = []Commission{}
	}
	httpx.JSON(w, http.StatusOK, httpx.ListResponse[Commission]{Data: items, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.fail(w, "commission summary failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get commission failed", err, slog.Int64("id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCommissionRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create commission failed", err, slog.Int64("proposal_id", req.ProposalID))
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateCommissionRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update commission failed", err, slog.Int64("id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete commission failed", err, slog.Int64("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payments, err := h.service.ListPayments(r.Context(), id)
	if err != nil {
		h.fail(w, "list commission payments failed", err, slog.Int64("id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, payments)
}

func (h *Handler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req RegisterPaymentRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	payment, err := h.service.RegisterPayment(r.Context(), id, req)
	if err != nil {
		h.fail(w, "register commission payment failed", err, slog.Int64("id", id))
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error, attrs ...any) {
	h.logger.Error(msg, append(attrs, slog.Any("error", err))...)
	httpx.RespondError(w, err)
}
