package proposals

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
)

// RecomputeObserver counts editor recomputes.
type RecomputeObserver interface {
	ObserveRecompute(editor, field string)
}

type Handler struct {
	logger   *slog.Logger
	service  *Service
	observer RecomputeObserver
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// WithObserver attaches a recompute counter.
func (h *Handler) WithObserver(observer RecomputeObserver) *Handler {
	h.observer = observer
	return h
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/statuses", h.Statuses)
	r.Post("/lines/recompute", h.RecomputeLine)
	r.Post("/lines/from-article", h.LineFromArticle)
	r.Post("/totals", h.Totals)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/status", h.ChangeStatus)
	r.Get("/{id}/pdf", h.PDF)
}

func (h *Handler) Statuses(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, Statuses())
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := httpx.Pagination(r, 50)
	req := ListProposalsRequest{Limit: limit, Offset: offset}
	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		status := Status(raw)
		if !status.Valid() {
			httpx.RespondError(w, &httpx.ValidationError{Fields: map[string]string{"status": "is unknown"}})
			return
		}
		req.Status = &status
	}
	if raw := q.Get("client_id"); raw != "" {
		clientID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.RespondError(w, &httpx.ValidationError{Fields: map[string]string{"client_id": "must be a number"}})
			return
		}
		req.ClientID = &clientID
	}
	if search := strings.TrimSpace(q.Get("search")); search != "" {
		req.Search = &search
	}

	proposals, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.fail(w, "list proposals failed", err)
		return
	}
	if proposals == nil {
		proposals = []Proposal{}
	}
	httpx.JSON(w, http.StatusOK, httpx.ListResponse[Proposal]{Data: proposals, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get proposal failed", err, slog.Int64("id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProposalRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create proposal failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateProposalRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update proposal failed", err, slog.Int64("id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete proposal failed", err, slog.Int64("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ChangeStatusRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.ChangeStatus(r.Context(), id, req.Status)
	if err != nil {
		h.fail(w, "change proposal status failed", err, slog.Int64("id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var templateID *int64
	if raw := r.URL.Query().Get("template"); raw != "" {
		tid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || tid <= 0 {
			httpx.RespondError(w, &httpx.ValidationError{Fields: map[string]string{"template": "must be a positive integer"}})
			return
		}
		templateID = &tid
	}
	p, pdf, err := h.service.RenderPDF(r.Context(), id, templateID)
	if err != nil {
		h.fail(w, "render proposal pdf failed", err, slog.Int64("id", id))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s.pdf", p.Number))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) RecomputeLine(w http.ResponseWriter, r *http.Request) {
	var req LineRecomputeRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp, err := h.service.RecomputeLine(r.Context(), req)
	if err != nil {
		h.fail(w, "recompute line failed", err)
		return
	}
	if h.observer != nil {
		h.observer.ObserveRecompute("proposal_line", string(req.Field))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) LineFromArticle(w http.ResponseWriter, r *http.Request) {
	var req FromArticleRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp, err := h.service.LineFromArticle(r.Context(), req)
	if err != nil {
		h.fail(w, "line from article failed", err, slog.Int64("article_id", req.ArticleID))
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	var req TotalsRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.PreviewTotals(req))
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error, attrs ...any) {
	h.logger.Error(msg, append(attrs, slog.Any("error", err))...)
	httpx.RespondError(w, err)
}
