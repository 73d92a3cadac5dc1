package catalog

import (
	"log/slog"
	"net/http"
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

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.ListGroups(r.Context())
	if err != nil {
		h.fail(w, "list groups failed", err)
		return
	}
	if groups == nil {
		groups = []Group{}
	}
	httpx.JSON(w, http.StatusOK, groups)
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	group, err := h.service.CreateGroup(r.Context(), req)
	if err != nil {
		h.fail(w, "create group failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, group)
}

func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateGroupRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	group, err := h.service.UpdateGroup(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update group failed", err, slog.Int64("id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, group)
}

func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteGroup(r.Context(), id); err != nil {
		h.fail(w, "delete group failed", err, slog.Int64("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	limit, offset := httpx.Pagination(r, 50)
	req := ListArticlesRequest{Limit: limit, Offset: offset}
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		req.Search = &search
	}
	if group := strings.TrimSpace(r.URL.Query().Get("group")); group != "" {
		req.GroupName = &group
	}

	articles, total, err := h.service.ListArticles(r.Context(), req)
	if err != nil {
		h.fail(w, "list articles failed", err)
		return
	}
	if articles == nil {
		articles = []Article{}
	}
	httpx.JSON(w, http.StatusOK, httpx.ListResponse[Article]{
		Data:   articles,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *Handler) ShowArticle(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	article, err := h.service.GetArticle(r.Context(), id)
	if err != nil {
		h.fail(w, "get article failed", err, slog.Int64("id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, article)
}

func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req CreateArticleRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	article, err := h.service.CreateArticle(r.Context(), req)
	if err != nil {
		h.fail(w, "create article failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, article)
}

func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateArticleRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	article, err := h.service.UpdateArticle(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update article failed", err, slog.Int64("id", id))
		return
	}
	httpx.JSON(w, http.StatusOK, article)
}

func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteArticle(r.Context(), id); err != nil {
		h.fail(w, "delete article failed", err, slog.Int64("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	var req RecomputeRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp, err := h.service.RecomputeArticle(r.Context(), req)
	if err != nil {
		h.fail(w, "recompute article failed", err)
		return
	}
	if h.observer != nil {
		h.observer.ObserveRecompute("article", string(req.Field))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error, attrs ...any) {
	h.logger.Error(msg, append(attrs, slog.Any("error", err))...)
	httpx.RespondError(w, err)
}
