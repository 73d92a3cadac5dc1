package catalog

import "github.com/go-chi/chi/v5"

// MountRoutes registers the catalog endpoints under the given router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/groups", func(r chi.Router) {
		r.Get("/", h.ListGroups)
		r.Post("/", h.CreateGroup)
		r.Put("/{id}", h.UpdateGroup)
		r.Delete("/{id}", h.DeleteGroup)
	})
	r.Route("/articles", func(r chi.Router) {
		r.Get("/", h.ListArticles)
		r.Post("/", h.CreateArticle)
		r.Post("/recompute", h.Recompute)
		r.Get("/{id}", h.ShowArticle)
		r.Put("/{id}", h.UpdateArticle)
		r.Delete("/{id}", h.DeleteArticle)
	})
}
