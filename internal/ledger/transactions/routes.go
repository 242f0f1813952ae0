package transactions

import "github.com/go-chi/chi/v5"

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/types", h.handleListTypes)
	r.Get("/types/{id}", h.handleShowType)
	r.Get("/{id}", h.handleShow)
	r.Patch("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}
