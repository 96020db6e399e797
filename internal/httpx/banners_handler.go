package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-elite-store.git/internal/auth"
	"github.com/ariefcatur/go-elite-store.git/internal/banners"
)

type BannersHandler struct {
	Repo *banners.Repo
}

func (h *BannersHandler) Register(r chi.Router, jwtSecret []byte) {
	r.Get("/api/banners", h.list)
	r.Get("/api/banners/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(jwtSecret), auth.RequireAdmin)
		r.Post("/api/banners", h.create)
		r.Put("/api/banners/reorder", h.reorder)
		r.Put("/api/banners/{id}", h.update)
		r.Delete("/api/banners/{id}", h.delete)
	})
}

func (h *BannersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	bs, err := h.Repo.ListActive(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func (h *BannersHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	b, err := h.Repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BannersHandler) reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Banners []struct {
			ID string `json:"id"`
		} `json:"banners"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Banners) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "banners must be a non-empty array"})
		return
	}

	ids := make([]string, len(req.Banners))
	for i, b := range req.Banners {
		ids[i] = b.ID
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.Reorder(ctx, ids); err != nil {
		writeErr(w, err)
		return
	}
	list, err := h.Repo.ListActive(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *BannersHandler) create(w http.ResponseWriter, r *http.Request) {
	var b banners.Banner
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.Create(ctx, &b); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, &b)
}

func (h *BannersHandler) update(w http.ResponseWriter, r *http.Request) {
	var b banners.Banner
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	b.ID = chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.Update(ctx, &b); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &b)
}

func (h *BannersHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "banner removed"})
}
