package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-elite-store.git/internal/auth"
	"github.com/ariefcatur/go-elite-store.git/internal/catalog"
)

type ProductsHandler struct {
	Repo *catalog.Repo
	Log  *logrus.Logger
}

func (h *ProductsHandler) Register(r chi.Router, jwtSecret []byte) {
	r.Get("/api/products", h.list)
	r.Get("/api/products/categories", h.categories)
	r.Get("/api/products/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(jwtSecret), auth.RequireAdmin)
		r.Post("/api/products", h.create)
		r.Put("/api/products/{id}", h.update)
		r.Delete("/api/products/{id}", h.delete)
	})
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filter{
		Category: catalog.Category(q.Get("category")),
		Search:   q.Get("search"),
		Featured: q.Get("featured") == "true",
	}
	if f.Category != "" && !f.Category.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Repo.List(ctx, f)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Categories())
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if p.Name == "" || !p.Category.Valid() || p.PriceCents < 0 || p.Stock < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing or invalid fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.Create(ctx, &p); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, &p)
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	p.ID = chi.URLParam(r, "id")
	if !p.Category.Valid() || p.PriceCents < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing or invalid fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.Update(ctx, &p); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &p)
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "product removed"})
}
