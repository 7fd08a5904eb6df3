package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pantryline/pantryline-backend/api/responses"
	"github.com/pantryline/pantryline-backend/api/validators"
	"github.com/pantryline/pantryline-backend/internal/items"
	"github.com/pantryline/pantryline-backend/pkg/logger"
)

type createStoreTagRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// StoreTagsList returns the caller's shopping-location tags.
func StoreTagsList(reg *items.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo, err := userRepository(r, reg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stores, err := repo.ListStores(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"stores": stores})
	}
}

// StoreTagsCreate adds a shopping-location tag.
func StoreTagsCreate(reg *items.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createStoreTagRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		repo, err := userRepository(r, reg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := repo.AddStore(r.Context(), body.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"id": id})
	}
}

// StoreTagsDelete removes a shopping-location tag.
func StoreTagsDelete(reg *items.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repo, err := userRepository(r, reg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := repo.RemoveStore(r.Context(), chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
