package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pantryline/pantryline-backend/api/middleware"
	"github.com/pantryline/pantryline-backend/api/responses"
	"github.com/pantryline/pantryline-backend/api/validators"
	"github.com/pantryline/pantryline-backend/internal/items"
	"github.com/pantryline/pantryline-backend/internal/listview"
	"github.com/pantryline/pantryline-backend/pkg/enums"
	pkgerrors "github.com/pantryline/pantryline-backend/pkg/errors"
	"github.com/pantryline/pantryline-backend/pkg/logger"
)

type addItemRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Category string `json:"category" validate:"omitempty,max=40"`
	Amount   string `json:"amount" validate:"omitempty,max=20"`
	Unit     string `json:"unit" validate:"omitempty,max=10"`
	StoreID  string `json:"store_id" validate:"omitempty,uuid"`
}

type updateItemRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Category *string `json:"category,omitempty" validate:"omitempty,max=40"`
	Amount   *string `json:"amount,omitempty" validate:"omitempty,max=20"`
	Unit     *string `json:"unit,omitempty" validate:"omitempty,max=10"`
	StoreID  *string `json:"store_id,omitempty" validate:"omitempty"`
}

type moveItemRequest struct {
	To      string `json:"to" validate:"required,oneof=pantry grocery"`
	StoreID string `json:"store_id" validate:"omitempty,uuid"`
	Unit    string `json:"unit" validate:"omitempty,max=10"`
}

type listItemsResponse struct {
	State string       `json:"state"`
	Items []items.Item `json:"items"`
}

// userRepository resolves the caller's live item repository, restoring it if
// the process restarted since sign-in.
func userRepository(r *http.Request, reg *items.Registry) (*items.Repository, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotAuthenticated, "missing user context")
	}
	return reg.Acquire(r.Context(), userID)
}

func listParam(r *http.Request) (enums.ListAffinity, error) {
	list, err := enums.ParseListAffinity(chi.URLParam(r, "list"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid list")
	}
	return list, nil
}

// ItemsList returns the mirror projection for one list, sorted by category
// with "other" last and filtered by the optional search and store parameters.
func ItemsList(reg *items.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := listParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		repo, err := userRepository(r, reg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		projected := listview.Project(repo.Items(list), listview.Query{
			Search:  r.URL.Query().Get("search"),
			StoreID: r.URL.Query().Get("store"),
		})
		responses.WriteSuccess(w, listItemsResponse{
			State: repo.State().String(),
			Items: projected,
		})
	}
}

// ItemsAdd creates an item. The response carries the assigned identifier; the
// item appears in the mirror with the next snapshot push.
func ItemsAdd(reg *items.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := listParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		repo, err := userRepository(r, reg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := repo.AddItem(r.Context(), list, items.CreateFields{
			Name:     body.Name,
			Category: enums.CategoryOrDefault(body.Category),
			Amount:   body.Amount,
			Unit:     enums.UnitOrDefault(body.Unit),
			StoreID:  body.StoreID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"id": id})
	}
}

// ItemsRemove deletes an item. Absent identifiers are not an error.
func ItemsRemove(reg *items.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := listParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		repo, err := userRepository(r, reg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := repo.RemoveItem(r.Context(), list, chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "deleted"})
	}
}

// ItemsIncrement adds one to the mirrored amount and persists it.
func ItemsIncrement(reg *items.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := listParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		repo, err := userRepository(r, reg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := repo.IncrementOne(r.Context(), list, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"amount": amount})
	}
}

// ItemsDecrement subtracts one from the mirrored amount. A result of zero is
// not persisted; the response asks the caller to decide between delete and
// move.
func ItemsDecrement(reg *items.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := listParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		repo, err := userRepository(r, reg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := repo.DecrementOne(r.Context(), list, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ItemsMove relocates an item to the other list. A partial outcome (create
// succeeded, delete failed) is reported with its own error code so the client
// can warn that a duplicate may exist.
func ItemsMove(reg *items.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := listParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body moveItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := enums.ParseListAffinity(body.To)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid destination list"))
			return
		}

		repo, err := userRepository(r, reg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		overrides := items.MoveOverrides{StoreID: body.StoreID}
		if body.Unit != "" {
			unit := enums.UnitOrDefault(body.Unit)
			overrides.Unit = &unit
		}

		result, err := repo.MoveItem(r.Context(), from, to, chi.URLParam(r, "id"), overrides)
		if err != nil {
			// attach the partial outcome so the duplicate is resolvable
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodePartialMove {
				responses.WriteError(r.Context(), logg, w, typed)
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ItemsUpdate applies a partial field update to the remote item.
func ItemsUpdate(reg *items.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := listParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		repo, err := userRepository(r, reg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		patch := items.FieldPatch{
			Name:    body.Name,
			Amount:  body.Amount,
			StoreID: body.StoreID,
		}
		if body.Category != nil {
			category := enums.CategoryOrDefault(*body.Category)
			patch.Category = &category
		}
		if body.Unit != nil {
			unit := enums.UnitOrDefault(*body.Unit)
			patch.Unit = &unit
		}

		if err := repo.UpdateFields(r.Context(), list, chi.URLParam(r, "id"), patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "updated"})
	}
}
