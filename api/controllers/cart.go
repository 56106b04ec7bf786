package controllers

import (
	"net/http"
	"strings"

	"github.com/cocobubble/storefront/api/middleware"
	"github.com/cocobubble/storefront/api/responses"
	"github.com/cocobubble/storefront/api/validators"
	"github.com/cocobubble/storefront/internal/cart"
	"github.com/cocobubble/storefront/internal/promotions"
	"github.com/cocobubble/storefront/internal/storefront"
	pkgerrors "github.com/cocobubble/storefront/pkg/errors"
	"github.com/cocobubble/storefront/pkg/logger"
)

// cartMutation runs fn against the session's cart and answers with the
// resulting cart view, computed under the same session lock.
func cartMutation(svc storefront.Service, logg *logger.Logger, status int, fn func(r *http.Request, f *storefront.Facade) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storefront service unavailable"))
			return
		}

		var view cartResponse
		err := svc.WithCart(r.Context(), middleware.CartSessionFromContext(r.Context()), func(f *storefront.Facade) error {
			if fn != nil {
				if err := fn(r, f); err != nil {
					return err
				}
			}
			view = newCartResponse(f, f.Totals(r.Context()))
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, view)
	}
}

// CartGet returns the items, totals and promotion progress of the cart.
func CartGet(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(svc, logg, http.StatusOK, nil)
}

// CartTotals returns only the priced figures.
func CartTotals(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storefront service unavailable"))
			return
		}

		var view totalsResponse
		err := svc.WithCart(r.Context(), middleware.CartSessionFromContext(r.Context()), func(f *storefront.Facade) error {
			view = newTotalsResponse(f.Totals(r.Context()), f.ItemCount())
			return nil
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// addItemRequest carries no price. Every HTTP add is priced from the
// catalog, and unknown fields such as "price" are rejected by the decoder.
type addItemRequest struct {
	ProductID string `json:"productId" validate:"required,max=64"`
	Size      string `json:"size" validate:"omitempty,oneof=reg lrg regular large"`
	Quantity  int    `json:"quantity" validate:"min=0,max=99"`
}

// CartAddItem adds a catalog product by id and size at its current catalog
// price.
func CartAddItem(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(svc, logg, http.StatusCreated, func(r *http.Request, f *storefront.Facade) error {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return err
		}

		id := strings.TrimSpace(payload.ProductID)
		if id == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"productId": "is required"})
		}

		size := promotions.SizeRegular
		if payload.Size != "" {
			size, _ = promotions.ParseSize(payload.Size)
		}
		quantity := payload.Quantity
		if quantity == 0 {
			quantity = 1
		}
		return f.AddProduct(r.Context(), id, size, quantity)
	})
}

const maxNameLength = 120

type selectorRequest struct {
	ID   string `json:"id" validate:"max=64"`
	Name string `json:"name" validate:"max=120"`
	Size string `json:"size" validate:"omitempty,oneof=reg lrg regular large"`
}

func (s selectorRequest) toSelector() (cart.Selector, error) {
	if id := strings.TrimSpace(s.ID); id != "" {
		return cart.ByID(id), nil
	}
	name := validators.SanitizeString(s.Name, maxNameLength)
	size, ok := promotions.ParseSize(s.Size)
	if name == "" || !ok {
		return cart.Selector{}, pkgerrors.New(pkgerrors.CodeValidation, "id or name and size are required")
	}
	return cart.ByNameSize(name, size), nil
}

type setQuantityRequest struct {
	selectorRequest
	Quantity *int `json:"quantity" validate:"required"`
}

// CartSetQuantity sets the quantity of the selected line; values below one
// become one.
func CartSetQuantity(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(svc, logg, http.StatusOK, func(r *http.Request, f *storefront.Facade) error {
		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return err
		}
		sel, err := payload.toSelector()
		if err != nil {
			return err
		}
		return f.SetQuantity(r.Context(), sel, *payload.Quantity)
	})
}

// CartRemoveItem drops the selected line.
func CartRemoveItem(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(svc, logg, http.StatusOK, func(r *http.Request, f *storefront.Facade) error {
		var payload selectorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return err
		}
		sel, err := payload.toSelector()
		if err != nil {
			return err
		}
		return f.Remove(r.Context(), sel)
	})
}

func CartIncrease(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(svc, logg, http.StatusOK, func(r *http.Request, f *storefront.Facade) error {
		index, err := validators.ParsePathIndex(r, "index")
		if err != nil {
			return err
		}
		return f.Increase(r.Context(), index)
	})
}

func CartDecrease(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(svc, logg, http.StatusOK, func(r *http.Request, f *storefront.Facade) error {
		index, err := validators.ParsePathIndex(r, "index")
		if err != nil {
			return err
		}
		return f.Decrease(r.Context(), index)
	})
}

func CartClear(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(svc, logg, http.StatusOK, func(r *http.Request, f *storefront.Facade) error {
		return f.Clear(r.Context())
	})
}
