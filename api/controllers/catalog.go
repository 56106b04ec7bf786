package controllers

import (
	"net/http"

	"github.com/cocobubble/storefront/api/responses"
	"github.com/cocobubble/storefront/internal/catalog"
	pkgerrors "github.com/cocobubble/storefront/pkg/errors"
	"github.com/cocobubble/storefront/pkg/logger"
)

func CatalogProducts(reader catalog.Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "catalog not configured"))
			return
		}
		products, err := reader.Products(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products"))
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func CatalogCategories(reader catalog.Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reader == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "catalog not configured"))
			return
		}
		categories, err := reader.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories"))
			return
		}
		responses.WriteSuccess(w, categories)
	}
}
