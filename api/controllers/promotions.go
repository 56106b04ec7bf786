package controllers

import (
	"net/http"

	"github.com/cocobubble/storefront/api/responses"
	"github.com/cocobubble/storefront/internal/storefront"
	pkgerrors "github.com/cocobubble/storefront/pkg/errors"
	"github.com/cocobubble/storefront/pkg/logger"
)

// PromotionsList returns the active promotions currently in the index.
func PromotionsList(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storefront service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.ActivePromotions())
	}
}
