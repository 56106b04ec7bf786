package controllers

import (
	"net/http"

	"github.com/cocobubble/storefront/api/middleware"
	"github.com/cocobubble/storefront/api/responses"
	"github.com/cocobubble/storefront/api/validators"
	"github.com/cocobubble/storefront/internal/storefront"
	pkgerrors "github.com/cocobubble/storefront/pkg/errors"
	"github.com/cocobubble/storefront/pkg/logger"
)

type checkoutResponse struct {
	URL string `json:"url"`
}

// CartCheckout submits the cart to the payment backend and returns the
// redirect URL. The cart is kept until payment is confirmed.
func CartCheckout(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "storefront service unavailable"))
			return
		}

		var redirect string
		err := svc.WithCart(r.Context(), middleware.CartSessionFromContext(r.Context()), func(f *storefront.Facade) error {
			url, err := f.Checkout(r.Context())
			redirect = url
			return err
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{URL: redirect})
	}
}

type confirmPaymentRequest struct {
	SessionID string `json:"sessionId" validate:"required,max=255"`
}

// CartCheckoutConfirm verifies the payment session and clears the cart.
func CartCheckoutConfirm(svc storefront.Service, logg *logger.Logger) http.HandlerFunc {
	return cartMutation(svc, logg, http.StatusOK, func(r *http.Request, f *storefront.Facade) error {
		var payload confirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return err
		}
		return f.ConfirmPayment(r.Context(), payload.SessionID)
	})
}
