package controllers

import (
	"net/http"

	"github.com/angelmondragon/autoimport-storefront/api/responses"
	"github.com/angelmondragon/autoimport-storefront/api/validators"
	checkoutsvc "github.com/angelmondragon/autoimport-storefront/internal/checkout"
	pkgerrors "github.com/angelmondragon/autoimport-storefront/pkg/errors"
	"github.com/angelmondragon/autoimport-storefront/pkg/logger"
)

const maxClientNameLength = 120

type checkoutRequest struct {
	ClientName string `json:"client_name" validate:"required,notblank"`
}

// Checkout generates the invoice for the current cart and returns it as a
// PDF download. The cart is empty once the response is written.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		clientName := validators.SanitizeString(payload.ClientName, maxClientNameLength)
		doc, err := svc.Checkout(r.Context(), clientName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("X-Invoice-Total", doc.Total.StringFixed(2))
		responses.WriteAttachment(w, doc.Filename, doc.ContentType, doc.Content)
	}
}
