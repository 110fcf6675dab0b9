package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/autoimport-storefront/api/responses"
	"github.com/angelmondragon/autoimport-storefront/api/validators"
	"github.com/angelmondragon/autoimport-storefront/internal/cart"
	"github.com/angelmondragon/autoimport-storefront/internal/catalog"
	"github.com/angelmondragon/autoimport-storefront/internal/storefront"
	"github.com/angelmondragon/autoimport-storefront/pkg/logger"
)

// CartStore is the cart surface the HTTP layer drives.
type CartStore interface {
	Snapshot() cart.Snapshot
	AddItem(ctx context.Context, item catalog.Item, quantity int) (cart.Snapshot, error)
	ChangeQuantity(ctx context.Context, code int64, delta int) (cart.Snapshot, error)
	RemoveItem(ctx context.Context, code int64) (cart.Snapshot, error)
	Clear(ctx context.Context) (cart.Snapshot, error)
}

// Request quantities are capped at 999 units per call.
type addCartItemRequest struct {
	Code     int64 `json:"code" validate:"required"`
	Quantity int   `json:"quantity" validate:"min=1,max=999"`
}

type changeQuantityRequest struct {
	Delta *int `json:"delta" validate:"required,min=-999,max=999"`
}

func CartGet(store CartStore, presenter *storefront.Presenter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, presenter.CartView(store.Snapshot()))
	}
}

// CartAddItem adds a catalog vehicle to the cart. The quantity is validated
// here, before the store is touched.
func CartAddItem(store CartStore, src CatalogSource, presenter *storefront.Presenter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := withVehicle(r.Context(), logg, payload.Code)

		cat, err := src.Current()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		item, ok := cat.Lookup(payload.Code)
		if !ok {
			responses.WriteError(ctx, logg, w, vehicleNotFound(payload.Code))
			return
		}

		snap, err := store.AddItem(ctx, item, payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, presenter.CartView(snap))
	}
}

// CartChangeQuantity applies a signed delta; codes not in the cart are ignored.
func CartChangeQuantity(store CartStore, presenter *storefront.Presenter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := validators.ParseCodeParam(r, "code")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload changeQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := withVehicle(r.Context(), logg, code)

		snap, err := store.ChangeQuantity(ctx, code, *payload.Delta)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, presenter.CartView(snap))
	}
}

func CartRemoveItem(store CartStore, presenter *storefront.Presenter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := validators.ParseCodeParam(r, "code")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := withVehicle(r.Context(), logg, code)

		snap, err := store.RemoveItem(ctx, code)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, presenter.CartView(snap))
	}
}

func CartClear(store CartStore, presenter *storefront.Presenter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := store.Clear(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, presenter.CartView(snap))
	}
}

func withVehicle(ctx context.Context, logg *logger.Logger, code int64) context.Context {
	if logg == nil {
		return ctx
	}
	return logg.WithVehicleCode(ctx, code)
}
