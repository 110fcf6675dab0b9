package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/autoimport-storefront/api/responses"
	"github.com/angelmondragon/autoimport-storefront/api/validators"
	"github.com/angelmondragon/autoimport-storefront/internal/catalog"
	"github.com/angelmondragon/autoimport-storefront/internal/storefront"
	pkgerrors "github.com/angelmondragon/autoimport-storefront/pkg/errors"
	"github.com/angelmondragon/autoimport-storefront/pkg/logger"
)

// CatalogSource is the read side of the catalog loader.
type CatalogSource interface {
	Current() (*catalog.Catalog, error)
	State() catalog.State
}

type catalogReloader interface {
	CatalogSource
	Reload(ctx context.Context) (*catalog.Catalog, error)
}

// CatalogList renders the product listing, filtered by the optional q parameter.
// While the catalog is unavailable the listing carries the loading or error state.
func CatalogList(src CatalogSource, presenter *storefront.Presenter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := src.Current()
		if err != nil {
			listing := presenter.ListingUnavailable(src.State(), err)
			status := http.StatusOK
			if listing.State == storefront.ListingError {
				status = http.StatusServiceUnavailable
			}
			responses.WriteSuccessStatus(w, status, listing)
			return
		}

		query := validators.ParseSearchQuery(r)
		results := cat.Search(query)
		if logg != nil && query != "" {
			ctx := logg.WithFields(r.Context(), map[string]any{"query": query, "results": len(results)})
			logg.Debug(ctx, "catalog.search")
		}
		responses.WriteSuccess(w, presenter.Listing(query, results))
	}
}

// CatalogDetail renders a single vehicle card.
func CatalogDetail(src CatalogSource, presenter *storefront.Presenter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := validators.ParseCodeParam(r, "code")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cat, err := src.Current()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, ok := cat.Lookup(code)
		if !ok {
			responses.WriteError(r.Context(), logg, w, vehicleNotFound(code))
			return
		}
		responses.WriteSuccess(w, presenter.ProductCard(item))
	}
}

// CatalogReload re-runs the catalog fetch. The fetch is detached from the
// request so a disconnecting caller does not cancel it for everyone else.
func CatalogReload(src catalogReloader, presenter *storefront.Presenter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := src.Reload(context.WithoutCancel(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, presenter.Listing("", cat.Items()))
	}
}

func vehicleNotFound(code int64) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found").
		WithDetails(map[string]any{"code": code})
}
