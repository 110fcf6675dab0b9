package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/autoimport-storefront/api/controllers"
	"github.com/angelmondragon/autoimport-storefront/api/middleware"
	"github.com/angelmondragon/autoimport-storefront/internal/cartstate"
	"github.com/angelmondragon/autoimport-storefront/internal/catalog"
	checkoutsvc "github.com/angelmondragon/autoimport-storefront/internal/checkout"
	"github.com/angelmondragon/autoimport-storefront/internal/storefront"
	"github.com/angelmondragon/autoimport-storefront/pkg/config"
	"github.com/angelmondragon/autoimport-storefront/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	statePinger cartstate.Pinger,
	catalogs *catalog.Loader,
	cartStore controllers.CartStore,
	checkoutService checkoutsvc.Service,
	presenter *storefront.Presenter,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, statePinger, catalogs))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", controllers.CatalogList(catalogs, presenter, logg))
			r.Post("/reload", controllers.CatalogReload(catalogs, presenter, logg))
			r.Get("/{code}", controllers.CatalogDetail(catalogs, presenter, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(cartStore, presenter))
			r.Delete("/", controllers.CartClear(cartStore, presenter, logg))
			r.Post("/items", controllers.CartAddItem(cartStore, catalogs, presenter, logg))
			r.Patch("/items/{code}", controllers.CartChangeQuantity(cartStore, presenter, logg))
			r.Delete("/items/{code}", controllers.CartRemoveItem(cartStore, presenter, logg))
		})

		r.Post("/checkout", controllers.Checkout(checkoutService, logg))
	})

	return r
}
