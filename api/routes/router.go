package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minarilabs/storefront-backend/api/controllers"
	"github.com/minarilabs/storefront-backend/api/middleware"
	"github.com/minarilabs/storefront-backend/internal/accounts"
	"github.com/minarilabs/storefront-backend/internal/cart"
	"github.com/minarilabs/storefront-backend/internal/catalog"
	checkoutsvc "github.com/minarilabs/storefront-backend/internal/checkout"
	"github.com/minarilabs/storefront-backend/internal/notifications"
	"github.com/minarilabs/storefront-backend/internal/orders"
	"github.com/minarilabs/storefront-backend/internal/promotions"
	"github.com/minarilabs/storefront-backend/internal/shipments"
	"github.com/minarilabs/storefront-backend/pkg/config"
	"github.com/minarilabs/storefront-backend/pkg/db"
	"github.com/minarilabs/storefront-backend/pkg/logger"
	"github.com/minarilabs/storefront-backend/pkg/redis"
)

// RouterParams collects everything the HTTP surface needs. Identity arrives
// via headers set by the upstream gateway; there is no auth middleware here.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger
	DB     db.Pinger
	Redis  redis.Pinger

	Catalog       catalog.Service
	Accounts      accounts.Service
	Cart          cart.Service
	GuestCart     *cart.GuestStore
	Checkout      checkoutsvc.Service
	Promotions    promotions.Service
	Orders        orders.Service
	Shipments     shipments.Service
	Notifications notifications.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CustomerContext(logg))

		r.Route("/catalog/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(p.Catalog, logg))
			r.Post("/", controllers.CreateProduct(p.Catalog, logg))
			r.Get("/{productId}", controllers.GetProduct(p.Catalog, logg))
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", controllers.RegisterAccount(p.Accounts, logg))
			r.Get("/{accountId}", controllers.GetAccount(p.Accounts, logg))
			r.Put("/{accountId}/address", controllers.SetDefaultAddress(p.Accounts, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.Cart, logg))
			r.Post("/items", controllers.CartAddItem(p.Cart, logg))
			r.Put("/items/{productId}", controllers.CartUpdateItem(p.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(p.Cart, logg))
			r.Post("/merge", controllers.CartMergeGuest(p.Cart, logg))
		})

		r.Route("/guest-cart", func(r chi.Router) {
			r.Get("/", controllers.GuestCartFetch(p.GuestCart, logg))
			r.Post("/items", controllers.GuestCartAddItem(p.GuestCart, logg))
			r.Put("/items/{productId}", controllers.GuestCartUpdateItem(p.GuestCart, logg))
		})

		r.Post("/checkout", controllers.Checkout(p.Checkout, logg))

		r.Route("/promotions", func(r chi.Router) {
			r.Post("/", controllers.CreatePromotion(p.Promotions, logg))
			r.Post("/evaluate", controllers.EvaluatePromotion(p.Cart, p.Promotions, logg))
			r.Get("/{code}", controllers.GetPromotion(p.Promotions, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(p.Orders, logg))
			r.Get("/number/{orderNumber}", controllers.OrderDetail(p.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Post("/transition", controllers.TransitionOrder(p.Orders, logg))
				r.Get("/shipment", controllers.OrderShipment(p.Shipments, logg))
				r.Post("/shipment", controllers.CreateOrderShipment(p.Shipments, logg))
				r.Get("/notifications", controllers.OrderNotifications(p.Notifications, logg))
			})
		})

		r.Route("/shipments", func(r chi.Router) {
			r.Get("/{trackingNumber}", controllers.TrackShipment(p.Shipments, logg))
			r.Post("/{trackingNumber}/events", controllers.AppendShipmentEvent(p.Shipments, logg))
		})
	})

	return r
}
