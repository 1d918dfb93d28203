package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trippio/trippio-backend/api/controllers"
	webhookcontrollers "github.com/trippio/trippio-backend/api/controllers/webhooks"
	"github.com/trippio/trippio-backend/api/middleware"
	"github.com/trippio/trippio-backend/internal/basket"
	"github.com/trippio/trippio-backend/internal/bookings"
	checkoutsvc "github.com/trippio/trippio-backend/internal/checkout"
	"github.com/trippio/trippio-backend/internal/orders"
	"github.com/trippio/trippio-backend/internal/payments"
	payoswebhook "github.com/trippio/trippio-backend/internal/webhooks/payos"
	"github.com/trippio/trippio-backend/pkg/config"
	"github.com/trippio/trippio-backend/pkg/logger"
	"github.com/trippio/trippio-backend/pkg/payos"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles everything the router wires to handlers.
type Services struct {
	Basket   *basket.Service
	Checkout *checkoutsvc.Service
	Orders   orders.Service
	Bookings bookings.Service
	Payments payments.Service
	Webhook  *payoswebhook.Service
	Provider *payos.Client
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP pinger,
	redisP pinger,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	// The webhook endpoint authenticates by signature, not bearer token.
	r.Route("/api/v1/webhooks/payos", func(r chi.Router) {
		r.Post("/", webhookcontrollers.PayOSWebhook(svcs.Webhook, logg))
		r.Get("/", webhookcontrollers.PayOSWebhookConfirm())
		r.With(middleware.Auth(cfg.JWT, logg)).
			Post("/test", webhookcontrollers.PayOSWebhookTest(svcs.Payments, svcs.Provider, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/basket", func(r chi.Router) {
			r.Get("/", controllers.BasketFetch(svcs.Basket, logg))
			r.Post("/items", controllers.BasketAddItem(svcs.Basket, logg))
			r.Put("/items/{itemRef}", controllers.BasketUpdateItem(svcs.Basket, logg))
			r.Delete("/items/{itemRef}", controllers.BasketRemoveItem(svcs.Basket, logg))
			r.Delete("/", controllers.BasketClear(svcs.Basket, logg))
		})

		r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(svcs.Orders, logg))
			r.Get("/{orderId}/payments", controllers.PaymentsByOrder(svcs.Payments, logg))
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", controllers.BookingCreate(svcs.Bookings, logg))
			r.Get("/", controllers.BookingList(svcs.Bookings, logg))
			r.Get("/{bookingId}", controllers.BookingDetail(svcs.Bookings, logg))
			r.Post("/{bookingId}/cancel", controllers.BookingCancel(svcs.Bookings, logg))
			r.Get("/{bookingId}/payments", controllers.PaymentsByBooking(svcs.Payments, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", controllers.PaymentList(svcs.Payments, logg))
			r.Get("/order-code/{orderCode}", controllers.PaymentByOrderCode(svcs.Payments, logg))
			r.Get("/{paymentId}", controllers.PaymentDetail(svcs.Payments, logg))
			r.Post("/{paymentId}/refund", controllers.PaymentRefund(svcs.Payments, logg))
		})
	})

	return r
}
