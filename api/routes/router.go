package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nbox-app/nbox-backend/api/controllers"
	webhookcontrollers "github.com/nbox-app/nbox-backend/api/controllers/webhooks"
	"github.com/nbox-app/nbox-backend/api/middleware"
	checkoutsvc "github.com/nbox-app/nbox-backend/internal/checkout"
	"github.com/nbox-app/nbox-backend/internal/notifications"
	"github.com/nbox-app/nbox-backend/internal/orders"
	"github.com/nbox-app/nbox-backend/internal/reviews"
	stripewebhook "github.com/nbox-app/nbox-backend/internal/webhooks/stripe"
	"github.com/nbox-app/nbox-backend/pkg/config"
	"github.com/nbox-app/nbox-backend/pkg/db"
	"github.com/nbox-app/nbox-backend/pkg/enums"
	"github.com/nbox-app/nbox-backend/pkg/logger"
	"github.com/nbox-app/nbox-backend/pkg/metrics"
	"github.com/nbox-app/nbox-backend/pkg/redis"
	"github.com/nbox-app/nbox-backend/pkg/stripe"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         redis.Pinger
	HTTPMetrics   *metrics.HTTPMetrics
	Registry      *prometheus.Registry
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Reviews       reviews.Service
	Notifications notifications.Service
	StripeClient  *stripe.Client
	StripeWebhook *stripewebhook.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhook, p.StripeClient, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/buyer/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.ActorRoleBuyer), logg))
			r.Get("/", controllers.BuyerOrderList(p.Orders, logg))
			r.Post("/checkout/{cartId}", controllers.Checkout(p.Checkout, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.BuyerOrderDetail(p.Orders, logg))
				r.Put("/delivered", controllers.BuyerOrderDelivered(p.Orders, logg))
				r.Post("/reorder", controllers.BuyerOrderReorder(p.Orders, logg))
				r.Post("/review", controllers.BuyerOrderReviewCreate(p.Reviews, logg))
				r.Get("/review", controllers.BuyerOrderReviewFetch(p.Reviews, logg))
			})
		})

		r.Route("/merchant/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.ActorRoleMerchant), logg))
			r.Get("/", controllers.MerchantOrderList(p.Orders, logg))
			r.Get("/scheduled", controllers.MerchantScheduledOrders(p.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.MerchantOrderDetail(p.Orders, logg))
				r.Put("/accept", controllers.MerchantOrderAccept(p.Orders, logg))
				r.Put("/cancel", controllers.MerchantOrderCancel(p.Orders, logg))
				r.Put("/prepare", controllers.MerchantOrderPrepare(p.Orders, logg))
				r.Put("/ready", controllers.MerchantOrderReady(p.Orders, logg))
				r.Put("/complete", controllers.MerchantOrderComplete(p.Orders, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Put("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Put("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
		})
	})

	return r
}
