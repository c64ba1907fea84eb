package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/petfood-backend/api/controllers"
	"github.com/angelmondragon/petfood-backend/api/middleware"
	"github.com/angelmondragon/petfood-backend/internal/auth"
	"github.com/angelmondragon/petfood-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/petfood-backend/internal/checkout"
	"github.com/angelmondragon/petfood-backend/internal/orders"
	"github.com/angelmondragon/petfood-backend/internal/products"
	"github.com/angelmondragon/petfood-backend/internal/reviews"
	"github.com/angelmondragon/petfood-backend/internal/subscriptions"
	"github.com/angelmondragon/petfood-backend/internal/users"
	"github.com/angelmondragon/petfood-backend/pkg/auth/session"
	"github.com/angelmondragon/petfood-backend/pkg/authz"
	"github.com/angelmondragon/petfood-backend/pkg/config"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
	"github.com/angelmondragon/petfood-backend/pkg/metrics"
	"github.com/angelmondragon/petfood-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Dependencies carries every service the HTTP surface needs.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Redis    *redis.Client
	Sessions sessionManager
	Checker  authz.Checker
	Users    middleware.UserLoader
	Gatherer prometheus.Gatherer
	Metrics  *metrics.HTTPMetrics
	Ready    map[string]controllers.Pinger

	Auth          auth.Service
	UserService   users.Service
	Products      products.Service
	Cart          cart.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Webhook       controllers.WebhookProcessor
	Reviews       reviews.Service
	Subscriptions subscriptions.Service
	Contact       controllers.ContactSender
	Cleanup       controllers.OrderCleaner
}

func NewRouter(d Dependencies) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}
	r.Use(
		middleware.CORS(cfg.CORS),
		middleware.RateLimit(cfg.RateLimit, logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	authenticated := middleware.Auth(cfg.JWT, d.Sessions, d.Users, logg)
	can := func(perm enums.Permission) func(http.Handler) http.Handler {
		return middleware.RequirePermission(d.Checker, perm, logg)
	}
	idempotent := func(ttl time.Duration) func(http.Handler) http.Handler {
		if d.Redis == nil {
			return middleware.Idempotency(nil, ttl, logg)
		}
		return middleware.Idempotency(d.Redis, ttl, logg)
	}
	authLimit := func(p middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		if d.Redis == nil {
			return middleware.AuthRateLimit(p, nil, logg)
		}
		return middleware.AuthRateLimit(p, d.Redis, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Ready))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/productos", func(r chi.Router) {
		r.Get("/", controllers.ProductList(d.Products, logg))
		r.Get("/recientes", controllers.ProductRecent(d.Products, logg))
		r.Get("/mas-vendido", controllers.ProductBestSeller(d.Products, logg))
		r.Get("/{id}", controllers.ProductGet(d.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.With(can(enums.PermProductCreate)).Post("/", controllers.ProductCreate(d.Products, cfg.Storage.MaxUploadBytes(), logg))
			r.With(can(enums.PermProductUpdate)).Put("/{id}", controllers.ProductUpdate(d.Products, logg))
			r.With(can(enums.PermProductDelete)).Delete("/{id}", controllers.ProductDelete(d.Products, logg))
			r.With(can(enums.PermProductStock)).Patch("/{id}/stock", controllers.ProductPatchStock(d.Products, logg))
		})
	})

	r.Route("/api/carrito", func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/", controllers.CartGet(d.Cart, logg))
		r.With(idempotent(middleware.CartIdempotencyTTL)).Post("/", controllers.CartAdd(d.Cart, logg))
		r.Get("/total", controllers.CartTotal(d.Cart, logg))
		r.Put("/editarCantidad", controllers.CartUpdateQuantity(d.Cart, logg))
		r.Delete("/{id_producto}", controllers.CartRemove(d.Cart, logg))
	})

	r.Route("/api/ordenes", func(r chi.Router) {
		r.Post("/webhook", controllers.MercadoPagoWebhook(d.Webhook, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.With(can(enums.PermOrderReadAll)).Get("/", controllers.OrderList(d.Orders, logg))
			r.With(idempotent(middleware.CheckoutIdempotencyTTL)).Post("/", controllers.Checkout(d.Checkout, logg))
			r.Get("/mis-ordenes", controllers.OrderMine(d.Orders, logg))
			r.Get("/{id}", controllers.OrderGet(d.Orders, logg))
			r.With(can(enums.PermOrderUpdateStatus)).Put("/editar-estado/{id}", controllers.OrderUpdateStatus(d.Orders, logg))
			r.With(can(enums.PermOrderDelete)).Delete("/{id}", controllers.OrderDelete(d.Orders, logg))
		})
	})

	r.Route("/api/usuario/resenas", func(r chi.Router) {
		r.Get("/producto/{id}", controllers.ReviewListByProduct(d.Reviews, logg))
		r.Get("/promedio", controllers.ReviewAverage(d.Reviews, logg))
		r.Get("/recientes", controllers.ReviewRecent(d.Reviews, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/", controllers.ReviewCreate(d.Reviews, logg))
			r.With(can(enums.PermReviewReadAll)).Get("/", controllers.ReviewListAll(d.Reviews, logg))
			r.Put("/{id}", controllers.ReviewUpdate(d.Reviews, false, logg))
			r.Delete("/{id}", controllers.ReviewDelete(d.Reviews, false, logg))

			r.Route("/admin", func(r chi.Router) {
				r.Use(can(enums.PermReviewModerate))
				r.Put("/{id}", controllers.ReviewUpdate(d.Reviews, true, logg))
				r.Delete("/{id}", controllers.ReviewDelete(d.Reviews, true, logg))
			})
		})
	})

	r.Route("/api/usuario/usuarios", func(r chi.Router) {
		r.With(authLimit(loginPolicy)).Post("/login", controllers.AuthLogin(d.Auth, logg))
		r.With(authLimit(registerPolicy)).Post("/registro", controllers.AuthRegister(d.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Sessions, cfg.JWT, logg))
		r.Post("/suscribirse", controllers.Subscribe(d.Subscriptions, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/logout", controllers.AuthLogout(d.Sessions, cfg.JWT, logg))
			r.Get("/perfil", controllers.UserProfile(d.UserService, logg))
			r.Put("/perfil", controllers.UserUpdateProfile(d.UserService, logg))
			r.With(can(enums.PermUserCreateAdmin)).Post("/crear-admin", controllers.UserCreateAdmin(d.UserService, logg))
			r.With(can(enums.PermUserReadAll)).Get("/", controllers.UserList(d.UserService, logg))
			r.With(can(enums.PermUserDelete)).Delete("/{id}", controllers.UserDelete(d.UserService, logg))
			r.With(can(enums.PermSubscriptionRead)).Get("/obtenerSuscripciones", controllers.SubscriptionList(d.Subscriptions, logg))
		})
	})

	r.Post("/api/contact/email", controllers.ContactEmail(d.Contact, logg))

	r.Route("/api/cron", func(r chi.Router) {
		r.Use(middleware.RequireCronSecret(cfg.Cron.Secret, logg))
		r.Get("/limpiar-ordenes", controllers.CronCleanupOrders(d.Cleanup, logg))
		r.Post("/limpiar-ordenes", controllers.CronCleanupOrders(d.Cleanup, logg))
	})

	return r
}
