package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/petfood-backend/api/controllers"
	"github.com/angelmondragon/petfood-backend/api/routes"
	"github.com/angelmondragon/petfood-backend/internal/auth"
	"github.com/angelmondragon/petfood-backend/internal/cart"
	"github.com/angelmondragon/petfood-backend/internal/checkout"
	"github.com/angelmondragon/petfood-backend/internal/contact"
	"github.com/angelmondragon/petfood-backend/internal/cron"
	"github.com/angelmondragon/petfood-backend/internal/orders"
	"github.com/angelmondragon/petfood-backend/internal/products"
	"github.com/angelmondragon/petfood-backend/internal/reviews"
	"github.com/angelmondragon/petfood-backend/internal/subscriptions"
	"github.com/angelmondragon/petfood-backend/internal/users"
	mpwebhook "github.com/angelmondragon/petfood-backend/internal/webhooks/mercadopago"
	"github.com/angelmondragon/petfood-backend/pkg/auth/session"
	"github.com/angelmondragon/petfood-backend/pkg/authz"
	pricing "github.com/angelmondragon/petfood-backend/pkg/checkout"
	"github.com/angelmondragon/petfood-backend/pkg/config"
	"github.com/angelmondragon/petfood-backend/pkg/db"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
	"github.com/angelmondragon/petfood-backend/pkg/mailer"
	"github.com/angelmondragon/petfood-backend/pkg/mercadopago"
	"github.com/angelmondragon/petfood-backend/pkg/metrics"
	"github.com/angelmondragon/petfood-backend/pkg/redis"
	"github.com/angelmondragon/petfood-backend/pkg/storage"
	"github.com/angelmondragon/petfood-backend/pkg/storage/gcs"
	"github.com/angelmondragon/petfood-backend/pkg/storage/s3"
)

const signatureTolerance = 10 * time.Minute

func buildHandler(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (http.Handler, error) {
	conn := dbClient.DB()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ready := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	images, storagePinger, err := buildImageStore(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}
	if storagePinger != nil {
		ready["storage"] = storagePinger
	}

	sessions, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}
	checker, err := authz.NewEnforcer()
	if err != nil {
		return nil, fmt.Errorf("authorizer: %w", err)
	}
	shipping, err := pricing.ShippingRuleFromConfig(cfg.Shop)
	if err != nil {
		return nil, err
	}

	gateway, err := mercadopago.NewClient(cfg.MercadoPago,
		mercadopago.WithMetrics(metrics.NewBreakerMetrics(reg)),
		mercadopago.WithLogger(logg),
	)
	if err != nil {
		return nil, fmt.Errorf("mercadopago client: %w", err)
	}

	mail := buildMailer(cfg, logg)

	usersRepo := users.NewRepository(conn)
	productRepo := products.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	userService, err := users.NewService(users.ServiceParams{
		Repo:           usersRepo,
		PasswordConfig: cfg.Password,
		Shop:           cfg.Shop,
	})
	if err != nil {
		return nil, fmt.Errorf("users service: %w", err)
	}
	productService, err := products.NewService(products.ServiceParams{
		Repo:           productRepo,
		TxRunner:       dbClient,
		ImageStore:     images,
		ObjectPrefix:   cfg.Storage.ObjectPrefix,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes(),
		Logger:         logg,
	})
	if err != nil {
		return nil, fmt.Errorf("products service: %w", err)
	}
	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:         cartRepo,
		Products:     productRepo,
		TxRunner:     dbClient,
		ShippingRule: shipping,
	})
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		TxRunner:      dbClient,
		CartRepo:      cartRepo,
		OrdersRepo:    ordersRepo,
		ProductRepo:   productRepo,
		Gateway:       gateway,
		ShippingRule:  shipping,
		Currency:      cfg.Shop.Currency,
		BackendURL:    cfg.App.BackendURL,
		FrontendURL:   cfg.App.FrontendURL,
		PreferenceTTL: cfg.MercadoPago.PreferenceTTL,
		Logger:        logg,
	})
	if err != nil {
		return nil, fmt.Errorf("checkout service: %w", err)
	}
	ordersService, err := orders.NewService(ordersRepo, dbClient, checker, orders.NewInventoryReleaser())
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	guard, err := mpwebhook.NewIdempotencyGuard(redisClient, cfg.MercadoPago.DedupTTL)
	if err != nil {
		return nil, fmt.Errorf("webhook guard: %w", err)
	}
	verifier := mercadopago.NewSignatureVerifier(cfg.MercadoPago.WebhookSecret, signatureTolerance)
	if verifier == nil {
		logg.Warn(ctx, "MP_WEBHOOK_SECRET not set; webhook signatures are not verified")
	}
	webhookService, err := mpwebhook.NewService(mpwebhook.ServiceParams{
		Gateway:  gateway,
		Orders:   ordersService,
		Guard:    guard,
		Verifier: verifier,
		Logger:   logg,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook service: %w", err)
	}

	reviewService, err := reviews.NewService(reviews.NewRepository(conn), ordersRepo)
	if err != nil {
		return nil, fmt.Errorf("reviews service: %w", err)
	}
	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:    subscriptions.NewRepository(conn),
		Users:   usersRepo,
		Mailer:  mail,
		ShopURL: cfg.App.FrontendURL,
		Logger:  logg,
	})
	if err != nil {
		return nil, fmt.Errorf("subscriptions service: %w", err)
	}
	cleanupJob, err := cron.NewOrderCleanupJob(ordersService, cfg.Cron, logg)
	if err != nil {
		return nil, fmt.Errorf("cleanup job: %w", err)
	}

	deps := routes.Dependencies{
		Config:        cfg,
		Logger:        logg,
		Redis:         redisClient,
		Sessions:      sessions,
		Checker:       checker,
		Users:         usersRepo,
		Gatherer:      reg,
		Metrics:       metrics.NewHTTPMetrics(reg),
		Ready:         ready,
		Auth:          authService,
		UserService:   userService,
		Products:      productService,
		Cart:          cartService,
		Checkout:      checkoutService,
		Orders:        ordersService,
		Webhook:       webhookService,
		Reviews:       reviewService,
		Subscriptions: subscriptionService,
		Cleanup:       cleanupJob,
	}

	if contactService, err := contact.NewService(mail, cfg.Email.Inbox()); err != nil {
		logg.Warn(logg.WithField(ctx, "reason", err.Error()), "contact form disabled")
	} else {
		deps.Contact = contactService
	}

	return routes.NewRouter(deps), nil
}

// buildImageStore returns the configured product image backend and, when
// the backend supports it, a readiness probe.
func buildImageStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.ImageStore, controllers.Pinger, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Provider)) {
	case config.StorageProviderS3:
		store, err := s3.NewStore(ctx, cfg.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("s3 store: %w", err)
		}
		return store, nil, nil
	default:
		client, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs client: %w", err)
		}
		return client, client, nil
	}
}

// buildMailer falls back to logging messages when SMTP credentials are absent.
func buildMailer(cfg *config.Config, logg *logger.Logger) mailer.Sender {
	if cfg.Email.User == "" || cfg.Email.Password == "" {
		logg.Warn(context.Background(), "EMAIL_USER/EMAIL_PASS not set; emails are logged, not sent")
		return mailer.LogSender{Logger: logg}
	}
	sender, err := mailer.NewSMTPSender(cfg.Email)
	if err != nil {
		logg.Error(context.Background(), "smtp sender unavailable; emails are logged, not sent", err)
		return mailer.LogSender{Logger: logg}
	}
	return sender
}
