package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/petfood-backend/api/responses"
	"github.com/angelmondragon/petfood-backend/internal/orders"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
)

// OrderCleaner runs one order cleanup pass.
type OrderCleaner interface {
	Cleanup(ctx context.Context) (orders.CleanupResult, error)
}

// CronCleanupOrders runs one cleanup pass on demand. The route is guarded by
// the cron secret.
func CronCleanupOrders(job OrderCleaner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if job == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("cleanup"))
			return
		}
		result, err := job.Cleanup(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
