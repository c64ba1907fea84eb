package subscriptions

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/petfood-backend/pkg/db/models"
)

// SubscribeRequest is the body of POST /api/usuario/usuarios/suscribirse.
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// SubscriptionDTO is a newsletter signup.
type SubscriptionDTO struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	IsRegisteredUser bool      `json:"is_registered_user"`
	CreatedAt        time.Time `json:"created_at"`
}

// SubscribeResult tells the caller whether a new row was created.
type SubscribeResult struct {
	Subscription *SubscriptionDTO `json:"suscripcion"`
	Created      bool             `json:"creada"`
	Message      string           `json:"message"`
}

func FromModel(m *models.Subscription) *SubscriptionDTO {
	if m == nil {
		return nil
	}
	return &SubscriptionDTO{
		ID:               m.ID,
		Email:            m.Email,
		IsRegisteredUser: m.IsRegisteredUser,
		CreatedAt:        m.CreatedAt,
	}
}
