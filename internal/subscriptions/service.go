package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/pkg/db"
	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
	"github.com/angelmondragon/petfood-backend/pkg/mailer"
)

const (
	subscribedMessage        = "suscripción registrada"
	alreadySubscribedMessage = "el correo ya está suscrito"

	welcomeTimeout = 15 * time.Second
)

// Service manages the newsletter list.
type Service interface {
	Subscribe(ctx context.Context, email string) (*SubscribeResult, error)
	List(ctx context.Context) ([]SubscriptionDTO, error)
}

type userLookup interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type service struct {
	repo    *Repository
	users   userLookup
	mail    mailer.Sender
	shopURL string
	logg    *logger.Logger
}

// ServiceParams wires the subscription service.
type ServiceParams struct {
	Repo    *Repository
	Users   userLookup
	Mailer  mailer.Sender
	ShopURL string
	Logger  *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user lookup required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	return &service{
		repo:    params.Repo,
		users:   params.Users,
		mail:    params.Mailer,
		shopURL: params.ShopURL,
		logg:    params.Logger,
	}, nil
}

// Subscribe registers email. An address already on the list is not an
// error; the existing row is returned with Created=false.
func (s *service) Subscribe(ctx context.Context, email string) (*SubscribeResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "correo inválido")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return &SubscribeResult{Subscription: FromModel(existing), Message: alreadySubscribedMessage}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup subscription")
	}

	registered, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	sub := &models.Subscription{Email: email, IsRegisteredUser: registered}
	if err := s.repo.Create(ctx, sub); err != nil {
		if db.IsUniqueViolation(err, "") {
			// lost a race with a concurrent signup for the same address
			existing, findErr := s.repo.FindByEmail(ctx, email)
			if findErr == nil {
				return &SubscribeResult{Subscription: FromModel(existing), Message: alreadySubscribedMessage}, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create subscription")
	}

	s.sendWelcome(ctx, email)
	return &SubscribeResult{Subscription: FromModel(sub), Created: true, Message: subscribedMessage}, nil
}

func (s *service) List(ctx context.Context) ([]SubscriptionDTO, error) {
	subs, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list subscriptions")
	}
	out := make([]SubscriptionDTO, 0, len(subs))
	for i := range subs {
		out = append(out, *FromModel(&subs[i]))
	}
	return out, nil
}

// sendWelcome never fails the signup. It outlives a cancelled request but
// is bounded by welcomeTimeout.
func (s *service) sendWelcome(ctx context.Context, email string) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), welcomeTimeout)
	defer cancel()
	if err := s.mail.Send(sendCtx, mailer.WelcomeMessage(email, s.shopURL)); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "email", email), "welcome email failed", err)
	}
}
