package subscriptions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/internal/testdb"
	"github.com/angelmondragon/petfood-backend/internal/users"
	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
	"github.com/angelmondragon/petfood-backend/pkg/mailer"
)

type outbox struct {
	sent []mailer.Message
	err  error
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.sent = append(o.sent, msg)
	return o.err
}

func newTestService(t *testing.T, mail *outbox) (Service, *gorm.DB) {
	t.Helper()
	conn := testdb.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:    NewRepository(conn),
		Users:   users.NewRepository(conn),
		Mailer:  mail,
		ShopURL: "https://tienda.example.com",
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)
	return svc, conn
}

func TestSubscribeCreatesAndWelcomes(t *testing.T) {
	mail := &outbox{}
	svc, conn := newTestService(t, mail)
	require.NoError(t, conn.Create(&models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: enums.RoleCustomer}).Error)

	res, err := svc.Subscribe(context.Background(), "  ANA@example.com ")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "ana@example.com", res.Subscription.Email)
	assert.True(t, res.Subscription.IsRegisteredUser)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, []string{"ana@example.com"}, mail.sent[0].To)
	assert.Contains(t, mail.sent[0].HTML, "https://tienda.example.com")
}

func TestSubscribeExistingEmailIsNotAnError(t *testing.T) {
	mail := &outbox{}
	svc, _ := newTestService(t, mail)
	ctx := context.Background()

	first, err := svc.Subscribe(ctx, "leo@example.com")
	require.NoError(t, err)
	assert.False(t, first.Subscription.IsRegisteredUser)

	again, err := svc.Subscribe(ctx, "leo@example.com")
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, alreadySubscribedMessage, again.Message)
	assert.Equal(t, first.Subscription.ID, again.Subscription.ID)
	assert.Len(t, mail.sent, 1)
}

func TestSubscribeSurvivesMailFailure(t *testing.T) {
	svc, _ := newTestService(t, &outbox{err: errors.New("smtp down")})

	res, err := svc.Subscribe(context.Background(), "leo@example.com")
	require.NoError(t, err)
	assert.True(t, res.Created)
}

func TestSubscribeRejectsInvalidEmail(t *testing.T) {
	svc, _ := newTestService(t, &outbox{})
	_, err := svc.Subscribe(context.Background(), "nope")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListReturnsAllSignups(t *testing.T) {
	svc, _ := newTestService(t, &outbox{})
	ctx := context.Background()
	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := svc.Subscribe(ctx, email)
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
