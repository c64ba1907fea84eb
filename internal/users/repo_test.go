package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/internal/testdb"
	"github.com/angelmondragon/petfood-backend/pkg/db"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
)

func TestRepositoryCRUD(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{Name: "Ana", Email: "ana@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, enums.RoleCustomer, user.Role)

	found, err := repo.FindByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	exists, err := repo.ExistsByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.Create(ctx, CreateUserDTO{Name: "Otra", Email: "ana@example.com", PasswordHash: "hash"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))

	require.NoError(t, repo.Update(ctx, user.ID, map[string]any{"name": "Ana María"}))
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, time.Now().UTC()))
	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", reloaded.Name)
	assert.NotNil(t, reloaded.LastLoginAt)

	assert.True(t, errors.Is(repo.Update(ctx, uuid.New(), map[string]any{"name": "x"}), gorm.ErrRecordNotFound))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, user.ID))
	assert.True(t, errors.Is(repo.Delete(ctx, user.ID), gorm.ErrRecordNotFound))
}
