package products

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/internal/testdb"
	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/storage"
	"github.com/angelmondragon/petfood-backend/pkg/types"
)

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string]string
	deleted   []string
	uploadErr error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]string{}}
}

func (f *fakeStore) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return storage.Object{}, f.uploadErr
	}
	b, _ := io.ReadAll(body)
	f.objects[key] = string(b)
	return storage.Object{Key: key, URL: "https://cdn.example.com/" + key}, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	return nil
}

type failingTx struct{ err error }

func (f failingTx) WithTx(context.Context, func(tx *gorm.DB) error) error { return f.err }

func newTestService(t *testing.T, store *fakeStore) (Service, *gorm.DB) {
	t.Helper()
	client, conn := testdb.Client(t)
	svc, err := NewService(ServiceParams{
		Repo:           NewRepository(conn),
		TxRunner:       client,
		ImageStore:     store,
		ObjectPrefix:   "productos",
		MaxUploadBytes: 1024,
	})
	require.NoError(t, err)
	return svc, conn
}

func sampleInput(images ...ImageUpload) CreateProductInput {
	if len(images) == 0 {
		images = []ImageUpload{{Filename: "a.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("png")}}
	}
	return CreateProductInput{
		Name:        "Croquetas Premium",
		Description: "Alimento balanceado",
		Price:       decimal.RequireFromString("549.90"),
		Stock:       10,
		Brand:       "NutriCan",
		Breed:       "Mediana",
		AgeClass:    enums.AgeClassAdult,
		Ingredients: types.Ingredients{"proteinas": {" pollo ", ""}},
		Images:      images,
	}
}

func seedProduct(t *testing.T, conn *gorm.DB, name string, createdAt time.Time) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        name,
		Description: "desc",
		Price:       decimal.NewFromInt(100),
		Stock:       5,
		Brand:       "Marca",
		Breed:       "Todas",
		AgeClass:    enums.AgeClassAll,
		CreatedAt:   createdAt,
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func TestCreateUploadsImagesAndPersistsRows(t *testing.T) {
	store := newFakeStore()
	svc, conn := newTestService(t, store)

	created, err := svc.Create(context.Background(), sampleInput(
		ImageUpload{Filename: "a.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("one")},
		ImageUpload{Filename: "b.jpg", ContentType: "image/jpeg", Size: 3, Body: strings.NewReader("two")},
	))
	require.NoError(t, err)

	require.Len(t, created.Images, 2)
	assert.Equal(t, 0, created.Images[0].Position)
	assert.True(t, strings.HasPrefix(created.Images[0].URL, "https://cdn.example.com/productos/"+created.ID.String()+"/"))
	assert.Equal(t, []string{"pollo"}, created.Ingredients["proteinas"])
	assert.Len(t, store.objects, 2)

	var count int64
	require.NoError(t, conn.Model(&models.ProductImage{}).Where("product_id = ?", created.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("549.90")))
	assert.Len(t, got.Images, 2)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t, newFakeStore())
	ctx := context.Background()

	noImages := sampleInput()
	noImages.Images = nil
	_, err := svc.Create(ctx, noImages)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	zeroPrice := sampleInput()
	zeroPrice.Price = decimal.Zero
	_, err = svc.Create(ctx, zeroPrice)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	missing := sampleInput()
	missing.Brand = " "
	missing.Name = ""
	_, err = svc.Create(ctx, missing)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, map[string]any{"campos": []string{"marca", "nombre"}}, pkgerrors.As(err).Details())

	badType := sampleInput(ImageUpload{Filename: "a.pdf", ContentType: "application/pdf", Size: 1, Body: strings.NewReader("x")})
	_, err = svc.Create(ctx, badType)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	tooBig := sampleInput(ImageUpload{Filename: "a.png", ContentType: "image/png", Size: 4096, Body: strings.NewReader("x")})
	_, err = svc.Create(ctx, tooBig)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateCleansUpUploadsWhenInsertFails(t *testing.T) {
	store := newFakeStore()
	_, conn := testdb.Client(t)
	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(conn),
		TxRunner:   failingTx{err: errors.New("insert failed")},
		ImageStore: store,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), sampleInput())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
	assert.Len(t, store.deleted, 1)
	assert.Empty(t, store.objects)
}

func TestCreateUploadFailureIsDependencyError(t *testing.T) {
	store := newFakeStore()
	store.uploadErr = errors.New("bucket offline")
	svc, conn := newTestService(t, store)

	_, err := svc.Create(context.Background(), sampleInput())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	var count int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteSucceedsWhenRemoteDeletionFails(t *testing.T) {
	store := newFakeStore()
	svc, conn := newTestService(t, store)
	created, err := svc.Create(context.Background(), sampleInput())
	require.NoError(t, err)

	store.deleteErr = errors.New("remote down")
	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.Len(t, store.deleted, 1)

	var products, images int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&products).Error)
	require.NoError(t, conn.Model(&models.ProductImage{}).Count(&images).Error)
	assert.Zero(t, products)
	assert.Zero(t, images)

	err = svc.Delete(context.Background(), created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateAndPatchStock(t *testing.T) {
	svc, conn := newTestService(t, newFakeStore())
	p := seedProduct(t, conn, "Original", time.Now().UTC())
	ctx := context.Background()

	name, age := "Renombrado", "Cachorro"
	price := decimal.RequireFromString("120.5")
	updated, err := svc.Update(ctx, p.ID, UpdateProductInput{Name: &name, AgeClass: &age, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Renombrado", updated.Name)
	assert.Equal(t, enums.AgeClassPuppy, updated.AgeClass)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, "Marca", updated.Brand)

	_, err = svc.Update(ctx, p.ID, UpdateProductInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	bad := "anciano"
	_, err = svc.Update(ctx, p.ID, UpdateProductInput{AgeClass: &bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Update(ctx, uuid.New(), UpdateProductInput{Name: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	stocked, err := svc.PatchStock(ctx, p.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, stocked.Stock)

	_, err = svc.PatchStock(ctx, p.ID, -1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMostRecentCapsAtEight(t *testing.T) {
	svc, conn := newTestService(t, newFakeStore())
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		seedProduct(t, conn, fmt.Sprintf("p%02d", i), base.Add(time.Duration(i)*time.Hour))
	}

	list, err := svc.MostRecent(context.Background())
	require.NoError(t, err)
	require.Len(t, list, MostRecentLimit)
	assert.Equal(t, "p09", list[0].Name)
	assert.Equal(t, "p02", list[7].Name)
}

func TestBestSeller(t *testing.T) {
	svc, conn := newTestService(t, newFakeStore())
	ctx := context.Background()

	_, err := svc.BestSeller(ctx)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	older := seedProduct(t, conn, "older", base)
	newer := seedProduct(t, conn, "newer", base.Add(time.Hour))
	loser := seedProduct(t, conn, "loser", base.Add(2*time.Hour))

	user := &models.User{Name: "u", Email: "u@example.com", PasswordHash: "x", Role: enums.RoleCustomer}
	require.NoError(t, conn.Create(user).Error)
	order := &models.Order{UserID: user.ID, Subtotal: decimal.NewFromInt(1), Shipping: decimal.Zero, Total: decimal.NewFromInt(1),
		PaymentStatus: enums.PaymentStatusCompleted, OrderStatus: enums.OrderStatusPreparing}
	require.NoError(t, conn.Create(order).Error)
	for _, line := range []struct {
		id  uuid.UUID
		qty int
	}{{older.ID, 3}, {newer.ID, 2}, {newer.ID, 1}, {loser.ID, 1}} {
		id := line.id
		require.NoError(t, conn.Create(&models.OrderLineItem{OrderID: order.ID, ProductID: &id, ProductName: "x",
			UnitPrice: decimal.NewFromInt(1), Quantity: line.qty, Subtotal: decimal.NewFromInt(int64(line.qty))}).Error)
	}

	best, err := svc.BestSeller(ctx)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, best.ID, "ties go to the newest product")
	assert.Equal(t, int64(3), best.UnitsSold)
}
