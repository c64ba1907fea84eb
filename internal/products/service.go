package products

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
	"github.com/angelmondragon/petfood-backend/pkg/storage"
)

const notFoundMessage = "producto no encontrado"

// Service exposes catalog operations.
type Service interface {
	List(ctx context.Context, filters ListFilters) ([]ProductSummary, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	PatchStock(ctx context.Context, id uuid.UUID, stock int) (*ProductDTO, error)
	MostRecent(ctx context.Context) ([]ProductSummary, error)
	BestSeller(ctx context.Context) (*BestSellerDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo         *Repository
	tx           txRunner
	images       storage.ImageStore
	objectPrefix string
	maxUpload    int64
	logg         *logger.Logger
}

// ServiceParams bundles the dependencies of the product service.
type ServiceParams struct {
	Repo           *Repository
	TxRunner       txRunner
	ImageStore     storage.ImageStore
	ObjectPrefix   string
	MaxUploadBytes int64
	Logger         *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.ImageStore == nil {
		return nil, fmt.Errorf("image store required")
	}
	prefix := strings.Trim(strings.TrimSpace(params.ObjectPrefix), "/")
	if prefix == "" {
		prefix = "productos"
	}
	return &service{
		repo:         params.Repo,
		tx:           params.TxRunner,
		images:       params.ImageStore,
		objectPrefix: prefix,
		maxUpload:    params.MaxUploadBytes,
		logg:         params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]ProductSummary, error) {
	if filters.AgeClass != "" {
		if _, err := enums.ParseAgeClass(filters.AgeClass); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "edad inválida")
		}
	}
	list, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "load product")
	}
	return FromModel(product), nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if err := s.validateCreate(input); err != nil {
		return nil, err
	}

	productID := uuid.New()
	uploaded := make([]storage.Object, 0, len(input.Images))
	for _, img := range input.Images {
		key, err := storage.ObjectKey(s.objectPrefix, productID, img.ContentType)
		if err != nil {
			s.cleanupObjects(ctx, uploaded)
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "tipo de imagen no permitido")
		}
		obj, err := s.images.Upload(ctx, key, img.ContentType, img.Body, img.Size)
		if err != nil {
			s.cleanupObjects(ctx, uploaded)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload product image")
		}
		uploaded = append(uploaded, obj)
	}

	product := &models.Product{
		ID:          productID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price.Round(2),
		Stock:       input.Stock,
		Brand:       strings.TrimSpace(input.Brand),
		Breed:       strings.TrimSpace(input.Breed),
		AgeClass:    input.AgeClass,
		Ingredients: input.Ingredients.Normalize(),
	}
	for i, obj := range uploaded {
		product.Images = append(product.Images, models.ProductImage{
			ProductID:  productID,
			URL:        obj.URL,
			StorageKey: obj.Key,
			Position:   i,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, product)
	})
	if err != nil {
		s.cleanupObjects(ctx, uploaded)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}

	return FromModel(product), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	fields, err := updateFields(input)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no hay campos para actualizar")
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, mapLookupError(err, "update product")
	}
	return s.Get(ctx, id)
}

// Delete removes remote images first. Each remote failure is logged and
// skipped; the rows are always deleted.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	images, err := s.repo.ListImages(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list product images")
	}

	for _, img := range images {
		if err := s.images.Delete(ctx, img.StorageKey); err != nil && s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"product_id":  id.String(),
				"storage_key": img.StorageKey,
			})
			s.logg.Error(logCtx, "product image delete failed", err)
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return mapLookupError(err, "delete product")
	}
	return nil
}

func (s *service) PatchStock(ctx context.Context, id uuid.UUID, stock int) (*ProductDTO, error) {
	if stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el stock no puede ser negativo")
	}
	if err := s.repo.SetStock(ctx, id, stock); err != nil {
		return nil, mapLookupError(err, "update stock")
	}
	return s.Get(ctx, id)
}

func (s *service) MostRecent(ctx context.Context) ([]ProductSummary, error) {
	list, err := s.repo.MostRecent(ctx, MostRecentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list recent products")
	}
	return list, nil
}

func (s *service) BestSeller(ctx context.Context) (*BestSellerDTO, error) {
	best, err := s.repo.BestSeller(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "aún no hay ventas registradas")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "best seller")
	}
	return best, nil
}

func (s *service) validateCreate(input CreateProductInput) error {
	missing := []string{}
	for field, value := range map[string]string{
		"nombre":      input.Name,
		"descripcion": input.Description,
		"marca":       input.Brand,
		"raza":        input.Breed,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return pkgerrors.New(pkgerrors.CodeValidation, "faltan campos requeridos").
			WithDetails(map[string]any{"campos": missing})
	}
	if !input.Price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "el precio debe ser mayor a 0")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "el stock no puede ser negativo")
	}
	if !input.AgeClass.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "edad inválida")
	}
	if len(input.Images) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "se requiere al menos una imagen")
	}
	for _, img := range input.Images {
		if !storage.IsAllowedImageType(img.ContentType) {
			return pkgerrors.New(pkgerrors.CodeValidation, "tipo de imagen no permitido").
				WithDetails(map[string]string{"archivo": img.Filename})
		}
		if s.maxUpload > 0 && img.Size > s.maxUpload {
			return pkgerrors.New(pkgerrors.CodeValidation, "la imagen excede el tamaño máximo").
				WithDetails(map[string]string{"archivo": img.Filename})
		}
	}
	return nil
}

func (s *service) cleanupObjects(ctx context.Context, objects []storage.Object) {
	for _, obj := range objects {
		if err := s.images.Delete(ctx, obj.Key); err != nil && s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "storage_key", obj.Key), "orphaned product image cleanup failed", err)
		}
	}
}

func updateFields(input UpdateProductInput) (map[string]any, error) {
	fields := map[string]any{}
	setText := func(column, label string, value *string) error {
		if value == nil {
			return nil
		}
		v := strings.TrimSpace(*value)
		if v == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, label+" no puede estar vacío")
		}
		fields[column] = v
		return nil
	}
	if err := setText("name", "nombre", input.Name); err != nil {
		return nil, err
	}
	if err := setText("description", "descripcion", input.Description); err != nil {
		return nil, err
	}
	if err := setText("brand", "marca", input.Brand); err != nil {
		return nil, err
	}
	if err := setText("breed", "raza", input.Breed); err != nil {
		return nil, err
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "el precio debe ser mayor a 0")
		}
		fields["price"] = input.Price.Round(2)
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "el stock no puede ser negativo")
		}
		fields["stock"] = *input.Stock
	}
	if input.AgeClass != nil {
		age, err := enums.ParseAgeClass(*input.AgeClass)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "edad inválida")
		}
		fields["age_class"] = age
	}
	if input.Ingredients != nil {
		fields["ingredients"] = input.Ingredients.Normalize()
	}
	return fields, nil
}

func mapLookupError(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
