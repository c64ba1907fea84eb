package controllers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/petfood-backend/api/responses"
	"github.com/angelmondragon/petfood-backend/api/validators"
	productsvc "github.com/angelmondragon/petfood-backend/internal/products"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
	"github.com/angelmondragon/petfood-backend/pkg/types"
)

const (
	imagesField    = "imagenes"
	maxTextField   = 2000
	maxShortField  = 120
	multipartSlack = 1 << 20
)

// ProductList handles GET /api/productos with optional marca, raza, edad and q filters.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		list, err := svc.List(r.Context(), productsvc.ListFilters{
			Brand:    validators.QueryString(r, "marca", maxShortField),
			Breed:    validators.QueryString(r, "raza", maxShortField),
			AgeClass: validators.QueryString(r, "edad", maxShortField),
			Query:    validators.QueryString(r, "q", maxShortField),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ProductGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := parseUUIDParam(r, "id", "id de producto")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductRecent(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		list, err := svc.MostRecent(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ProductBestSeller(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		best, err := svc.BestSeller(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, best)
	}
}

// ProductCreate accepts a multipart form: text fields plus one or more files
// under "imagenes".
func ProductCreate(svc productsvc.Service, maxUpload int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		if maxUpload > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxUpload*int64(maxImagesPerRequest)+multipartSlack)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "formulario multipart inválido"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		input, files, err := parseCreateForm(r.MultipartForm)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		for _, fh := range files {
			f, err := fh.Open()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "no se pudo leer la imagen"))
				return
			}
			defer f.Close()
			input.Images = append(input.Images, productsvc.ImageUpload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Body:        f,
			})
		}

		product, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, product)
	}
}

const maxImagesPerRequest = 10

func parseCreateForm(form *multipart.Form) (productsvc.CreateProductInput, []*multipart.FileHeader, error) {
	value := func(key string, limit int) string {
		if vals := form.Value[key]; len(vals) > 0 {
			return validators.SanitizeString(vals[0], limit)
		}
		return ""
	}

	input := productsvc.CreateProductInput{
		Name:        value("nombre", maxShortField),
		Description: value("descripcion", maxTextField),
		Brand:       value("marca", maxShortField),
		Breed:       value("raza", maxShortField),
		AgeClass:    enums.AgeClass(strings.ToLower(value("edad", maxShortField))),
	}

	price, err := decimal.NewFromString(value("precio", maxShortField))
	if err != nil {
		return input, nil, pkgerrors.New(pkgerrors.CodeValidation, "precio inválido")
	}
	input.Price = price

	stock, err := strconv.Atoi(value("stock", maxShortField))
	if err != nil {
		return input, nil, pkgerrors.New(pkgerrors.CodeValidation, "stock inválido")
	}
	input.Stock = stock

	if raw := value("ingredientes", maxTextField); raw != "" {
		var ingredients types.Ingredients
		if err := json.Unmarshal([]byte(raw), &ingredients); err != nil {
			return input, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "ingredientes inválidos")
		}
		input.Ingredients = ingredients
	}

	files := form.File[imagesField]
	if len(files) > maxImagesPerRequest {
		return input, nil, pkgerrors.New(pkgerrors.CodeValidation, "demasiadas imágenes").
			WithDetails(map[string]int{"max": maxImagesPerRequest})
	}
	return input, files, nil
}

func ProductUpdate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := parseUUIDParam(r, "id", "id de producto")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body productsvc.UpdateProductInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Update(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductDelete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := parseUUIDParam(r, "id", "id de producto")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "producto eliminado")
	}
}

// ProductPatchStock handles PATCH /api/productos/{id}/stock.
func ProductPatchStock(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := parseUUIDParam(r, "id", "id de producto")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body productsvc.StockInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.PatchStock(r.Context(), id, *body.Stock)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
