package reviews

import (
	"time"

	"github.com/google/uuid"
)

// CreateReviewRequest is the body of POST /api/usuario/resenas.
type CreateReviewRequest struct {
	ProductID uuid.UUID `json:"id_producto" validate:"required"`
	Rating    int       `json:"calificacion" validate:"required,min=1,max=5"`
	Comment   string    `json:"comentario" validate:"max=2000"`
}

// UpdateReviewRequest is a partial edit; nil fields are left untouched.
type UpdateReviewRequest struct {
	Rating  *int    `json:"calificacion,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comentario,omitempty" validate:"omitempty,max=2000"`
}

// ReviewDTO is a review joined with its author and product names.
type ReviewDTO struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"id_usuario"`
	ProductID   uuid.UUID `json:"id_producto"`
	AuthorName  string    `json:"nombre_usuario"`
	ProductName string    `json:"nombre_producto,omitempty"`
	Rating      int       `json:"calificacion"`
	Comment     string    `json:"comentario"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AverageDTO is the site-wide rating summary.
type AverageDTO struct {
	Average int   `json:"promedio"`
	Count   int64 `json:"total"`
}
