package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"nombre"`
	Email       string     `json:"email"`
	Role        enums.Role `json:"rol"`
	Phone       *string    `json:"telefono,omitempty"`
	Address     *string    `json:"direccion,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Role         enums.Role
	Phone        *string
	Address      *string
}

// ProfileUpdate is a partial profile edit. Nil fields are left untouched.
type ProfileUpdate struct {
	Name            *string `json:"nombre,omitempty" validate:"omitempty,min=2,max=120"`
	Phone           *string `json:"telefono,omitempty" validate:"omitempty,max=30"`
	Address         *string `json:"direccion,omitempty" validate:"omitempty,max=300"`
	CurrentPassword *string `json:"password_actual,omitempty"`
	NewPassword     *string `json:"password_nueva,omitempty"`
}

// CreateAdminRequest is the payload of the admin creation endpoint.
type CreateAdminRequest struct {
	Name     string `json:"nombre" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"rol" validate:"required"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Phone:       u.Phone,
		Address:     u.Address,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func FromModels(list []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.RoleCustomer
	}
	return &models.User{
		Name:         c.Name,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         role,
		Phone:        c.Phone,
		Address:      c.Address,
	}
}
