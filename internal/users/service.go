package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/pkg/auth"
	"github.com/angelmondragon/petfood-backend/pkg/authz"
	"github.com/angelmondragon/petfood-backend/pkg/config"
	"github.com/angelmondragon/petfood-backend/pkg/db"
	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/security"
)

// WeakPasswordMessage is the public error for passwords failing the policy.
const WeakPasswordMessage = "la contraseña debe tener al menos 8 caracteres, con letras y números"

// Service covers profile management and staff administration.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*UserDTO, error)
	List(ctx context.Context) ([]UserDTO, error)
	Delete(ctx context.Context, actor auth.Principal, targetID uuid.UUID) error
	CreateAdmin(ctx context.Context, actor auth.Principal, in CreateAdminRequest) (*UserDTO, error)
}

type userRepository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo        userRepository
	passwordCfg config.PasswordConfig
	adminDomain string
	adminRoles  map[enums.Role]struct{}
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Repo           userRepository
	PasswordConfig config.PasswordConfig
	Shop           config.ShopConfig
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}

	roles := make(map[enums.Role]struct{}, len(params.Shop.AdminRoles))
	for _, raw := range params.Shop.AdminRoles {
		role, err := enums.ParseRole(raw)
		if err != nil {
			return nil, fmt.Errorf("admin roles: %w", err)
		}
		if !role.IsAdmin() {
			return nil, fmt.Errorf("admin roles: %q is not a staff role", raw)
		}
		roles[role] = struct{}{}
	}

	return &service{
		repo:        params.Repo,
		passwordCfg: params.PasswordConfig,
		adminDomain: strings.ToLower(strings.TrimPrefix(strings.TrimSpace(params.Shop.AdminEmailDomain), "@")),
		adminRoles:  roles,
	}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "el nombre no puede estar vacío")
		}
		fields["name"] = name
	}
	if in.Phone != nil {
		fields["phone"] = optionalString(*in.Phone)
	}
	if in.Address != nil {
		fields["address"] = optionalString(*in.Address)
	}

	if in.NewPassword != nil {
		if in.CurrentPassword == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "la contraseña actual es requerida")
		}
		ok, err := security.VerifyPassword(*in.CurrentPassword, user.PasswordHash)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "la contraseña actual es incorrecta")
		}
		if err := security.ValidatePasswordStrength(*in.NewPassword); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, WeakPasswordMessage)
		}
		hash, err := security.HashPassword(*in.NewPassword, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		fields["password_hash"] = hash
	}

	if err := s.repo.Update(ctx, userID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "usuario no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return s.Profile(ctx, userID)
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	return FromModels(list), nil
}

func (s *service) Delete(ctx context.Context, actor auth.Principal, targetID uuid.UUID) error {
	target, err := s.load(ctx, targetID)
	if err != nil {
		return err
	}

	decision := authz.CanDeleteUser(actor.UserID, actor.Role, target.ID, target.Role)
	if !decision.Allowed {
		msg := "no tienes permiso para eliminar a este usuario"
		if decision.Reason == authz.ReasonSelf {
			msg = "no puedes eliminar tu propia cuenta"
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, msg).WithDetails(map[string]string{"reason": string(decision.Reason)})
	}

	if err := s.repo.Delete(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "usuario no encontrado")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	return nil
}

func (s *service) CreateAdmin(ctx context.Context, actor auth.Principal, in CreateAdminRequest) (*UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if s.adminDomain != "" && !strings.HasSuffix(email, "@"+s.adminDomain) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el correo debe pertenecer al dominio "+s.adminDomain)
	}

	role, err := enums.ParseRole(in.Role)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rol inválido")
	}
	if _, ok := s.adminRoles[role]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rol no permitido para administradores")
	}
	if decision := authz.CanManage(actor.Role, role); !decision.Allowed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no puedes crear un rol superior al tuyo").
			WithDetails(map[string]string{"reason": string(decision.Reason)})
	}

	if err := security.ValidatePasswordStrength(in.Password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, WeakPasswordMessage)
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "el correo ya está registrado")
	}

	hash, err := security.HashPassword(in.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.repo.Create(ctx, CreateUserDTO{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "el correo ya está registrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create admin")
	}
	return FromModel(user), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "usuario no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
