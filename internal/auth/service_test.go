package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/internal/users"
	pkgAuth "github.com/angelmondragon/petfood-backend/pkg/auth"
	"github.com/angelmondragon/petfood-backend/pkg/config"
	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "petfood-api",
		ExpirationMinutes: 7 * 24 * 60,
	}
}

func TestServiceLoginEmbedsRoleAndEmail(t *testing.T) {
	password := "director-2024"
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Dora",
		Email:        "dora@petfood.mx",
		PasswordHash: mustHashPassword(t, password),
		Role:         enums.RoleDirector,
	}
	cfg := testJWTConfig()

	svc, sessions, err := buildTestService(newStubUserRepository(user), cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{Email: " DORA@petfood.mx ", Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.RoleDirector || claims.Email != user.Email || claims.UserID != user.ID {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ID == "" || claims.ID != sessions.lastAccessID {
		t.Fatalf("expected jti %q to match stored session %q", claims.ID, sessions.lastAccessID)
	}
	if resp.RefreshToken != "refresh-token" {
		t.Fatalf("expected refresh token to be set")
	}
	if user.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "a@example.com", PasswordHash: mustHashPassword(t, "correcta1"), Role: enums.RoleCustomer}
	svc, _, err := buildTestService(newStubUserRepository(user), testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	for _, req := range []LoginRequest{
		{Email: "a@example.com", Password: "incorrecta1"},
		{Email: "nadie@example.com", Password: "correcta1"},
		{Email: "", Password: "correcta1"},
	} {
		_, err := svc.Login(context.Background(), req)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized for %+v, got %v", req, err)
		}
	}
}

func TestServiceLoginSurfacesRepoFailure(t *testing.T) {
	repo := newStubUserRepository()
	repo.findErr = errors.New("db down")
	svc, _, err := buildTestService(repo, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	_, err = svc.Login(context.Background(), LoginRequest{Email: "a@example.com", Password: "x"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestServiceLoginUpgradesLegacyBcryptHash(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("croquetas1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	user := &models.User{ID: uuid.New(), Email: "vieja@example.com", PasswordHash: string(legacy), Role: enums.RoleCustomer}
	repo := newStubUserRepository(user)
	svc, _, err := buildTestService(repo, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	if _, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "croquetas1"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if repo.updates != 1 || !strings.HasPrefix(user.PasswordHash, "$argon2id$") {
		t.Fatalf("expected hash upgrade, got updates=%d hash=%q", repo.updates, user.PasswordHash)
	}

	if _, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "croquetas1"}); err != nil {
		t.Fatalf("second login: %v", err)
	}
	if repo.updates != 1 {
		t.Fatalf("upgraded hash should not be rewritten again")
	}
}

func buildTestService(repo *stubUserRepository, jwtCfg config.JWTConfig) (Service, *stubSessionManager, error) {
	sessionMgr := &stubSessionManager{refreshToken: "refresh-token"}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessionMgr,
		JWTConfig:      jwtCfg,
	})
	return svc, sessionMgr, err
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepository struct {
	data      map[string]*models.User
	created   *models.User
	createErr error
	findErr   error
	updates   int
}

func newStubUserRepository(seed ...*models.User) *stubUserRepository {
	repo := &stubUserRepository{data: map[string]*models.User{}}
	for _, u := range seed {
		repo.data[u.Email] = u
	}
	return repo
}

func (s *stubUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepository) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	s.data[dto.Email] = user
	s.created = user
	return user, nil
}

func (s *stubUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	for _, u := range s.data {
		if u.ID == id {
			u.LastLoginAt = &at
		}
	}
	return nil
}

func (s *stubUserRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	for _, u := range s.data {
		if u.ID == id {
			if hash, ok := fields["password_hash"].(string); ok {
				u.PasswordHash = hash
			}
			s.updates++
		}
	}
	return nil
}

type stubSessionManager struct {
	refreshToken string
	lastAccessID string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.lastAccessID = accessID
	return s.refreshToken, nil
}
