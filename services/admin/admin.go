package admin

import (
	"context"
	"strings"
	"time"

	adminRepo "clinicdesk/database/repository/admin"
	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL is how long an admin token and its session live.
const DefaultTokenTTL = time.Hour

const minPasswordLength = 8

type AdminService interface {
	CreateAdmin(ctx context.Context, email, password string) (*models.Admin, error)
	Login(ctx context.Context, email, password, ip string) (*LoginResult, error)
	Authenticate(ctx context.Context, token string) (*utils.AuthSession, error)
	Logout(ctx context.Context, token string) error
	ResetCounters(ctx context.Context) (*ResetResult, error)
}

// Resetter clears a whole collection.
type Resetter interface {
	DeleteAll(ctx context.Context) (int64, error)
}

// LoginResult is returned to the dashboard after a successful login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Admin     models.Admin `json:"admin"`
}

// ResetResult reports what an administrative reset removed.
type ResetResult struct {
	Counters int64 `json:"counters"`
	Comments int64 `json:"comments"`
}

// DefaultAdminService is the production implementation.
type DefaultAdminService struct {
	Repo       adminRepo.AdminRepository
	Sessions   utils.SessionStore
	Counters   Resetter
	Comments   Resetter
	TokenTTL   time.Duration
	Production bool
}

var _ AdminService = (*DefaultAdminService)(nil)

func (s *DefaultAdminService) tokenTTL() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return DefaultTokenTTL
}

// CreateAdmin stores a bcrypt hash of password. Used by the seeding script.
func (s *DefaultAdminService) CreateAdmin(ctx context.Context, email, password string) (*models.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, utils.NewValidationError("email", "must be a valid address")
	}
	if len(password) < minPasswordLength {
		return nil, utils.NewValidationError("password", "must be at least %d characters", minPasswordLength)
	}
	existing, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(err, "look up admin")
	}
	if existing != nil {
		return nil, &utils.DuplicateIDError{Domain: "admin", ID: email}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	admin := &models.Admin{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	if err := s.Repo.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// Login checks the credentials and opens a session keyed by the token hash.
func (s *DefaultAdminService) Login(ctx context.Context, email, password, ip string) (*LoginResult, error) {
	logger := utils.GetLogger()

	admin, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		logger.Error("Failed to fetch admin for login", zap.Error(err))
		return nil, errors.Wrap(err, "login")
	}
	if admin == nil {
		return nil, &utils.UnauthorizedError{Reason: "invalid email or password"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, &utils.UnauthorizedError{Reason: "invalid email or password"}
	}

	ttl := s.tokenTTL()
	token, err := utils.GenerateToken(admin.ID, admin.Email, ttl)
	if err != nil {
		return nil, errors.Wrap(err, "generate token")
	}
	session := utils.AuthSession{AdminID: admin.ID, Email: admin.Email, IP: ip, CreatedAt: time.Now()}
	if err := s.Sessions.Save(ctx, utils.HashToken(token), session, ttl); err != nil {
		return nil, errors.Wrap(err, "save session")
	}

	logger.Info("Admin logged in", zap.String("adminId", admin.ID), zap.String("ip", ip))
	return &LoginResult{Token: token, ExpiresAt: session.CreatedAt.Add(ttl), Admin: *admin}, nil
}

// Authenticate accepts a token only while it is valid and its session exists.
func (s *DefaultAdminService) Authenticate(ctx context.Context, token string) (*utils.AuthSession, error) {
	if token == "" {
		return nil, &utils.UnauthorizedError{Reason: "missing token"}
	}
	parsed, err := utils.ValidateToken(token)
	if err != nil || !parsed.Valid {
		return nil, &utils.UnauthorizedError{Reason: "invalid or expired token"}
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || claims["role"] != models.RoleAdmin {
		return nil, &utils.UnauthorizedError{Reason: "invalid token"}
	}
	session, err := s.Sessions.Get(ctx, utils.HashToken(token))
	if err != nil {
		return nil, errors.Wrap(err, "load session")
	}
	if session == nil {
		return nil, &utils.UnauthorizedError{Reason: "session expired"}
	}
	if sub, _ := claims["sub"].(string); sub != session.AdminID {
		return nil, &utils.UnauthorizedError{Reason: "invalid token"}
	}
	return session, nil
}

func (s *DefaultAdminService) Logout(ctx context.Context, token string) error {
	if err := s.Sessions.Delete(ctx, utils.HashToken(token)); err != nil {
		return errors.Wrap(err, "delete session")
	}
	return nil
}

// ResetCounters clears the id counters and all comments. Refused in production.
func (s *DefaultAdminService) ResetCounters(ctx context.Context) (*ResetResult, error) {
	if s.Production {
		return nil, &utils.ForbiddenError{Reason: "reset is disabled in production"}
	}
	counters, err := s.Counters.DeleteAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reset counters")
	}
	comments, err := s.Comments.DeleteAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reset comments")
	}
	utils.GetLogger().Warn("Counters reset", zap.Int64("counters", counters), zap.Int64("comments", comments))
	return &ResetResult{Counters: counters, Comments: comments}, nil
}
