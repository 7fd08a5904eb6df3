package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pantryline/pantryline-backend/internal/users"
	pkgAuth "github.com/pantryline/pantryline-backend/pkg/auth"
	"github.com/pantryline/pantryline-backend/pkg/auth/session"
	"github.com/pantryline/pantryline-backend/pkg/config"
	"github.com/pantryline/pantryline-backend/pkg/db/models"
	pkgerrors "github.com/pantryline/pantryline-backend/pkg/errors"
	"github.com/pantryline/pantryline-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, accessID string) error
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type uniqueViolationChecker func(error) bool

// mirrorSessions is the item-mirror registry surface the auth service drives
// directly. Sign-out teardown goes through it synchronously; the broadcast is
// best-effort and must not be the only path that clears a user's mirrors.
type mirrorSessions interface {
	Release(userID string) error
}

type service struct {
	users       userRepository
	session     sessionManager
	broadcaster *Broadcaster
	mirrors     mirrorSessions
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	isUniqueErr uniqueViolationChecker
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	Broadcaster    *Broadcaster
	// MirrorSessions, when set, is released synchronously on logout.
	MirrorSessions mirrorSessions
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	// IsUniqueViolation recognizes driver-specific duplicate-email errors.
	IsUniqueViolation func(error) bool
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Broadcaster == nil {
		return nil, fmt.Errorf("auth broadcaster is required")
	}
	isUnique := params.IsUniqueViolation
	if isUnique == nil {
		isUnique = func(error) bool { return false }
	}
	return &service{
		users:       params.UserRepo,
		session:     params.SessionManager,
		broadcaster: params.Broadcaster,
		mirrors:     params.MirrorSessions,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		isUniqueErr: isUnique,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	s.broadcaster.Publish(StateChange{UserID: user.ID.String(), SignedIn: true})

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}, nil
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotAuthenticated, "invalid access token")
	}

	newAccessID, newRefreshToken, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeNotAuthenticated, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: claims.UserID,
		Email:  claims.Email,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &RefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// Logout revokes the refresh session and tears the user's item mirrors down
// before returning. The teardown is a direct synchronous call; the broadcast
// that follows is advisory and may be missed by slow subscribers.
func (s *service) Logout(ctx context.Context, userID uuid.UUID, accessID string) error {
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	if s.mirrors != nil {
		if err := s.mirrors.Release(userID.String()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "tear down item mirrors")
		}
	}
	s.broadcaster.Publish(StateChange{UserID: userID.String(), SignedIn: false})
	return nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotAuthenticated, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotAuthenticated, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeNotAuthenticated, invalidCredentialsMessage)
	}
	return user, nil
}
