package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushub/campus-forum/internal"
	"github.com/campushub/campus-forum/internal/authz"
	"github.com/campushub/campus-forum/internal/core/common/validation"
	usermodel "github.com/campushub/campus-forum/internal/core/datamodel/user"
)

// UserRepository is the slice of the user store the auth service needs.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*usermodel.User, error)
	GetByEmail(ctx context.Context, email string) (*usermodel.User, error)
	Create(ctx context.Context, u *usermodel.User) error
}

// Claims is the JWT payload. Role is stamped at issue time; the role
// resolver treats it as authoritative for the token's lifetime.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Service struct {
	users    UserRepository
	resolver *authz.Resolver
	cfg      internal.SecurityConfig
	logger   *slog.Logger
}

func NewService(users UserRepository, resolver *authz.Resolver, cfg internal.SecurityConfig, logger *slog.Logger) *Service {
	return &Service{users: users, resolver: resolver, cfg: cfg, logger: logger}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*usermodel.User, *TokenPair, error) {
	v := validation.New().
		Required("email", req.Email).
		Required("name", req.Name).
		Required("password", req.Password).
		MinLength("password", req.Password, 8).
		Check(strings.Contains(req.Email, "@"), "email", "must be a valid email address")
	if appErr := v.Err(); appErr != nil {
		return nil, nil, appErr
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to check email", err)
	}
	if existing != nil {
		return nil, nil, internal.NewConflictError("an account with this email already exists", internal.ErrCodeEmailTaken)
	}

	cost := s.cfg.BCryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), cost)
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &usermodel.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         req.Name,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, nil, internal.NewInternalError("failed to create user", err)
	}

	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*usermodel.User, *TokenPair, error) {
	v := validation.New().
		Required("email", req.Email).
		Required("password", req.Password)
	if appErr := v.Err(); appErr != nil {
		return nil, nil, appErr
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to look up user", err)
	}
	if u == nil || !u.IsActive {
		return nil, nil, internal.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, internal.ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The role is
// re-resolved so promotions and demotions take effect at the next refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parseToken(refreshToken, s.cfg.RefreshTokenSecret)
	if err != nil {
		return nil, err
	}
	u, lookupErr := s.users.GetByID(ctx, claims.UserID)
	if lookupErr != nil {
		return nil, internal.NewInternalError("failed to look up user", lookupErr)
	}
	if u == nil || !u.IsActive {
		return nil, internal.ErrInvalidToken
	}
	return s.issueTokens(ctx, u)
}

// ParseAccessToken validates an access token and returns the session it
// represents.
func (s *Service) ParseAccessToken(token string) (*internal.Session, error) {
	claims, err := s.parseToken(token, s.cfg.AccessTokenSecret)
	if err != nil {
		return nil, err
	}
	return &internal.Session{User: &internal.SessionUser{
		ID:    claims.UserID,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	}}, nil
}

func (s *Service) issueTokens(ctx context.Context, u *usermodel.User) (*TokenPair, error) {
	role := s.resolver.ResolveRole(ctx, &internal.Session{User: &internal.SessionUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	}})

	access, err := s.signToken(u, string(role), s.cfg.AccessTokenSecret, s.cfg.AccessTokenDuration)
	if err != nil {
		return nil, internal.NewInternalError("failed to sign access token", err)
	}
	refresh, err := s.signToken(u, string(role), s.cfg.RefreshTokenSecret, s.cfg.RefreshTokenDuration)
	if err != nil {
		return nil, internal.NewInternalError("failed to sign refresh token", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) signToken(u *usermodel.User, role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (s *Service) parseToken(token, secret string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, internal.ErrInvalidToken
	}
	return claims, nil
}
