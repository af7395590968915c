package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/port"
)

var authTracer = otel.Tracer("service/auth")

const tokenIssuer = "backoffice-bff"

// AuthService orchestrates authentication flows.
type AuthService struct {
	api        port.BackofficeAPI
	store      port.PreferencesStore
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	validate   *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(api port.BackofficeAPI, store port.PreferencesStore, jwtSecret string, accessTTL, refreshTTL time.Duration, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		api:        api,
		store:      store,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		validate:   newValidator(),
		logger:     logger,
		now:        time.Now,
	}
}

func refreshKey(hash string) string { return "refresh:" + hash }
func sessionKey(userID string) string { return "session:" + userID }

// ============================================================
// Login (POST /v1/auth/login)
// ============================================================

// Login checks the credentials upstream and issues a token pair.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("email", req.Email))

	user, err := s.api.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		s.logger.Warn("login failed", zap.String("email", req.Email), zap.Error(err))
		return nil, err
	}
	if user.Blocked || !user.Active {
		s.logger.Warn("login: account disabled", zap.String("user_id", user.ID))
		return nil, &domain.ErrUnauthorized{Message: "Unauthorized: account disabled"}
	}

	resp, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("backoffice user logged in", zap.String("user_id", user.ID), zap.Strings("roles", user.Roles))
	return resp, nil
}

// ============================================================
// Refresh (POST /v1/auth/refresh)
// ============================================================

// Refresh exchanges a refresh token for a new token pair. The old refresh
// token is revoked. Roles are re-read from upstream so role changes apply
// on the next refresh.
func (s *AuthService) Refresh(ctx context.Context, req *domain.RefreshRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	tokenHash := hashToken(req.RefreshToken)
	var sess domain.Session
	ok, err := s.store.Get(ctx, refreshKey(tokenHash), &sess)
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	if !ok {
		return nil, &domain.ErrUnauthorized{Message: "Unauthorized: invalid refresh token"}
	}

	// Revoke old token (rotation)
	_ = s.store.Delete(ctx, refreshKey(tokenHash))

	if sess.ExpiresAt.Before(s.now()) {
		s.logger.Warn("refresh: expired token used", zap.String("user_id", sess.UserID))
		return nil, &domain.ErrUnauthorized{Message: "Unauthorized: refresh token expired"}
	}

	users, err := s.api.ListBackofficeUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load backoffice user: %w", err)
	}
	for i := range users {
		if users[i].ID != sess.UserID {
			continue
		}
		if users[i].Blocked || !users[i].Active {
			return nil, &domain.ErrUnauthorized{Message: "Unauthorized: account disabled"}
		}
		return s.issue(ctx, &users[i])
	}
	return nil, &domain.ErrUnauthorized{Message: "Unauthorized: unknown user"}
}

// ============================================================
// Logout (POST /v1/auth/logout)
// ============================================================

// Logout revokes the refresh token of userID.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	ctx, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	var sess domain.Session
	ok, err := s.store.Get(ctx, sessionKey(userID), &sess)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if ok {
		if err := s.store.Delete(ctx, refreshKey(sess.RefreshTokenHash)); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
	}
	if err := s.store.Delete(ctx, sessionKey(userID)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.logger.Info("backoffice user logged out", zap.String("user_id", userID))
	return nil
}

// ============================================================
// Token validation (used by middleware)
// ============================================================

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Email     string   `json:"email"`
	CompanyID string   `json:"company"`
	Roles     []string `json:"roles"`
	Type      string   `json:"type"`
	jwt.RegisteredClaims
}

// Principal converts the claims into the request principal.
func (c *JWTClaims) Principal() domain.Principal {
	return domain.Principal{
		UserID:    c.Subject,
		Email:     c.Email,
		CompanyID: c.CompanyID,
		Roles:     domain.NewRoleSet(c.Roles...),
	}
}

// ValidateAccessToken parses an HS256 access token and returns its claims.
func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Unauthorized: invalid or expired token"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Unauthorized: invalid token"}
	}
	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "Unauthorized: wrong token type"}
	}
	return claims, nil
}

// ============================================================
// Internal JWT helpers
// ============================================================

// issue signs an access token and stores a fresh refresh token, replacing
// any previous session of the user.
func (s *AuthService) issue(ctx context.Context, user *domain.BackofficeUser) (*domain.LoginResponse, error) {
	accessToken, err := s.signAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	var prev domain.Session
	if ok, _ := s.store.Get(ctx, sessionKey(user.ID), &prev); ok {
		_ = s.store.Delete(ctx, refreshKey(prev.RefreshTokenHash))
	}

	sess := domain.Session{UserID: user.ID, RefreshTokenHash: refreshHash, ExpiresAt: s.now().Add(s.refreshTTL)}
	if err := s.store.Put(ctx, refreshKey(refreshHash), sess, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	if err := s.store.Put(ctx, sessionKey(user.ID), sess, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
		User:         *user,
	}, nil
}

func (s *AuthService) signAccessToken(user *domain.BackofficeUser) (string, error) {
	now := s.now()
	claims := JWTClaims{
		Email:     user.Email,
		CompanyID: user.CompanyID,
		Roles:     user.Roles,
		Type:      "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func generateRefreshToken() (raw string, hashed string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(b)
	return raw, hashToken(raw), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
