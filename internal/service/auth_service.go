package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minTokenKeySize = 32

var ErrInvalidTokenKey = fmt.Errorf("token key must be at least %d characters", minTokenKeySize)

type Claims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        model.User
}

type IAuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	VerifyToken(token string) (*model.User, error)
}

// AuthService 任何非空的 email/password 都是一般使用者
// 只有設定檔中的 admin email + bcrypt hash 才能取得 admin
type AuthService struct {
	key           []byte
	duration      time.Duration
	adminEmail    string
	adminPassHash []byte
	now           func() time.Time
}

var _ IAuthService = (*AuthService)(nil)

func NewAuthService(tokenKey string, duration time.Duration, adminEmail, adminPasswordHash string) (*AuthService, error) {
	if len(tokenKey) < minTokenKeySize {
		return nil, ErrInvalidTokenKey
	}
	if duration <= 0 {
		duration = 24 * time.Hour
	}
	return &AuthService{
		key:           []byte(tokenKey),
		duration:      duration,
		adminEmail:    strings.ToLower(strings.TrimSpace(adminEmail)),
		adminPassHash: []byte(adminPasswordHash),
		now:           time.Now,
	}, nil
}

// userIDFromEmail 同一個 email 永遠得到同一個 id
func userIDFromEmail(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String()
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	fields := map[string]string{}
	if email == "" {
		fields["email"] = "is required"
	}
	if password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	user := model.User{
		ID:    userIDFromEmail(email),
		Name:  strings.SplitN(email, "@", 2)[0],
		Email: email,
	}

	if s.adminEmail != "" && email == s.adminEmail {
		if len(s.adminPassHash) == 0 {
			return nil, apperr.New(apperr.UnauthenticatedCode, "invalid credentials")
		}
		if err := bcrypt.CompareHashAndPassword(s.adminPassHash, []byte(password)); err != nil {
			return nil, apperr.New(apperr.UnauthenticatedCode, "invalid credentials")
		}
		user.IsAdmin = true
	}

	token, expiresAt, err := s.createToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) createToken(user model.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.duration)
	claims := Claims{
		Name:    user.Name,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

func (s *AuthService) VerifyToken(token string) (*model.User, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.UnauthenticatedCode, "token expired", err)
		}
		return nil, apperr.Wrap(apperr.UnauthenticatedCode, "invalid token", err)
	}
	if claims.Subject == "" {
		return nil, apperr.New(apperr.UnauthenticatedCode, "invalid token")
	}
	return &model.User{
		ID:      claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		IsAdmin: claims.IsAdmin,
	}, nil
}
