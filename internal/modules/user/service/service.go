package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"anoa.com/studentroster/internal/entity"
	session "anoa.com/studentroster/internal/modules/session/service"
	"anoa.com/studentroster/internal/modules/user/dto"
	"anoa.com/studentroster/internal/modules/user/repository"
	"anoa.com/studentroster/pkg/apperror"
	"anoa.com/studentroster/pkg/ratelimiter"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var errInvalidCredentials = apperror.New(http.StatusUnauthorized, "Invalid login credentials", apperror.ErrUnauthorized)

type AuthService interface {
	SignUp(ctx context.Context, input dto.SignUpInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, tokenID string, expiresAt time.Time) error
	Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
}

type Options struct {
	Secret        string
	TokenTTL      time.Duration
	LoginCooldown time.Duration
}

type authService struct {
	repo        repository.UserRepository
	sessions    session.Service
	redisClient *redis.Client
	opts        Options
}

func NewAuthService(repo repository.UserRepository, sessions session.Service, redisClient *redis.Client, opts Options) AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	return &authService{
		repo:        repo,
		sessions:    sessions,
		redisClient: redisClient,
		opts:        opts,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) SignUp(ctx context.Context, input dto.SignUpInput) (*dto.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		Email:        normalizeEmail(input.Email),
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.startSession(ctx, user)
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	email := normalizeEmail(input.Email)

	allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, email, ratelimiter.ScopeLogin, s.opts.LoginCooldown)
	if err != nil {
		logrus.WithError(err).Warn("login rate limit check failed")
	} else if !allowed {
		ttl, _ := ratelimiter.GetRateLimitTTL(ctx, s.redisClient, email, ratelimiter.ScopeLogin)
		return nil, &ratelimiter.RateLimitError{
			Message:    "Too many login attempts, please wait a moment",
			RetryAfter: ttl,
		}
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	if err := ratelimiter.ClearRateLimit(ctx, s.redisClient, email, ratelimiter.ScopeLogin); err != nil {
		logrus.WithError(err).Warn("failed to clear login rate limit")
	}

	return s.startSession(ctx, user)
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID, tokenID string, expiresAt time.Time) error {
	if tokenID != "" {
		if err := s.sessions.RevokeToken(ctx, tokenID, time.Until(expiresAt)); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
	}

	if err := s.sessions.Publish(ctx, userID, session.SignedOut()); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("failed to publish sign-out")
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(http.StatusUnauthorized, "user no longer exists", apperror.ErrUnauthorized)
		}
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) startSession(ctx context.Context, user *entity.User) (*dto.AuthResponse, error) {
	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	resp := &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.opts.TokenTTL.Seconds()),
		User:        dto.NewUserResponse(user),
	}

	if err := s.sessions.Publish(ctx, user.ID, session.SignedIn(resp.User)); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("failed to publish sign-in")
	}
	return resp, nil
}

func (s *authService) generateToken(user *entity.User) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.opts.Secret))
}
