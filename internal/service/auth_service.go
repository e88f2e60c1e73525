package service

import (
	"context"
	"strings"
	"time"

	"bigvyapaar/internal/models"
	"bigvyapaar/internal/observability"
	"bigvyapaar/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const sessionTokenTTL = 72 * time.Hour

// AccessTokenIssuer hands out tokens for the real-time notification channel.
type AccessTokenIssuer interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

// AuthService registers users, checks passwords and issues session tokens.
type AuthService struct {
	userRepo   repository.UserRepository
	phones     repository.PhoneIndexRepository
	products   repository.ProductRepository
	tokens     AccessTokenIssuer
	jwtSecret  []byte
	bcryptCost int
}

// NewAuthService returns a new AuthService. tokens may be nil.
func NewAuthService(
	userRepo repository.UserRepository,
	phones repository.PhoneIndexRepository,
	products repository.ProductRepository,
	tokens AccessTokenIssuer,
	jwtSecret string,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		phones:     phones,
		products:   products,
		tokens:     tokens,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcrypt.DefaultCost,
	}
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	Username    string
	PhoneNumber string
	Password    string
}

// Session is what a client needs after logging in.
type Session struct {
	Token       string            `json:"token,omitempty"`
	User        *models.User      `json:"user"`
	Products    []*models.Product `json:"products"`
	AccessToken *string           `json:"access_token"`
}

// Register creates a user. The phone number is reserved first so two
// concurrent signups with one number cannot both succeed.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	phone := strings.TrimSpace(in.PhoneNumber)
	switch {
	case len(username) < 3 || len(username) > 30:
		return nil, models.NewValidationError("Username must be between 3 and 30 characters")
	case phone == "":
		return nil, models.NewValidationError("Phone number is required")
	case len(in.Password) < 8:
		return nil, models.NewValidationError("Password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		ID:               uuid.NewString(),
		Username:         username,
		PhoneNumber:      phone,
		Password:         string(hash),
		Chats:            []models.ChatLink{},
		Requests:         []models.TradeRequest{},
		TradeRequestSent: []string{},
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.phones.Reserve(ctx, phone, user.ID); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if relErr := s.phones.Release(ctx, phone); relErr != nil {
			observability.Logger.ErrorContext(ctx, "failed to release phone reservation", "error", relErr)
		}
		return nil, err
	}
	return user, nil
}

// Login checks the password for phone and returns the user.
func (s *AuthService) Login(ctx context.Context, phone, password string) (*models.User, error) {
	userID, err := s.phones.Lookup(ctx, strings.TrimSpace(phone))
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

// IssueToken signs a session JWT whose subject is userID.
func (s *AuthService) IssueToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTokenTTL)),
		ID:        uuid.NewString(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return signed, nil
}

// Session loads the profile and product list for userID. A failing token
// issuer leaves AccessToken nil instead of failing the session.
func (s *AuthService) Session(ctx context.Context, userID string) (*Session, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	session := &Session{User: user.Public(), Products: products}
	if s.tokens != nil {
		if tok, err := s.tokens.AccessToken(ctx, userID); err != nil {
			observability.Logger.WarnContext(ctx, "notification access token unavailable", "error", err)
		} else {
			session.AccessToken = &tok
		}
	}
	return session, nil
}
