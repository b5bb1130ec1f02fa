package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

const minPasswordLen = 6

// UserService handles registration and login.
type UserService struct {
	userRepo   repository.UserRepository
	sessions   *SessionService
	bcryptCost int
	now        func() time.Time
}

// NewUserService creates a new UserService. A cost of 0 uses bcrypt.DefaultCost.
func NewUserService(userRepo repository.UserRepository, sessions *SessionService, bcryptCost int) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		userRepo:   userRepo,
		sessions:   sessions,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// RegisterRequest contains the registration form fields.
type RegisterRequest struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Vehicle  string
	Seats    int // 0 when not offering rides
}

// Register validates the request, hashes the password and stores the user.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (domain.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.User{}, ErrInvalidName
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.User{}, err
	}
	if len(req.Password) < minPasswordLen {
		return domain.User{}, ErrWeakPassword
	}
	if req.Seats != 0 && (req.Seats < domain.MinSeats || req.Seats > domain.MaxSeats) {
		return domain.User{}, ErrInvalidSeats
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: string(hash),
		Vehicle:      strings.TrimSpace(req.Vehicle),
		Seats:        req.Seats,
		CreatedAt:    s.now().UTC().Truncate(time.Second),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}
	return user, nil
}

// LoginResponse contains the user and their new session.
type LoginResponse struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}

// Login checks credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return LoginResponse{}, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResponse{}, ErrInvalidCredentials
		}
		return LoginResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResponse{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.sessions.Issue(user)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, ErrInvalidUserID
	}
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers returns all users. Rows the store could not read are skipped.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.GetAll(ctx)
	if _, err := repository.SplitMalformed(err); err != nil {
		return nil, err
	}
	return users, nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
