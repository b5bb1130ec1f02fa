package csvstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"carpool/internal/domain"
	"carpool/internal/repository"
)

var userCodec = codec[domain.User]{
	name:     "users",
	header:   []string{"user_id", "name", "email", "phone", "password_hash", "vehicle", "seats", "created_at"},
	required: []string{"user_id", "email"},
	key:      func(u domain.User) string { return u.ID },
	encode: func(u domain.User) []string {
		return []string{
			u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.Vehicle,
			strconv.Itoa(u.Seats), formatTime(u.CreatedAt),
		}
	},
	decode: func(field func(string) string) (domain.User, error) {
		u := domain.User{
			ID:           field("user_id"),
			Name:         field("name"),
			Email:        field("email"),
			Phone:        field("phone"),
			PasswordHash: field("password_hash"),
			Vehicle:      field("vehicle"),
		}
		if u.ID == "" || u.Email == "" {
			return u, errors.New("empty user_id or email")
		}

		var err error
		if s := field("seats"); s != "" {
			if u.Seats, err = strconv.Atoi(s); err != nil {
				return u, fmt.Errorf("invalid seats %q", s)
			}
		}
		if u.CreatedAt, err = parseTime(field("created_at")); err != nil {
			return u, err
		}
		return u, nil
	},
}

// UserStore is a CSV implementation of repository.UserRepository.
type UserStore struct {
	t *table[domain.User]
}

// NewUserStore creates a user store over b.
func NewUserStore(b Backing, opts ...Option) *UserStore {
	return &UserStore{t: newTable(b, userCodec, opts...)}
}

var _ repository.UserRepository = (*UserStore)(nil)

// Create adds a user. Both the ID and the email must be unused.
func (s *UserStore) Create(ctx context.Context, user domain.User) error {
	return s.t.insert(ctx, user, func(existing domain.User) bool {
		return strings.EqualFold(existing.Email, user.Email)
	})
}

func (s *UserStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	return s.find(ctx, func(u domain.User) bool { return u.ID == id })
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	email = strings.TrimSpace(email)
	return s.find(ctx, func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *UserStore) GetAll(ctx context.Context) ([]domain.User, error) {
	return s.t.list(ctx)
}

func (s *UserStore) find(ctx context.Context, match func(domain.User) bool) (domain.User, error) {
	users, err := s.t.list(ctx)
	if _, err = repository.SplitMalformed(err); err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if match(u) {
			return u, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}
