package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidEmail       = errors.New("please enter a valid email address")
	ErrPasswordRequired   = errors.New("please fill in both email and password")
	ErrUserExists         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// User is a registered account
type User struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// NormalizeEmail trims and lowercases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Users returns every registered account
func (s *Store) Users(ctx context.Context) ([]User, error) {
	var users []User
	if _, err := s.getJSON(ctx, UsersKey, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindUser looks up an account by email
func (s *Store) FindUser(ctx context.Context, email string) (*User, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	email = NormalizeEmail(email)
	for i := range users {
		if users[i].Email == email {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

// Register creates an account and its default data
func (s *Store) Register(ctx context.Context, name, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrPasswordRequired
	}
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}
	user := User{Name: name, Email: email, PasswordHash: string(hash)}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == email {
			return nil, ErrUserExists
		}
	}

	if err := s.setJSON(ctx, UsersKey, append(users, user)); err != nil {
		return nil, fmt.Errorf("could not create account: %w", err)
	}
	if err := s.setJSON(ctx, UserDataKey(email), NewUserData()); err != nil {
		s.logger.Error("failed to save default user data", "email", email, "error", err)
	}

	s.logger.Info("user registered", "email", email)
	return &user, nil
}

// Authenticate checks a password against the stored hash
func (s *Store) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.FindUser(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SetActiveUser remembers the signed-in desktop user
func (s *Store) SetActiveUser(ctx context.Context, email string) error {
	return s.kv.Set(ctx, ActiveUserKey, NormalizeEmail(email))
}

// ActiveUser returns the remembered desktop user, if any
func (s *Store) ActiveUser(ctx context.Context) (*User, error) {
	email, ok, err := s.kv.Get(ctx, ActiveUserKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read active user: %w", err)
	}
	if !ok || email == "" {
		return nil, ErrUserNotFound
	}
	return s.FindUser(ctx, email)
}

// ClearActiveUser signs the desktop user out
func (s *Store) ClearActiveUser(ctx context.Context) error {
	return s.kv.Delete(ctx, ActiveUserKey)
}
