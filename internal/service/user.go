package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"

	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/repository"
)

// bcrypt ignores input past this many bytes
const maxPasswordBytes = 72

// UserOptions tunes password handling.
type UserOptions struct {
	MinPasswordLength int
	// HashCost defaults to bcrypt.DefaultCost.
	HashCost int
}

// UserUpdate carries the fields to change on the current user. Nil fields
// are left untouched.
type UserUpdate struct {
	Email    *string
	Password *string
	Name     *string
}

type userFields struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Name  string `json:"name" validate:"max=255"`
}

// UserService manages accounts and checks credentials.
type UserService struct {
	users     repository.UserRepository
	opts      UserOptions
	log       *zap.Logger
	dummyHash func() []byte
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, opts UserOptions, log *zap.Logger) *UserService {
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	if opts.MinPasswordLength == 0 {
		opts.MinPasswordLength = 5
	}
	cost := opts.HashCost
	return &UserService{
		users: users,
		opts:  opts,
		log:   log,
		dummyHash: sync.OnceValue(func() []byte {
			h, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
			return h
		}),
	}
}

// NormalizeEmail trims the address and lower-cases its domain part.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// emailKey is the case-folded form used for uniqueness and lookups. A
// Caser keeps state, so each call gets its own.
func (s *UserService) emailKey(email string) string {
	return cases.Fold().String(email)
}

func (s *UserService) checkPassword(ve *ValidationError, password string) {
	switch {
	case password == "":
		ve.Add("password", msgRequired)
	case len([]rune(password)) < s.opts.MinPasswordLength:
		ve.Add("password", fmt.Sprintf("Ensure this field has at least %d characters.", s.opts.MinPasswordLength))
	case len(password) > maxPasswordBytes:
		ve.Add("password", fmt.Sprintf("Ensure this field has no more than %d characters.", maxPasswordBytes))
	}
}

func (s *UserService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.HashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CreateUser validates and stores a new active user.
func (s *UserService) CreateUser(ctx context.Context, email, password, name string) (*models.User, error) {
	return s.create(ctx, email, password, name, false)
}

// CreateSuperuser stores a new user with staff and superuser rights.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	return s.create(ctx, email, password, "", true)
}

func (s *UserService) create(ctx context.Context, email, password, name string, super bool) (*models.User, error) {
	fields := userFields{Email: NormalizeEmail(email), Name: strings.TrimSpace(name)}
	ve := validateStruct(fields)
	s.checkPassword(ve, password)
	if !ve.HasErrors() {
		if taken, err := s.emailTaken(ctx, fields.Email, 0); err != nil {
			return nil, err
		} else if taken {
			ve.Add("email", msgDuplicateUser)
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        fields.Email,
		EmailKey:     s.emailKey(fields.Email),
		PasswordHash: hash,
		Name:         fields.Name,
		IsActive:     true,
		IsStaff:      super,
		IsSuperuser:  super,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("email", msgDuplicateUser)
		}
		return nil, err
	}

	s.log.Info("user created", zap.Uint("user_id", user.ID), zap.Bool("superuser", super))
	return user, nil
}

// emailTaken reports whether another user than exceptID owns email.
func (s *UserService) emailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	existing, err := s.users.GetByEmailKey(ctx, s.emailKey(email))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return existing.ID != exceptID, nil
}

// Authenticate returns the active user matching the credentials or
// ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmailKey(ctx, s.emailKey(NormalizeEmail(email)))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		// Keep the timing of unknown emails in line with wrong passwords
		bcrypt.CompareHashAndPassword(s.dummyHash(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SetPassword validates and stores a new password for user.
func (s *UserService) SetPassword(ctx context.Context, user *models.User, password string) error {
	ve := &ValidationError{}
	s.checkPassword(ve, password)
	if err := ve.OrNil(); err != nil {
		return err
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// GetUser returns the user with id or ErrNotFound.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return user, err
}

// UpdateUser applies upd to the user with id. Either every field is
// applied or none is.
func (s *UserService) UpdateUser(ctx context.Context, id uint, upd UserUpdate) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := userFields{Email: user.Email, Name: user.Name}
	if upd.Email != nil {
		fields.Email = NormalizeEmail(*upd.Email)
	}
	if upd.Name != nil {
		fields.Name = strings.TrimSpace(*upd.Name)
	}
	ve := validateStruct(fields)
	if upd.Password != nil {
		s.checkPassword(ve, *upd.Password)
	}
	if upd.Email != nil && !ve.HasErrors() {
		if taken, err := s.emailTaken(ctx, fields.Email, user.ID); err != nil {
			return nil, err
		} else if taken {
			ve.Add("email", msgDuplicateUser)
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	user.Email = fields.Email
	user.EmailKey = s.emailKey(fields.Email)
	user.Name = fields.Name
	if upd.Password != nil {
		if user.PasswordHash, err = s.hash(*upd.Password); err != nil {
			return nil, err
		}
	}
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewValidationError("email", msgDuplicateUser)
		}
		return nil, err
	}
	return user, nil
}
