package user

import (
	defError "errors"

	"property-outline-cms/internal/domain"
	"property-outline-cms/internal/errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service defines the interface for user business logic
type Service interface {
	Login(email, password string) (*domain.User, error)
	GetUserByID(id string) (*domain.User, error)
	ListUsers() ([]domain.SafeUser, error)
	CreateUser(user *domain.User) error
	UpdateUser(id string, input UpdateUserInput) (*domain.User, error)
	DeleteUser(id string) error
}

// UpdateUserInput carries the optional fields of a user update.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
	IsActive *bool
}

// DefaultService implements Service
type DefaultService struct {
	repository UserRepository
}

// NewService creates a new user service
func NewService(repository UserRepository) Service {
	return &DefaultService{repository: repository}
}

// Login authenticates a user
func (s *DefaultService) Login(email, password string) (*domain.User, error) {
	// Find user by email
	user, err := s.repository.FindByEmail(email)
	if err != nil {
		return nil, errors.Unauthorized("User not found", err)
	}

	// Check if user is active
	if !user.IsActive {
		return nil, errors.Unauthorized("User is not active", nil)
	}

	// Check password
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return nil, errors.Unauthorized("Wrong password", err)
	}

	return user, nil
}

// GetUserByID gets a user by ID
func (s *DefaultService) GetUserByID(id string) (*domain.User, error) {
	return s.repository.FindByID(id)
}

func (s *DefaultService) ListUsers() ([]domain.SafeUser, error) {
	users, err := s.repository.List()
	if err != nil {
		return nil, err
	}

	result := make([]domain.SafeUser, 0, len(users))
	for i := range users {
		result = append(result, users[i].ToSafeUser())
	}
	return result, nil
}

// CreateUser registers a new account with a hashed password.
func (s *DefaultService) CreateUser(user *domain.User) error {
	// Check if user with email already exists
	_, err := s.repository.FindByEmail(user.Email)
	if err != nil && !defError.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil {
		return errors.UnprocessableEntity("User already registered", nil)
	}

	// Hash the password before saving
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.UnprocessableEntity("Can't hash password", err)
	}
	user.PasswordHash = string(hashedPassword)
	if user.Role == "" {
		user.Role = domain.RoleEditor
	}
	user.IsActive = true

	// Create user
	return s.repository.Create(user)
}

func (s *DefaultService) UpdateUser(id string, input UpdateUserInput) (*domain.User, error) {
	user, err := s.repository.FindByID(id)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("User not found", err)
		}
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil && *input.Email != user.Email {
		// new email must not belong to someone else
		if existing, err := s.repository.FindByEmail(*input.Email); err == nil && existing.ID != id {
			return nil, errors.BadRequest("Email already in use", nil)
		}
		user.Email = *input.Email
	}
	if input.Password != nil && *input.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.UnprocessableEntity("Can't hash password", err)
		}
		user.PasswordHash = string(hashed)
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.repository.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *DefaultService) DeleteUser(id string) error {
	if _, err := s.repository.FindByID(id); err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("User not found", err)
		}
		return err
	}
	return s.repository.Delete(id)
}
