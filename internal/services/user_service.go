package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jobtracknow/jobtrack-api/internal/models"
)

// ErrUserExists is returned when creating a user whose login is taken.
var ErrUserExists = errors.New("user_already_exists")

// AuthResult is the outcome of a credential check. Authenticated and rejected
// are explicit states rather than error values, so handlers cannot
// accidentally surface a "user not found" that differs from a "wrong
// password" — both are the same Rejected result.
type AuthResult struct {
	Authenticated bool
	User          *models.User
}

type UserService interface {
	CreateUser(user *models.User) error
	GetUserByLogin(login string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	CountUsers() (int64, error)
	DeleteUser(id uint) error

	// Authenticate verifies a login/password pair. The error return is for
	// storage failures only; bad credentials come back as a non-authenticated
	// result.
	Authenticate(login, password string) (AuthResult, error)
}

type userService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

func (s *userService) CreateUser(user *models.User) error {
	var existing models.User
	err := s.db.Where("login = ?", user.Login).First(&existing).Error
	if err == nil {
		return ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.Create(user).Error
}

func (s *userService) GetUserByLogin(login string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("login = ?", login).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userService) CountUsers() (int64, error) {
	var count int64
	err := s.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

func (s *userService) DeleteUser(id uint) error {
	return s.db.Delete(&models.User{}, id).Error
}

func (s *userService) Authenticate(login, password string) (AuthResult, error) {
	var user models.User
	err := s.db.Where("login = ?", login).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthResult{}, nil
		}
		return AuthResult{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Passwd), []byte(password)) != nil {
		return AuthResult{}, nil
	}
	return AuthResult{Authenticated: true, User: &user}, nil
}

// HashPassword produces the bcrypt hash stored in the passwd column.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
