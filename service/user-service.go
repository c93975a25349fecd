package service

import (
	"strings"

	"pickem/app_error"
	"pickem/repository"

	"gorm.io/gorm"
)

type UserService struct {
	userRepository *repository.UserRepository
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		userRepository: repository.NewUserRepository(db),
	}
}

func (s *UserService) GetAllUsers() ([]*repository.User, error) {
	return s.userRepository.GetAllUsers()
}

func (s *UserService) GetUserById(userId int) (*repository.User, error) {
	return s.userRepository.GetUserById(userId)
}

func (s *UserService) GetUserByEmail(email string) (*repository.User, error) {
	return s.userRepository.GetUserByEmail(email)
}

func (s *UserService) SaveUser(user *repository.User) (*repository.User, error) {
	if user.Name == "" {
		return nil, app_error.New(app_error.Validation, "user name is required")
	}
	if !strings.Contains(user.Email, "@") {
		return nil, app_error.New(app_error.Validation, "invalid email address %q", user.Email)
	}
	return s.userRepository.SaveUser(user)
}
