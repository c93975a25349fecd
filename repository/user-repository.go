package repository

import (
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Permission string

const (
	PermissionAdmin Permission = "admin"
	// PermissionPrimaryAdmin gates irreversible operations such as
	// permanent round deletion.
	PermissionPrimaryAdmin Permission = "primary_admin"
)

type User struct {
	Id          int            `gorm:"primaryKey"`
	Name        string         `gorm:"not null"`
	Email       string         `gorm:"not null;uniqueIndex"`
	Enabled     bool           `gorm:"not null;default:true"`
	Permissions pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
}

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) GetUserById(userId int) (*User, error) {
	var user User
	result := r.DB.First(&user, userId)
	if result.Error != nil {
		return nil, fmt.Errorf("user with id %d not found", userId)
	}
	return &user, nil
}

func (r *UserRepository) GetUserByEmail(email string) (*User, error) {
	var user User
	result := r.DB.Where("email = ?", email).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func (r *UserRepository) SaveUser(user *User) (*User, error) {
	result := r.DB.Save(user)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save user: %v", result.Error)
	}
	return user, nil
}

func (r *UserRepository) GetAllUsers() ([]*User, error) {
	users := make([]*User, 0)
	result := r.DB.Order("id ASC").Find(&users)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find users: %v", result.Error)
	}
	return users, nil
}
