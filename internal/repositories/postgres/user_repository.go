package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"signage-service/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrEmailAlreadyUsed = errors.New("email already exists")
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("email = ?", user.Email).First(&existing).Error
		if err == nil {
			return ErrEmailAlreadyUsed
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check email existence: %w", err)
		}

		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		slog.Debug("User created", "userID", user.ID, "email", user.Email)
		return nil
	})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// notFound maps gorm's not-found error onto the package sentinel.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
