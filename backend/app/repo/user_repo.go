package repo

import (
	"context"

	"fleet-relay/backend/app/models"

	"gorm.io/gorm"
)

type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) CountByUsername(ctx context.Context, username string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count, MapError("count users", err)
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return MapError("create user", r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).Take(&u).Error; err != nil {
		return nil, MapError("find user", err)
	}
	return &u, nil
}
