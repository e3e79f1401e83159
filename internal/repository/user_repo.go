package repository

import (
	"context"

	"gorm.io/gorm"

	"ticketing/internal/domain"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	return mapError(conn(ctx, r.db).Create(u).Error)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := conn(ctx, r.db).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := conn(ctx, r.db).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	var users []domain.User
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, mapError(err)
	}
	return users, nil
}
