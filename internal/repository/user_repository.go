package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/slotswapper/internal/model"
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.User, error)
	// Создаёт пользователя по email или возвращает существующего, обновляя имя.
	Upsert(ctx context.Context, name, email string) (*model.User, error)
	SetTokenHash(ctx context.Context, id uuid.UUID, tokenHash string) error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error; err != nil {
		return nil, notFound(err, "user "+email)
	}
	return &u, nil
}

func (r *GormUserRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	if tokenHash == "" {
		return nil, notFound(gorm.ErrRecordNotFound, "user by token")
	}
	var u model.User
	if err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&u).Error; err != nil {
		return nil, notFound(err, "user by token")
	}
	return &u, nil
}

func (r *GormUserRepository) Upsert(ctx context.Context, name, email string) (*model.User, error) {
	email = normalizeEmail(email)
	var u model.User
	tx := r.db.WithContext(ctx).Where("email = ?", email).First(&u)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			u = model.User{Name: name, Email: email, IsActive: true}
			if err := r.db.WithContext(ctx).Create(&u).Error; err != nil {
				return nil, err
			}
			return &u, nil
		}
		return nil, tx.Error
	}
	if name != "" && name != u.Name {
		if err := r.db.WithContext(ctx).Model(&u).Update("name", name).Error; err != nil {
			return nil, err
		}
		u.Name = name
	}
	return &u, nil
}

func (r *GormUserRepository) SetTokenHash(ctx context.Context, id uuid.UUID, tokenHash string) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("token_hash", tokenHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "user "+id.String())
	}
	return nil
}
