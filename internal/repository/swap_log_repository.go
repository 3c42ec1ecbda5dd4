package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/slotswapper/internal/model"
)

// Размер выборки журнала: по умолчанию и верхняя граница.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

type SwapLogRepository interface {
	WithTx(tx *gorm.DB) SwapLogRepository
	Create(ctx context.Context, entry *model.SwapLog) error
	// Записи с участием пользователя, от новых к старым.
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.SwapLog, error)
}

type GormSwapLogRepository struct {
	db *gorm.DB
}

func NewGormSwapLogRepository(db *gorm.DB) *GormSwapLogRepository {
	return &GormSwapLogRepository{db: db}
}

func (r *GormSwapLogRepository) WithTx(tx *gorm.DB) SwapLogRepository {
	return &GormSwapLogRepository{db: tx}
}

func (r *GormSwapLogRepository) Create(ctx context.Context, entry *model.SwapLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormSwapLogRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.SwapLog, error) {
	var entries []model.SwapLog
	err := r.db.WithContext(ctx).
		Where("actor_id = ? OR counterparty_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(historyLimit(limit)).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func historyLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	}
	return limit
}
