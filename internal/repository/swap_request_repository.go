package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/slotswapper/internal/model"
)

type SwapRequestRepository interface {
	WithTx(tx *gorm.DB) SwapRequestRepository
	// Создать заявку.
	Create(ctx context.Context, req *model.SwapRequest) error
	// Заявка со всеми связями (инициатор, оба слота с владельцами).
	GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	// Заявка с блокировкой строки, без связей.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error)
	// Входящие: пользователь отвечает.
	ListIncoming(ctx context.Context, userID uuid.UUID) ([]model.SwapRequest, error)
	// Исходящие: пользователь инициатор.
	ListOutgoing(ctx context.Context, userID uuid.UUID) ([]model.SwapRequest, error)
	// PENDING заявки, ссылающиеся на любой из слотов, кроме excludeID. С блокировкой.
	ListPendingByEvents(ctx context.Context, eventIDs []uuid.UUID, excludeID uuid.UUID) ([]model.SwapRequest, error)
	// Перевести статус, только если заявка всё ещё в статусе from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.SwapStatus, respondedAt time.Time) (bool, error)
}

// Реализация на GORM.
type GormSwapRequestRepository struct {
	db *gorm.DB
}

func NewGormSwapRequestRepository(db *gorm.DB) *GormSwapRequestRepository {
	return &GormSwapRequestRepository{db: db}
}

func (r *GormSwapRequestRepository) WithTx(tx *gorm.DB) SwapRequestRepository {
	return &GormSwapRequestRepository{db: tx}
}

func (r *GormSwapRequestRepository) Create(ctx context.Context, req *model.SwapRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *GormSwapRequestRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Requester").
		Preload("MySlot.Owner").
		Preload("TheirSlot.Owner")
}

func (r *GormSwapRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	var req model.SwapRequest
	if err := r.withRelations(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "swap request "+id.String())
	}
	return &req, nil
}

func (r *GormSwapRequestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.SwapRequest, error) {
	var req model.SwapRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "swap request "+id.String())
	}
	return &req, nil
}

func (r *GormSwapRequestRepository) ListIncoming(ctx context.Context, userID uuid.UUID) ([]model.SwapRequest, error) {
	var reqs []model.SwapRequest
	err := r.withRelations(ctx).
		Where("responder_id = ?", userID).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *GormSwapRequestRepository) ListOutgoing(ctx context.Context, userID uuid.UUID) ([]model.SwapRequest, error) {
	var reqs []model.SwapRequest
	err := r.withRelations(ctx).
		Where("requester_id = ?", userID).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *GormSwapRequestRepository) ListPendingByEvents(
	ctx context.Context,
	eventIDs []uuid.UUID,
	excludeID uuid.UUID,
) ([]model.SwapRequest, error) {
	if len(eventIDs) == 0 {
		return []model.SwapRequest{}, nil
	}
	var reqs []model.SwapRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ?", model.SwapStatusPending).
		Where("id <> ?", excludeID).
		Where("(my_slot_id IN ? OR their_slot_id IN ?)", eventIDs, eventIDs).
		Order("id ASC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *GormSwapRequestRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to model.SwapStatus,
	respondedAt time.Time,
) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.SwapRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":       to,
			"responded_at": respondedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
