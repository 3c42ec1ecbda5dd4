package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/slotswapper/internal/model"
)

// EventGuard — ожидаемое состояние слота для условного обновления.
// LockedBy == nil означает, что слот не должен удерживаться заявкой.
type EventGuard struct {
	Status   model.EventStatus
	LockedBy *uuid.UUID
}

// EventUpdate — новое состояние слота. OwnerID == nil оставляет владельца.
type EventUpdate struct {
	Status   model.EventStatus
	LockedBy *uuid.UUID
	OwnerID  *uuid.UUID
}

type EventRepository interface {
	// Репозиторий поверх транзакции.
	WithTx(tx *gorm.DB) EventRepository
	// Создать слот.
	Create(ctx context.Context, event *model.Event) error
	// Найти слот по ID вместе с владельцем.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	// Загрузить слоты с блокировкой строк (SELECT ... FOR UPDATE), в порядке ID.
	GetForUpdate(ctx context.Context, ids ...uuid.UUID) ([]model.Event, error)
	// Слоты владельца по возрастанию начала.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Event, error)
	// SWAPPABLE слоты всех, кроме excludingOwner.
	ListSwappable(ctx context.Context, excludingOwner uuid.UUID) ([]model.Event, error)
	// Условное обновление: применяется, только если слот в состоянии guard.
	UpdateGuarded(ctx context.Context, id uuid.UUID, guard EventGuard, upd EventUpdate) (bool, error)
}

// Реализация на GORM.
type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) WithTx(tx *gorm.DB) EventRepository {
	return &GormEventRepository{db: tx}
}

func (r *GormEventRepository) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *GormEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var e model.Event
	if err := r.db.WithContext(ctx).Preload("Owner").First(&e, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "event "+id.String())
	}
	return &e, nil
}

func (r *GormEventRepository) GetForUpdate(ctx context.Context, ids ...uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *GormEventRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("owner_id = ?", ownerID).
		Order("start_time ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *GormEventRepository) ListSwappable(ctx context.Context, excludingOwner uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("status = ?", model.EventStatusSwappable).
		Where("owner_id <> ?", excludingOwner).
		Order("start_time ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *GormEventRepository) UpdateGuarded(
	ctx context.Context,
	id uuid.UUID,
	guard EventGuard,
	upd EventUpdate,
) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("id = ?", id).
		Where("status = ?", guard.Status)
	if guard.LockedBy != nil {
		q = q.Where("locked_by = ?", *guard.LockedBy)
	} else {
		q = q.Where("locked_by IS NULL")
	}

	update := map[string]any{
		"status":    upd.Status,
		"locked_by": nil,
	}
	if upd.LockedBy != nil {
		update["locked_by"] = *upd.LockedBy
	}
	if upd.OwnerID != nil {
		update["owner_id"] = *upd.OwnerID
	}

	res := q.Updates(update)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
