package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/slotswapper/internal/lifecycle"
	"github.com/Leganyst/slotswapper/internal/model"
	"github.com/Leganyst/slotswapper/internal/repository"
)

// AuditLog пишет журнал обменов в транзакции перехода.
type AuditLog struct {
	logs repository.SwapLogRepository
}

func NewAuditLog(logs repository.SwapLogRepository) *AuditLog {
	return &AuditLog{logs: logs}
}

type slotsDetails struct {
	MySlotID    uuid.UUID `json:"mySlotId"`
	TheirSlotID uuid.UUID `json:"theirSlotId"`
}

type rejectDetails struct {
	InvalidatedBy *uuid.UUID `json:"invalidatedBy,omitempty"`
}

func (a *AuditLog) OnSwapRequested(ctx context.Context, tx *gorm.DB, ev lifecycle.SwapRequested) error {
	return a.write(ctx, tx, model.SwapLogRequested, ev.RequestID, ev.RequesterID, ev.ResponderID,
		slotsDetails{MySlotID: ev.MySlotID, TheirSlotID: ev.TheirSlotID})
}

func (a *AuditLog) OnSwapAccepted(ctx context.Context, tx *gorm.DB, ev lifecycle.SwapAccepted) error {
	return a.write(ctx, tx, model.SwapLogAccepted, ev.RequestID, ev.ResponderID, ev.RequesterID,
		slotsDetails{MySlotID: ev.MySlotID, TheirSlotID: ev.TheirSlotID})
}

func (a *AuditLog) OnSwapRejected(ctx context.Context, tx *gorm.DB, ev lifecycle.SwapRejected) error {
	typ := model.SwapLogRejected
	if ev.InvalidatedBy != nil {
		typ = model.SwapLogInvalidated
	}
	return a.write(ctx, tx, typ, ev.RequestID, ev.ResponderID, ev.RequesterID,
		rejectDetails{InvalidatedBy: ev.InvalidatedBy})
}

func (a *AuditLog) write(
	ctx context.Context,
	tx *gorm.DB,
	typ model.SwapLogType,
	requestID, actor, counterparty uuid.UUID,
	details any,
) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal %s details: %w", typ, err)
	}
	entry := &model.SwapLog{
		Type:           typ,
		SwapRequestID:  requestID,
		ActorID:        actor,
		CounterpartyID: counterparty,
		Details:        datatypes.JSON(raw),
	}
	if err := a.logs.WithTx(tx).Create(ctx, entry); err != nil {
		return fmt.Errorf("write %s log: %w", typ, err)
	}
	return nil
}

// HistoryForUser возвращает записи журнала с участием пользователя.
func (a *AuditLog) HistoryForUser(ctx context.Context, user uuid.UUID, limit int) ([]model.SwapLog, error) {
	entries, err := a.logs.ListForUser(ctx, user, limit)
	if err != nil {
		return nil, fmt.Errorf("list swap history: %w", err)
	}
	return entries, nil
}
