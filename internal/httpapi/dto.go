package httpapi

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/slotswapper/internal/model"
)

// Формат ответа совпадает с тем, что ждёт веб-клиент: идентификаторы в `_id`,
// владелец и инициатор заявки вложены краткой карточкой.

type userDTO struct {
	ID   uuid.UUID `json:"_id"`
	Name string    `json:"name"`
}

type eventDTO struct {
	ID        uuid.UUID         `json:"_id"`
	Title     string            `json:"title"`
	StartTime time.Time         `json:"startTime"`
	EndTime   time.Time         `json:"endTime"`
	Status    model.EventStatus `json:"status"`
	Owner     userDTO           `json:"owner"`
}

type swapDTO struct {
	ID          uuid.UUID        `json:"_id"`
	Status      model.SwapStatus `json:"status"`
	Requester   userDTO          `json:"requester"`
	ResponderID uuid.UUID        `json:"responderId"`
	MySlot      *eventDTO        `json:"mySlot"`
	TheirSlot   *eventDTO        `json:"theirSlot"`
	CreatedAt   time.Time        `json:"createdAt"`
	RespondedAt *time.Time       `json:"respondedAt,omitempty"`
}

type inboxDTO struct {
	Incoming []swapDTO `json:"incoming"`
	Outgoing []swapDTO `json:"outgoing"`
}

type historyDTO struct {
	ID             uuid.UUID         `json:"_id"`
	Type           model.SwapLogType `json:"type"`
	SwapRequestID  uuid.UUID         `json:"swapRequestId"`
	ActorID        uuid.UUID         `json:"actorId"`
	CounterpartyID uuid.UUID         `json:"counterpartyId"`
	Details        json.RawMessage   `json:"details,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

func toUserDTO(id uuid.UUID, u *model.User) userDTO {
	dto := userDTO{ID: id}
	if u != nil {
		dto.Name = u.Name
	}
	return dto
}

func toEventDTO(e *model.Event) eventDTO {
	return eventDTO{
		ID:        e.ID,
		Title:     e.Title,
		StartTime: e.StartTime.UTC(),
		EndTime:   e.EndTime.UTC(),
		Status:    e.Status,
		Owner:     toUserDTO(e.OwnerID, e.Owner),
	}
}

func toEventDTOs(events []model.Event) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for i := range events {
		out = append(out, toEventDTO(&events[i]))
	}
	return out
}

func toSwapDTO(r *model.SwapRequest) swapDTO {
	dto := swapDTO{
		ID:          r.ID,
		Status:      r.Status,
		Requester:   toUserDTO(r.RequesterID, r.Requester),
		ResponderID: r.ResponderID,
		CreatedAt:   r.CreatedAt.UTC(),
	}
	if r.MySlot != nil {
		ev := toEventDTO(r.MySlot)
		dto.MySlot = &ev
	}
	if r.TheirSlot != nil {
		ev := toEventDTO(r.TheirSlot)
		dto.TheirSlot = &ev
	}
	if r.RespondedAt != nil {
		at := r.RespondedAt.UTC()
		dto.RespondedAt = &at
	}
	return dto
}

func toSwapDTOs(reqs []model.SwapRequest) []swapDTO {
	out := make([]swapDTO, 0, len(reqs))
	for i := range reqs {
		out = append(out, toSwapDTO(&reqs[i]))
	}
	return out
}

func toHistoryDTOs(logs []model.SwapLog) []historyDTO {
	out := make([]historyDTO, 0, len(logs))
	for _, l := range logs {
		dto := historyDTO{
			ID:             l.ID,
			Type:           l.Type,
			SwapRequestID:  l.SwapRequestID,
			ActorID:        l.ActorID,
			CounterpartyID: l.CounterpartyID,
			CreatedAt:      l.CreatedAt.UTC(),
		}
		if len(l.Details) > 0 {
			dto.Details = json.RawMessage(l.Details)
		}
		out = append(out, dto)
	}
	return out
}
