package service

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/Leganyst/slotswapper/internal/lifecycle"
	"github.com/Leganyst/slotswapper/internal/repository"
)

// Core собирает сервисы ядра поверх одной БД и одной шины событий.
type Core struct {
	Bus         *lifecycle.Bus
	Events      *EventService
	Swaps       *SwapService
	Coordinator *Coordinator
	Audit       *AuditLog
	Identity    *IdentityService
}

func NewCore(db *gorm.DB, logger *slog.Logger) *Core {
	eventRepo := repository.NewGormEventRepository(db)
	swapRepo := repository.NewGormSwapRequestRepository(db)
	logRepo := repository.NewGormSwapLogRepository(db)
	userRepo := repository.NewGormUserRepository(db)

	bus := lifecycle.NewBus()
	// координатор подписывается первым, журнал следом
	coordinator := NewCoordinator(eventRepo, swapRepo, bus, logger)
	audit := NewAuditLog(logRepo)
	bus.Subscribe(audit)

	return &Core{
		Bus:         bus,
		Events:      NewEventService(db, eventRepo, logger),
		Swaps:       NewSwapService(db, eventRepo, swapRepo, coordinator, bus, logger),
		Coordinator: coordinator,
		Audit:       audit,
		Identity:    NewIdentityService(userRepo),
	}
}
