package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Leganyst/slotswapper/internal/config"
	"github.com/Leganyst/slotswapper/internal/db"
	"github.com/Leganyst/slotswapper/internal/model"
)

// newTestDB открывает файловую SQLite с одним соединением: транзакции
// из разных горутин выполняются строго по очереди.
func newTestDB(t *testing.T) *gorm.DB {
	return openTestDB(t, 1)
}

// newPooledTestDB открывает базу с пулом как в рабочей конфигурации,
// транзакции конкурируют за блокировку файла.
func newPooledTestDB(t *testing.T) *gorm.DB {
	return openTestDB(t, config.DefaultAppConfig().DB.MaxOpenConns)
}

func openTestDB(t *testing.T, maxOpenConns int) *gorm.DB {
	t.Helper()

	gdb, err := db.NewGormDB(&config.DBConfig{
		Driver:       config.DriverSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "core.db"),
		MaxOpenConns: maxOpenConns,
	})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(gdb))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return gdb
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	t    *testing.T
	ctx  context.Context
	db   *gorm.DB
	core *Core
	base time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, newTestDB(t))
}

func newFixtureOn(t *testing.T, gdb *gorm.DB) *fixture {
	t.Helper()
	return &fixture{
		t:    t,
		ctx:  context.Background(),
		db:   gdb,
		core: NewCore(gdb, discardLogger()),
		base: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) user(name string) uuid.UUID {
	f.t.Helper()
	u := &model.User{Name: name, Email: name + "@example.com", IsActive: true}
	require.NoError(f.t, f.db.Create(u).Error)
	return u.ID
}

// event создаёт слот владельца, hour отсчитывается от базового времени.
func (f *fixture) event(owner uuid.UUID, title string, hour int) *model.Event {
	f.t.Helper()
	start := f.base.Add(time.Duration(hour) * time.Hour)
	ev, err := f.core.Events.CreateEvent(f.ctx, owner, title, start, start.Add(time.Hour))
	require.NoError(f.t, err)
	return ev
}

func (f *fixture) swappable(owner uuid.UUID, title string, hour int) *model.Event {
	f.t.Helper()
	ev := f.event(owner, title, hour)
	ev, err := f.core.Events.SetAvailability(f.ctx, ev.ID, owner, model.EventStatusSwappable)
	require.NoError(f.t, err)
	return ev
}

func (f *fixture) reload(id uuid.UUID) model.Event {
	f.t.Helper()
	var ev model.Event
	require.NoError(f.t, f.db.First(&ev, "id = ?", id).Error)
	return ev
}

func (f *fixture) reloadSwap(id uuid.UUID) model.SwapRequest {
	f.t.Helper()
	var req model.SwapRequest
	require.NoError(f.t, f.db.First(&req, "id = ?", id).Error)
	return req
}
