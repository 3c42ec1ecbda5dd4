package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей ядра обменов.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Event{},
		&SwapRequest{},
		&SwapLog{},
	)
}
