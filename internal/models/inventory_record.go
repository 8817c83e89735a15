package models

import (
	"time"

	"gorm.io/gorm"
)

// InventoryRecord: Stok kaydı. Stok bağlantılı maddeler tamamlandığında güncellenir.
type InventoryRecord struct {
	ID                uint      `gorm:"primaryKey"`
	BranchID          *uint     `gorm:"index"`
	Name              string    `gorm:"size:100;not null"`
	Unit              string    `gorm:"size:20;not null"` // kg, adet, koli vs.
	CurrentStock      float64   `gorm:"not null;default:0"`
	MinStock          float64   `gorm:"not null;default:0"`
	LastUpdated       time.Time `gorm:"not null;index"`
	LastUpdatedBy     *uint
	LastUpdatedByName string `gorm:"size:100"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BeforeCreate: Hiç güncellenmemiş kayıtta LastUpdated == CreatedAt olmalı,
// bayatlık sorgusu bu eşitliği "hiç dokunulmamış" sinyali olarak kullanır.
func (r *InventoryRecord) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.LastUpdated.IsZero() {
		r.LastUpdated = r.CreatedAt
	}
	return nil
}
