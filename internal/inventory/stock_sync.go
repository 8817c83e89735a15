package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checklist-backend/internal/audit"
	"checklist-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRecordNotFound = errors.New("stok kaydı bulunamadı")
	ErrInvalidStock   = errors.New("stok miktarı negatif olamaz")
	ErrSyncFailure    = errors.New("stok güncellenemedi")
)

const auditEntityType = "inventory_record"

// StockChange: Tek bir sayımın öncesi/sonrası
type StockChange struct {
	InventoryID uint      `json:"inventory_id"`
	Before      float64   `json:"stock_before"`
	After       float64   `json:"stock_after"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Synchronizer struct {
	log *zap.Logger
	now func() time.Time
}

func NewSynchronizer(log *zap.Logger) *Synchronizer {
	return &Synchronizer{log: log, now: time.Now}
}

// Apply stok kaydını verilen transaction içinde satır kilidiyle okur ve yeni değeri yazar.
// Eşzamanlı iki çağrıda ikincisinin Before değeri birincinin After değeridir.
// Audit kaydı da aynı transaction'a yazılır; herhangi bir adım başarısız olursa
// çağıran transaction'ı geri almalıdır.
func (s *Synchronizer) Apply(tx *gorm.DB, inventoryID uint, newStock float64, actor models.Actor) (StockChange, error) {
	if newStock < 0 {
		return StockChange{}, ErrInvalidStock
	}

	var rec models.InventoryRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&rec, "id = ?", inventoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StockChange{}, fmt.Errorf("%w (ID: %d)", ErrRecordNotFound, inventoryID)
	}
	if err != nil {
		return StockChange{}, fmt.Errorf("%w: %w", ErrSyncFailure, err)
	}

	now := s.now()
	change := StockChange{
		InventoryID: rec.ID,
		Before:      rec.CurrentStock,
		After:       newStock,
		UpdatedAt:   now,
	}

	res := tx.Model(&models.InventoryRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"current_stock":        newStock,
			"last_updated":         now,
			"last_updated_by":      actor.ID,
			"last_updated_by_name": actor.Name,
		})
	if res.Error != nil {
		return StockChange{}, fmt.Errorf("%w: %w", ErrSyncFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return StockChange{}, fmt.Errorf("%w: kayıt güncellenmedi (ID: %d)", ErrSyncFailure, rec.ID)
	}

	if err := audit.WriteLog(tx, audit.LogOptions{
		BranchID:    rec.BranchID,
		UserID:      actor.ID,
		UserName:    actor.Name,
		EntityType:  auditEntityType,
		EntityID:    rec.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("Stok sayımı: %s %.2f -> %.2f %s", rec.Name, change.Before, change.After, rec.Unit),
		Before:      map[string]interface{}{"current_stock": change.Before},
		After:       map[string]interface{}{"current_stock": change.After},
	}); err != nil {
		return StockChange{}, fmt.Errorf("%w: %w", ErrSyncFailure, err)
	}

	s.log.Debug("stok güncellendi",
		zap.Uint("inventory_id", rec.ID),
		zap.Float64("before", change.Before),
		zap.Float64("after", change.After),
		zap.Uint("actor_id", actor.ID),
	)
	return change, nil
}

// Sync Apply'ı kendi transaction'ında çalıştırır.
func (s *Synchronizer) Sync(ctx context.Context, db *gorm.DB, inventoryID uint, newStock float64, actor models.Actor) (StockChange, error) {
	var change StockChange
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		change, err = s.Apply(tx, inventoryID, newStock, actor)
		return err
	})
	return change, err
}
