package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"checklist-backend/internal/models"

	"gorm.io/gorm"
)

type StockHistoryEntry struct {
	AuditID     uint      `json:"audit_id"`
	StockBefore float64   `json:"stock_before"`
	StockAfter  float64   `json:"stock_after"`
	UserID      uint      `json:"user_id"`
	UserName    string    `json:"user_name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// stockSnapshot Apply'ın audit kaydına yazdığı before/after şekli.
type stockSnapshot struct {
	CurrentStock *float64 `json:"current_stock"`
}

// StockHistory bir stok kaydının tüm sayımlarını audit kayıtlarından en yeniden eskiye listeler.
// Aynı instance üzerinde tekrarlanan sayımlar ayrı satır olarak görünür.
func StockHistory(ctx context.Context, db *gorm.DB, inventoryID uint, limit int) ([]StockHistoryEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var logs []models.AuditLog
	err := db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ? AND action = ?", auditEntityType, inventoryID, models.AuditActionUpdate).
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("stok geçmişi alınamadı: %w", err)
	}

	rows := make([]StockHistoryEntry, 0, len(logs))
	for _, l := range logs {
		var before, after stockSnapshot
		if json.Unmarshal([]byte(l.BeforeData), &before) != nil || json.Unmarshal([]byte(l.AfterData), &after) != nil {
			continue
		}
		if before.CurrentStock == nil || after.CurrentStock == nil {
			continue
		}
		rows = append(rows, StockHistoryEntry{
			AuditID:     l.ID,
			StockBefore: *before.CurrentStock,
			StockAfter:  *after.CurrentStock,
			UserID:      l.UserID,
			UserName:    l.UserName,
			Description: l.Description,
			CreatedAt:   l.CreatedAt,
		})
	}
	return rows, nil
}
