package inventory

import (
	"context"
	"fmt"
	"math"
	"time"

	"checklist-backend/internal/models"

	"gorm.io/gorm"
)

type StaleQuery struct {
	Days     int
	BranchID *uint // çalışan görünümünde çalışanın şubesi
}

type StaleItem struct {
	ID                uint      `json:"id"`
	Name              string    `json:"name"`
	Unit              string    `json:"unit"`
	CurrentStock      float64   `json:"current_stock"`
	MinStock          float64   `json:"min_stock"`
	LastUpdated       time.Time `json:"last_updated"`
	LastUpdatedByName string    `json:"last_updated_by_name"`
	DaysSinceUpdate   int       `json:"days_since_update"`
	IsLowStock        bool      `json:"is_low_stock"`
	NeverUpdated      bool      `json:"never_updated"`
}

type StaleStats struct {
	Total            int     `json:"total"`
	LowStock         int     `json:"low_stock"`
	AverageDaysStale float64 `json:"average_days_stale"`
}

type StaleReport struct {
	Days        int         `json:"days"`
	GeneratedAt time.Time   `json:"generated_at"`
	Items       []StaleItem `json:"items"`
	Stats       StaleStats  `json:"stats"`
}

// Detector N gündür güncellenmeyen stok kayıtlarını bulur. Sadece okuma yapar.
type Detector struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDetector(db *gorm.DB) *Detector {
	return &Detector{db: db, now: time.Now}
}

// Stale hem admin hem çalışan görünümü tarafından aynı anlamla kullanılır.
// last_updated == created_at eşitliği kaydın oluşturulduktan sonra hiç
// güncellenmediğini gösterir; gerçek bir güncelleme last_updated'ı ileri taşır.
func (d *Detector) Stale(ctx context.Context, q StaleQuery) (*StaleReport, error) {
	if q.Days <= 0 {
		return nil, fmt.Errorf("gün sayısı pozitif olmalı: %d", q.Days)
	}

	now := d.now()
	cutoff := now.Add(-time.Duration(q.Days) * 24 * time.Hour)

	dbq := d.db.WithContext(ctx).Model(&models.InventoryRecord{}).
		Where("last_updated <= ? OR (last_updated = created_at AND created_at <= ?)", cutoff, cutoff)
	if q.BranchID != nil {
		dbq = dbq.Where("branch_id = ?", *q.BranchID)
	}

	var records []models.InventoryRecord
	if err := dbq.Order("last_updated ASC, id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("bayat stoklar alınamadı: %w", err)
	}

	report := &StaleReport{
		Days:        q.Days,
		GeneratedAt: now,
		Items:       make([]StaleItem, 0, len(records)),
	}

	totalDays := 0
	for _, r := range records {
		days := int(now.Sub(r.LastUpdated) / (24 * time.Hour))
		if days < 0 {
			days = 0
		}
		item := StaleItem{
			ID:                r.ID,
			Name:              r.Name,
			Unit:              r.Unit,
			CurrentStock:      r.CurrentStock,
			MinStock:          r.MinStock,
			LastUpdated:       r.LastUpdated,
			LastUpdatedByName: r.LastUpdatedByName,
			DaysSinceUpdate:   days,
			IsLowStock:        r.CurrentStock <= r.MinStock,
			NeverUpdated:      r.LastUpdated.Equal(r.CreatedAt),
		}
		if item.IsLowStock {
			report.Stats.LowStock++
		}
		totalDays += days
		report.Items = append(report.Items, item)
	}

	report.Stats.Total = len(report.Items)
	if report.Stats.Total > 0 {
		avg := float64(totalDays) / float64(report.Stats.Total)
		report.Stats.AverageDaysStale = math.Round(avg*10) / 10
	}
	return report, nil
}
