package inventory

import (
	"context"
	"errors"
	"fmt"

	"checklist-backend/internal/models"

	"gorm.io/gorm"
)

// TitleResolver stok bağlantılarını okunabilir başlığa çevirir.
type TitleResolver struct {
	db *gorm.DB
}

func NewTitleResolver(db *gorm.DB) *TitleResolver {
	return &TitleResolver{db: db}
}

func (r *TitleResolver) Resolve(ctx context.Context, targetID uint) (string, error) {
	var rec models.InventoryRecord
	err := r.db.WithContext(ctx).Select("id", "name", "unit", "current_stock").First(&rec, "id = ?", targetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("%w (ID: %d)", ErrRecordNotFound, targetID)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s (%.2f %s)", rec.Name, rec.CurrentStock, rec.Unit), nil
}
