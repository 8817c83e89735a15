package checklist

import (
	"errors"
	"fmt"

	"checklist-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockInstance instance satırını transaction sonuna kadar kilitler.
// Aynı instance üzerindeki ilerleme yazımları ve gönderim böylece sıralanır.
func lockInstance(tx *gorm.DB, instanceID uint) (*models.Instance, error) {
	var inst models.Instance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inst, "id = ?", instanceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("instance", instanceID)
	}
	if err != nil {
		return nil, fmt.Errorf("instance okunamadı: %w", err)
	}
	return &inst, nil
}

// openInstance kilitli instance'ı yazılabilir olduğunu doğrulayarak döner.
func openInstance(tx *gorm.DB, instanceID uint) (*models.Instance, error) {
	inst, err := lockInstance(tx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.IsSubmitted {
		return nil, ErrAlreadySubmitted
	}
	return inst, nil
}

func loadSnapshot(db *gorm.DB, instanceID uint) (Snapshot, error) {
	var items []models.ItemProgress
	if err := db.Where("instance_id = ?", instanceID).Find(&items).Error; err != nil {
		return Snapshot{}, fmt.Errorf("madde ilerlemesi okunamadı: %w", err)
	}
	var links []models.LinkProgress
	if err := db.Where("instance_id = ?", instanceID).Find(&links).Error; err != nil {
		return Snapshot{}, fmt.Errorf("bağlantı ilerlemesi okunamadı: %w", err)
	}
	return NewSnapshot(items, links), nil
}
