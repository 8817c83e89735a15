package checklist

import (
	"context"
	"fmt"
	"time"

	"checklist-backend/internal/audit"
	"checklist-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SubmitResult struct {
	InstanceID  uint      `json:"instance_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Gate gönderimi doğrular. Gönderilmiş instance bir daha değiştirilemez.
type Gate struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewGate(db *gorm.DB, log *zap.Logger) *Gate {
	return &Gate{db: db, log: log, now: time.Now}
}

// Submit tamamlanma durumunu her zaman canlı ilerleme kayıtlarından hesaplar;
// Instance.IsCompleted bayrağı okunmaz.
func (g *Gate) Submit(ctx context.Context, instanceID uint, actor models.Actor) (*SubmitResult, error) {
	if actor.ID == 0 {
		return nil, invalid("actor zorunlu")
	}

	var result *SubmitResult
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inst, err := openInstance(tx, instanceID)
		if err != nil {
			return err
		}
		tree, err := LoadTree(tx, inst.TemplateID)
		if err != nil {
			return err
		}
		snap, err := loadSnapshot(tx, inst.ID)
		if err != nil {
			return err
		}
		if ids := IncompleteItems(tree, snap); len(ids) > 0 {
			return &IncompleteItemsError{ItemIDs: ids}
		}

		now := g.now()
		// Koşullu güncelleme: eşzamanlı iki gönderimden yalnızca biri satırı değiştirir
		res := tx.Model(&models.Instance{}).
			Where("id = ? AND is_submitted = ?", inst.ID, false).
			Updates(map[string]interface{}{
				"is_submitted": true,
				"submitted_at": now,
				"submitted_by": actor.ID,
				"is_completed": true,
			})
		if res.Error != nil {
			return fmt.Errorf("instance gönderilemedi: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadySubmitted
		}

		branchID := tree.Template.BranchID
		if err := audit.WriteLog(tx, audit.LogOptions{
			BranchID:    &branchID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "instance",
			EntityID:    inst.ID,
			Action:      models.AuditActionSubmit,
			Description: fmt.Sprintf("Kontrol listesi gönderildi: %s (%s)", tree.Template.Name, inst.Date.Format("2006-01-02")),
			Before:      map[string]interface{}{"is_submitted": false},
			After:       map[string]interface{}{"is_submitted": true, "submitted_at": now},
		}); err != nil {
			return err
		}

		result = &SubmitResult{InstanceID: inst.ID, SubmittedAt: now}
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.log.Info("kontrol listesi gönderildi",
		zap.Uint("instance_id", instanceID),
		zap.Uint("actor_id", actor.ID),
	)
	return result, nil
}
