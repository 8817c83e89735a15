package checklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checklist-backend/internal/inventory"
	"checklist-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StockSynchronizer stok bağlantılı madde tamamlandığında çağrılır.
// Apply çağıranın transaction'ı içinde çalışmalıdır.
type StockSynchronizer interface {
	Apply(tx *gorm.DB, inventoryID uint, newStock float64, actor models.Actor) (inventory.StockChange, error)
}

type ItemProgressInput struct {
	InstanceID uint
	ItemID     uint
	Completed  bool
	Actor      models.Actor
	Notes      *string
}

type LinkProgressInput struct {
	InstanceID uint
	LinkID     uint
	Completed  bool
	Actor      models.Actor
	Notes      *string
	NewStock   *float64 // sadece stok bağlantılarında
}

// ProgressResult yazımdan sonra yeniden hesaplanan durum.
type ProgressResult struct {
	InstanceID uint                   `json:"instance_id"`
	Progress   Progress               `json:"progress"`
	Item       ItemStatus             `json:"item"`
	Stock      *inventory.StockChange `json:"stock,omitempty"`
}

// Recorder ilerleme kayıtlarını yazar. Aynı anahtara son yazan kazanır.
type Recorder struct {
	db   *gorm.DB
	sync StockSynchronizer
	log  *zap.Logger
	now  func() time.Time
}

func NewRecorder(db *gorm.DB, sync StockSynchronizer, log *zap.Logger) *Recorder {
	return &Recorder{db: db, sync: sync, log: log, now: time.Now}
}

func (r *Recorder) SetItemProgress(ctx context.Context, in ItemProgressInput) (*ProgressResult, error) {
	if in.Actor.ID == 0 {
		return nil, invalid("actor zorunlu")
	}

	var result *ProgressResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inst, err := openInstance(tx, in.InstanceID)
		if err != nil {
			return err
		}
		tree, err := LoadTree(tx, inst.TemplateID)
		if err != nil {
			return err
		}

		item, ok := tree.Item(in.ItemID)
		if !ok {
			return notFound("madde", in.ItemID)
		}
		if len(item.Links) > 0 {
			return invalid("bağlantılı madde doğrudan işaretlenemez, bağlantılarını işaretleyin")
		}

		var p models.ItemProgress
		err = tx.Where("instance_id = ? AND item_id = ?", inst.ID, item.ID).Take(&p).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("madde ilerlemesi okunamadı: %w", err)
		}
		p.InstanceID = inst.ID
		p.ItemID = item.ID
		p.Toggle(in.Completed, in.Actor, in.Notes, r.now())
		if err := tx.Save(&p).Error; err != nil {
			return fmt.Errorf("madde ilerlemesi kaydedilemedi: %w", err)
		}

		result, err = r.refresh(tx, inst, tree, item)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.log.Debug("madde ilerlemesi yazıldı",
		zap.Uint("instance_id", in.InstanceID),
		zap.Uint("item_id", in.ItemID),
		zap.Bool("completed", in.Completed),
		zap.Uint("actor_id", in.Actor.ID),
	)
	return result, nil
}

// SetLinkProgress stok bağlantısında yeni miktar verilmişse stok güncellemesi ve
// ilerleme kaydı aynı transaction'da yazılır; biri başarısız olursa hiçbiri kalmaz.
func (r *Recorder) SetLinkProgress(ctx context.Context, in LinkProgressInput) (*ProgressResult, error) {
	if in.Actor.ID == 0 {
		return nil, invalid("actor zorunlu")
	}
	if in.NewStock != nil {
		if *in.NewStock < 0 {
			return nil, invalid("stok miktarı negatif olamaz")
		}
		if !in.Completed {
			return nil, invalid("stok miktarı sadece tamamlama ile gönderilebilir")
		}
	}

	var result *ProgressResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inst, err := openInstance(tx, in.InstanceID)
		if err != nil {
			return err
		}
		tree, err := LoadTree(tx, inst.TemplateID)
		if err != nil {
			return err
		}

		rec, owner, ok := tree.Link(in.LinkID)
		if !ok {
			return notFound("bağlantı", in.LinkID)
		}
		link, err := LinkOf(*rec)
		if err != nil {
			return invalid(err.Error())
		}

		var change *inventory.StockChange
		if in.NewStock != nil {
			inv, ok := link.(InventoryLink)
			if !ok {
				return invalid(fmt.Sprintf("%s bağlantısına stok miktarı gönderilemez", link.Kind()))
			}
			c, err := r.sync.Apply(tx, inv.InventoryID, *in.NewStock, in.Actor)
			if err != nil {
				if errors.Is(err, inventory.ErrRecordNotFound) {
					return fmt.Errorf("%w: %w", ErrNotFound, err)
				}
				if errors.Is(err, inventory.ErrInvalidStock) {
					return fmt.Errorf("%w: %w", ErrInvalidInput, err)
				}
				if errors.Is(err, ErrSyncFailure) {
					return err
				}
				return fmt.Errorf("%w: %w", ErrSyncFailure, err)
			}
			change = &c
		}

		var p models.LinkProgress
		err = tx.Where("instance_id = ? AND link_id = ?", inst.ID, rec.ID).Take(&p).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("bağlantı ilerlemesi okunamadı: %w", err)
		}
		p.InstanceID = inst.ID
		p.LinkID = rec.ID
		p.Toggle(in.Completed, in.Actor, in.Notes, r.now())
		if change != nil {
			before, after := change.Before, change.After
			p.StockBefore = &before
			p.StockAfter = &after
		}
		if err := tx.Save(&p).Error; err != nil {
			return fmt.Errorf("bağlantı ilerlemesi kaydedilemedi: %w", err)
		}

		result, err = r.refresh(tx, inst, tree, owner)
		if err != nil {
			return err
		}
		result.Stock = change
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSyncFailure) {
			r.log.Warn("stok senkronizasyonu başarısız, ilerleme yazılmadı",
				zap.Uint("instance_id", in.InstanceID),
				zap.Uint("link_id", in.LinkID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	r.log.Debug("bağlantı ilerlemesi yazıldı",
		zap.Uint("instance_id", in.InstanceID),
		zap.Uint("link_id", in.LinkID),
		zap.Bool("completed", in.Completed),
		zap.Bool("stock_synced", result.Stock != nil),
		zap.Uint("actor_id", in.Actor.ID),
	)
	return result, nil
}

// refresh maddenin ve instance'ın durumunu güncel kayıtlardan yeniden hesaplar,
// instance'ın kolaylık bayrağını da eşitler.
func (r *Recorder) refresh(tx *gorm.DB, inst *models.Instance, tree *Tree, item *models.Item) (*ProgressResult, error) {
	snap, err := loadSnapshot(tx, inst.ID)
	if err != nil {
		return nil, err
	}
	progress := InstanceProgress(tree, snap)

	if done := progress.Done(); done != inst.IsCompleted {
		if err := tx.Model(&models.Instance{}).Where("id = ?", inst.ID).Update("is_completed", done).Error; err != nil {
			return nil, fmt.Errorf("instance güncellenemedi: %w", err)
		}
	}

	return &ProgressResult{
		InstanceID: inst.ID,
		Progress:   progress,
		Item:       StatusOf(item, snap),
	}, nil
}
