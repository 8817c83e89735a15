package inventory

import (
	"errors"
	"strings"

	"checklist-backend/internal/auth"
	"checklist-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

type RecordResponse struct {
	ID                uint    `json:"id"`
	BranchID          *uint   `json:"branch_id"`
	Name              string  `json:"name"`
	Unit              string  `json:"unit"`
	CurrentStock      float64 `json:"current_stock"`
	MinStock          float64 `json:"min_stock"`
	IsLowStock        bool    `json:"is_low_stock"`
	LastUpdated       string  `json:"last_updated"`
	LastUpdatedByName string  `json:"last_updated_by_name"`
}

type CreateRecordRequest struct {
	BranchID     *uint   `json:"branch_id" validate:"omitempty,gt=0"` // boşsa tüm şubeler
	Name         string  `json:"name" validate:"required,max=100"`
	Unit         string  `json:"unit" validate:"required,max=20"`
	CurrentStock float64 `json:"current_stock" validate:"gte=0"`
	MinStock     float64 `json:"min_stock" validate:"gte=0"`
}

type UpdateRecordRequest struct {
	Name     *string  `json:"name" validate:"omitempty,max=100"`
	Unit     *string  `json:"unit" validate:"omitempty,max=20"`
	MinStock *float64 `json:"min_stock" validate:"omitempty,gte=0"`
}

type CountRequest struct {
	NewStock *float64 `json:"new_stock" validate:"required,gte=0"`
}

func toRecordResponse(r models.InventoryRecord) RecordResponse {
	return RecordResponse{
		ID:                r.ID,
		BranchID:          r.BranchID,
		Name:              r.Name,
		Unit:              r.Unit,
		CurrentStock:      r.CurrentStock,
		MinStock:          r.MinStock,
		IsLowStock:        r.CurrentStock <= r.MinStock,
		LastUpdated:       r.LastUpdated.Format("2006-01-02 15:04:05"),
		LastUpdatedByName: r.LastUpdatedByName,
	}
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
	}
	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// GET /api/inventory
// Çalışan kendi şubesinin ve şubesiz (ortak) kayıtları görür.
func ListRecordsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}

		dbq := db.Model(&models.InventoryRecord{})
		if !id.IsAdmin() {
			if id.BranchID == nil {
				return fiber.NewError(fiber.StatusForbidden, "Şube bilgisi alınamadı")
			}
			dbq = dbq.Where("branch_id IS NULL OR branch_id = ?", *id.BranchID)
		} else if bid := c.QueryInt("branch_id", 0); bid > 0 {
			dbq = dbq.Where("branch_id = ?", bid)
		}
		if c.QueryBool("low_stock", false) {
			dbq = dbq.Where("current_stock <= min_stock")
		}

		var records []models.InventoryRecord
		if err := dbq.Order("name ASC").Find(&records).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok kayıtları listelenemedi")
		}

		res := make([]RecordResponse, 0, len(records))
		for _, r := range records {
			res = append(res, toRecordResponse(r))
		}
		return c.JSON(res)
	}
}

// POST /api/admin/inventory
func CreateRecordHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRecordRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Unit = strings.TrimSpace(body.Unit)
		if body.Name == "" || body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Name ve unit zorunlu")
		}

		rec := models.InventoryRecord{
			BranchID:     body.BranchID,
			Name:         body.Name,
			Unit:         body.Unit,
			CurrentStock: body.CurrentStock,
			MinStock:     body.MinStock,
		}
		if err := db.Create(&rec).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok kaydı oluşturulamadı")
		}
		return c.Status(fiber.StatusCreated).JSON(toRecordResponse(rec))
	}
}

// PUT /api/admin/inventory/:id
// Sadece tanım alanları değişir; miktar sayım ile güncellenir, bayatlık durumu etkilenmez.
func UpdateRecordHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		recID, err := c.ParamsInt("id")
		if err != nil || recID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz stok ID")
		}

		var body UpdateRecordRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name boş olamaz")
			}
			updates["name"] = name
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if unit == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Unit boş olamaz")
			}
			updates["unit"] = unit
		}
		if body.MinStock != nil {
			updates["min_stock"] = *body.MinStock
		}

		var rec models.InventoryRecord
		if err := db.First(&rec, "id = ?", recID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Stok kaydı bulunamadı")
		}
		if len(updates) > 0 {
			if err := db.Model(&rec).Updates(updates).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Stok kaydı güncellenemedi")
			}
			if err := db.First(&rec, "id = ?", recID).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Stok kaydı okunamadı")
			}
		}
		return c.JSON(toRecordResponse(rec))
	}
}

// PUT /api/admin/inventory/:id/count
// Kontrol listesi dışında yapılan sayım. Aynı senkronizasyon yolu ve audit kaydı kullanılır.
func CountRecordHandler(db *gorm.DB, sync *Synchronizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}
		recID, err := c.ParamsInt("id")
		if err != nil || recID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz stok ID")
		}

		var body CountRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		change, err := sync.Sync(c.UserContext(), db, uint(recID), *body.NewStock, models.Actor{ID: id.UserID, Name: id.Name})
		switch {
		case errors.Is(err, ErrRecordNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Stok kaydı bulunamadı")
		case errors.Is(err, ErrInvalidStock):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case err != nil:
			return fiber.NewError(fiber.StatusServiceUnavailable, "Stok güncellenemedi, lütfen tekrar deneyin")
		}
		return c.JSON(change)
	}
}
