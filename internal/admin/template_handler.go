package admin

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"checklist-backend/internal/audit"
	"checklist-backend/internal/auth"
	"checklist-backend/internal/checklist"
	"checklist-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TemplateLinkRequest struct {
	Kind     models.LinkKind `json:"kind" validate:"required,oneof=inventory precaution manual"`
	TargetID uint            `json:"target_id" validate:"required,gt=0"`
}

type TemplateItemRequest struct {
	Title        string                `json:"title" validate:"required,max=255"`
	Instructions string                `json:"instructions"`
	Required     *bool                 `json:"required"` // verilmezse true
	Links        []TemplateLinkRequest `json:"links" validate:"dive"`
	Children     []TemplateItemRequest `json:"children" validate:"dive"`
}

type CreateTemplateRequest struct {
	BranchID       uint                  `json:"branch_id" validate:"required,gt=0"`
	Name           string                `json:"name" validate:"required,max=150"`
	TimeSlot       string                `json:"time_slot" validate:"required,max=30"` // opening, closing vs.
	AutoGenerate   bool                  `json:"auto_generate"`
	RecurrenceDays []int                 `json:"recurrence_days" validate:"dive,min=0,max=6"` // 0 = Pazar
	RecurrenceTime string                `json:"recurrence_time" validate:"omitempty,datetime=15:04"`
	Items          []TemplateItemRequest `json:"items" validate:"required,min=1,dive"`
}

type SetTemplateActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type TemplateResponse struct {
	ID             uint   `json:"id"`
	BranchID       uint   `json:"branch_id"`
	Name           string `json:"name"`
	TimeSlot       string `json:"time_slot"`
	IsActive       bool   `json:"is_active"`
	AutoGenerate   bool   `json:"auto_generate"`
	RecurrenceDays []int  `json:"recurrence_days"`
	RecurrenceTime string `json:"recurrence_time"`
	ItemCount      int    `json:"item_count"`
}

func toTemplateResponse(t models.Template, itemCount int) TemplateResponse {
	days := make([]int, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if t.RecurrenceDays.Has(d) {
			days = append(days, int(d))
		}
	}
	return TemplateResponse{
		ID:             t.ID,
		BranchID:       t.BranchID,
		Name:           t.Name,
		TimeSlot:       t.TimeSlot,
		IsActive:       t.IsActive,
		AutoGenerate:   t.AutoGenerate,
		RecurrenceDays: days,
		RecurrenceTime: t.RecurrenceTime,
		ItemCount:      itemCount,
	}
}

var errBadLinkTarget = errors.New("bağlantı hedefi geçersiz")

// createItems maddeleri ağaç sırasıyla ekler, alt maddeler ebeveynin ID'sini alır.
func createItems(tx *gorm.DB, tpl *models.Template, parentID *uint, reqs []TemplateItemRequest) (int, error) {
	count := 0
	for i, r := range reqs {
		required := true
		if r.Required != nil {
			required = *r.Required
		}
		item := models.Item{
			TemplateID:   tpl.ID,
			ParentID:     parentID,
			SortOrder:    i + 1,
			Title:        strings.TrimSpace(r.Title),
			Required:     required,
			Instructions: r.Instructions,
		}
		if err := tx.Create(&item).Error; err != nil {
			return 0, fmt.Errorf("madde oluşturulamadı: %w", err)
		}
		count++

		for j, l := range r.Links {
			if l.Kind == models.LinkKindInventory {
				var n int64
				err := tx.Model(&models.InventoryRecord{}).
					Where("id = ? AND (branch_id IS NULL OR branch_id = ?)", l.TargetID, tpl.BranchID).
					Count(&n).Error
				if err != nil {
					return 0, err
				}
				if n == 0 {
					return 0, fmt.Errorf("%w: stok kaydı %d bu şubede yok", errBadLinkTarget, l.TargetID)
				}
			}
			link := models.ExternalLink{
				OwnerItemID: item.ID,
				Kind:        l.Kind,
				TargetID:    l.TargetID,
				SortOrder:   j + 1,
			}
			if err := tx.Create(&link).Error; err != nil {
				return 0, fmt.Errorf("bağlantı oluşturulamadı: %w", err)
			}
		}

		n, err := createItems(tx, tpl, &item.ID, r.Children)
		if err != nil {
			return 0, err
		}
		count += n
	}
	return count, nil
}

// POST /api/admin/templates
// Şablon bir kez oluşturulur; maddeler sonradan değiştirilmez, yeni sürüm için yeni şablon açılır.
func CreateTemplateHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}

		var body CreateTemplateRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		days := make([]time.Weekday, 0, len(body.RecurrenceDays))
		for _, d := range body.RecurrenceDays {
			days = append(days, time.Weekday(d))
		}
		tpl := models.Template{
			BranchID:       body.BranchID,
			Name:           strings.TrimSpace(body.Name),
			TimeSlot:       strings.TrimSpace(body.TimeSlot),
			IsActive:       true,
			AutoGenerate:   body.AutoGenerate,
			RecurrenceDays: models.NewWeekdaySet(days...),
			RecurrenceTime: body.RecurrenceTime,
		}

		var itemCount int
		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			var branch models.Branch
			if err := tx.First(&branch, "id = ?", body.BranchID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
			}
			if err := tx.Create(&tpl).Error; err != nil {
				return fmt.Errorf("şablon oluşturulamadı: %w", err)
			}

			n, err := createItems(tx, &tpl, nil, body.Items)
			if err != nil {
				return err
			}
			itemCount = n
			// Kaydedilen ağaç motorun kurallarıyla tekrar doğrulanır
			if _, err := checklist.LoadTree(tx, tpl.ID); err != nil {
				return err
			}

			return audit.WriteLog(tx, audit.LogOptions{
				BranchID:    &tpl.BranchID,
				UserID:      id.UserID,
				UserName:    id.Name,
				EntityType:  "template",
				EntityID:    tpl.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Şablon oluşturuldu: %s (%d madde)", tpl.Name, itemCount),
				After:       toTemplateResponse(tpl, itemCount),
			})
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			if errors.Is(err, errBadLinkTarget) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Şablon oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toTemplateResponse(tpl, itemCount))
	}
}

// GET /api/admin/templates?branch_id=1
func ListTemplatesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := db.Model(&models.Template{})
		if bid := c.QueryInt("branch_id", 0); bid > 0 {
			q = q.Where("branch_id = ?", bid)
		}

		var templates []models.Template
		if err := q.Order("branch_id ASC, name ASC").Find(&templates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şablonlar listelenemedi")
		}

		type countRow struct {
			TemplateID uint
			N          int
		}
		var counts []countRow
		if err := db.Model(&models.Item{}).Select("template_id, COUNT(*) AS n").Group("template_id").Scan(&counts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şablonlar listelenemedi")
		}
		byTemplate := make(map[uint]int, len(counts))
		for _, r := range counts {
			byTemplate[r.TemplateID] = r.N
		}

		res := make([]TemplateResponse, 0, len(templates))
		for _, t := range templates {
			res = append(res, toTemplateResponse(t, byTemplate[t.ID]))
		}
		return c.JSON(res)
	}
}

// PUT /api/admin/templates/:id/active
// Pasif şablon için yeni instance üretilmez; mevcut instance'lar etkilenmez.
func SetTemplateActiveHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}
		templateID, err := paramID(c, "id")
		if err != nil {
			return err
		}
		var body SetTemplateActiveRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		var tpl models.Template
		err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&tpl, "id = ?", templateID).Error; err != nil {
				return err
			}
			before := tpl.IsActive
			if err := tx.Model(&tpl).Update("is_active", *body.IsActive).Error; err != nil {
				return err
			}
			tpl.IsActive = *body.IsActive
			return audit.WriteLog(tx, audit.LogOptions{
				BranchID:    &tpl.BranchID,
				UserID:      id.UserID,
				UserName:    id.Name,
				EntityType:  "template",
				EntityID:    tpl.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Şablon durumu değişti: %s", tpl.Name),
				Before:      map[string]interface{}{"is_active": before},
				After:       map[string]interface{}{"is_active": *body.IsActive},
			})
		})
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Şablon bulunamadı")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şablon güncellenemedi")
		}

		var itemCount int64
		db.Model(&models.Item{}).Where("template_id = ?", tpl.ID).Count(&itemCount)
		return c.JSON(toTemplateResponse(tpl, int(itemCount)))
	}
}
