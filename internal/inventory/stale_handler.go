package inventory

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"checklist-backend/internal/auth"
	"checklist-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Çalışan sadece kendi şubesini görür, admin branch_id ile filtreleyebilir.
func resolveStaleQuery(c *fiber.Ctx, defaultDays int) (StaleQuery, error) {
	id, err := auth.CurrentIdentity(c)
	if err != nil {
		return StaleQuery{}, err
	}

	days := c.QueryInt("days", defaultDays)
	if days <= 0 {
		return StaleQuery{}, fiber.NewError(fiber.StatusBadRequest, "days pozitif olmalı")
	}

	q := StaleQuery{Days: days}
	if id.IsAdmin() {
		if bid := c.QueryInt("branch_id", 0); bid > 0 {
			b := uint(bid)
			q.BranchID = &b
		}
	} else {
		if id.BranchID == nil {
			return StaleQuery{}, fiber.NewError(fiber.StatusForbidden, "Şube bilgisi alınamadı")
		}
		q.BranchID = id.BranchID
	}
	return q, nil
}

// GET /api/inventory/stale?days=7&branch_id=1
func StaleInventoryHandler(det *Detector, defaultDays int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := resolveStaleQuery(c, defaultDays)
		if err != nil {
			return err
		}

		report, err := det.Stale(c.UserContext(), q)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bayat stoklar listelenemedi")
		}
		return c.JSON(report)
	}
}

// GET /api/admin/inventory/stale/export?days=7
func StaleExportHandler(det *Detector, defaultDays int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := resolveStaleQuery(c, defaultDays)
		if err != nil {
			return err
		}

		report, err := det.Stale(c.UserContext(), q)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Bayat stoklar listelenemedi")
		}

		var buf bytes.Buffer
		if err := WriteStaleReportXLSX(&buf, report); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Excel dosyası oluşturulamadı")
		}

		filename := fmt.Sprintf("bayat-stok-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
		return c.Send(buf.Bytes())
	}
}

// GET /api/inventory/:id/history
// Çalışan sadece kendi şubesinin ve ortak kayıtların geçmişini görür.
func StockHistoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz stok ID")
		}

		var rec models.InventoryRecord
		if err := db.WithContext(c.UserContext()).Select("id", "branch_id").First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Stok kaydı bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Stok geçmişi alınamadı")
		}
		if !ident.IsAdmin() && rec.BranchID != nil && (ident.BranchID == nil || *ident.BranchID != *rec.BranchID) {
			return fiber.NewError(fiber.StatusForbidden, "Bu şubenin stok geçmişine erişim yetkiniz yok")
		}

		rows, err := StockHistory(c.UserContext(), db, rec.ID, c.QueryInt("limit", 100))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok geçmişi alınamadı")
		}
		return c.JSON(rows)
	}
}
