package checklist

import (
	"errors"
	"time"

	"checklist-backend/internal/auth"
	"checklist-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type GenerateInstancesRequest struct {
	Date         string `json:"date" validate:"required,datetime=2006-01-02"` // "2025-12-09"
	TemplateIDs  []uint `json:"template_ids" validate:"required_without=ByRecurrence,dive,gt=0"`
	ByRecurrence bool   `json:"by_recurrence"`
}

type ItemProgressRequest struct {
	Completed *bool   `json:"completed" validate:"required"`
	Notes     *string `json:"notes" validate:"omitempty,max=2000"`
}

type LinkProgressRequest struct {
	Completed *bool    `json:"completed" validate:"required"`
	Notes     *string  `json:"notes" validate:"omitempty,max=2000"`
	NewStock  *float64 `json:"new_stock" validate:"omitempty,gte=0"`
}

// toFiberError motor hatalarını HTTP durum kodlarına çevirir.
func toFiberError(c *fiber.Ctx, err error) error {
	var incomplete *IncompleteItemsError
	switch {
	case errors.As(err, &incomplete):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":               "IncompleteItems",
			"incomplete_item_ids": incomplete.ItemIDs,
		})
	case errors.Is(err, ErrAlreadySubmitted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "AlreadySubmitted"})
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSyncFailure):
		return fiber.NewError(fiber.StatusServiceUnavailable, "Stok güncellenemedi, lütfen tekrar deneyin")
	}
	return err
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
	}
	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// authorizeInstance çalışanın instance'ın şubesinde olduğunu doğrular, admin her şubeye erişir.
func authorizeInstance(c *fiber.Ctx, svc *Service, instanceID uint) (models.Actor, error) {
	id, err := auth.CurrentIdentity(c)
	if err != nil {
		return models.Actor{}, err
	}
	actor := models.Actor{ID: id.UserID, Name: id.Name}
	if id.IsAdmin() {
		return actor, nil
	}

	branchID, err := svc.Reader.InstanceBranch(c.UserContext(), instanceID)
	if err != nil {
		return models.Actor{}, toFiberError(c, err)
	}
	if id.BranchID == nil || *id.BranchID != branchID {
		return models.Actor{}, fiber.NewError(fiber.StatusForbidden, "Bu şubenin kontrol listesine erişim yetkiniz yok")
	}
	return actor, nil
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	v, err := c.ParamsInt(name)
	if err != nil || v <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz "+name)
	}
	return uint(v), nil
}

// POST /api/admin/instances/generate
func GenerateInstancesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body GenerateInstancesRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		d, err := time.ParseInLocation("2006-01-02", body.Date, svc.Location)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
		}

		res, err := svc.Generator.Generate(c.UserContext(), GenerateRequest{
			Date:         d,
			TemplateIDs:  body.TemplateIDs,
			ByRecurrence: body.ByRecurrence,
		})
		if err != nil {
			return toFiberError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(res)
	}
}

// GET /api/instances?date=2025-12-09&branch_id=1
func ListInstancesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}

		d := time.Now().In(svc.Location)
		if ds := c.Query("date"); ds != "" {
			d, err = time.ParseInLocation("2006-01-02", ds, svc.Location)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Tarih formatı 'YYYY-MM-DD' olmalı")
			}
		}

		// Çalışan sadece kendi şubesini görür
		branchID := id.BranchID
		if id.IsAdmin() {
			branchID = nil
			if bid := c.QueryInt("branch_id", 0); bid > 0 {
				b := uint(bid)
				branchID = &b
			}
		}

		list, err := svc.Reader.ListInstances(c.UserContext(), d, branchID)
		if err != nil {
			return toFiberError(c, err)
		}
		return c.JSON(list)
	}
}

// GET /api/instances/:id
func GetInstanceHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		instanceID, err := paramID(c, "id")
		if err != nil {
			return err
		}
		if _, err := authorizeInstance(c, svc, instanceID); err != nil {
			return err
		}
		detail, err := svc.Reader.GetInstance(c.UserContext(), instanceID)
		if err != nil {
			return toFiberError(c, err)
		}
		return c.JSON(detail)
	}
}

// PUT /api/instances/:id/items/:itemId/progress
func SetItemProgressHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		instanceID, err := paramID(c, "id")
		if err != nil {
			return err
		}
		itemID, err := paramID(c, "itemId")
		if err != nil {
			return err
		}
		actor, err := authorizeInstance(c, svc, instanceID)
		if err != nil {
			return err
		}
		var body ItemProgressRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		res, err := svc.Recorder.SetItemProgress(c.UserContext(), ItemProgressInput{
			InstanceID: instanceID,
			ItemID:     itemID,
			Completed:  *body.Completed,
			Actor:      actor,
			Notes:      body.Notes,
		})
		if err != nil {
			return toFiberError(c, err)
		}
		return c.JSON(res)
	}
}

// PUT /api/instances/:id/links/:linkId/progress
func SetLinkProgressHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		instanceID, err := paramID(c, "id")
		if err != nil {
			return err
		}
		linkID, err := paramID(c, "linkId")
		if err != nil {
			return err
		}
		actor, err := authorizeInstance(c, svc, instanceID)
		if err != nil {
			return err
		}
		var body LinkProgressRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		res, err := svc.Recorder.SetLinkProgress(c.UserContext(), LinkProgressInput{
			InstanceID: instanceID,
			LinkID:     linkID,
			Completed:  *body.Completed,
			Actor:      actor,
			Notes:      body.Notes,
			NewStock:   body.NewStock,
		})
		if err != nil {
			return toFiberError(c, err)
		}
		return c.JSON(res)
	}
}

// POST /api/instances/:id/submit
func SubmitInstanceHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		instanceID, err := paramID(c, "id")
		if err != nil {
			return err
		}
		actor, err := authorizeInstance(c, svc, instanceID)
		if err != nil {
			return err
		}

		res, err := svc.Gate.Submit(c.UserContext(), instanceID, actor)
		if err != nil {
			return toFiberError(c, err)
		}
		return c.JSON(res)
	}
}
