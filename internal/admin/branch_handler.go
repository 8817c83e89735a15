package admin

import (
	"errors"
	"strings"

	"checklist-backend/internal/auth"
	"checklist-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type BranchResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"created_at"`
}

type CreateBranchRequest struct {
	Name    string  `json:"name" validate:"required,max=100"`
	Address string  `json:"address" validate:"max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"` // Opsiyonel
}

type UpdateBranchRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=100"`
	Address *string `json:"address" validate:"omitempty,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"`
}

type CreateEmployeeRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=8"`
	Role     models.UserRole `json:"role" validate:"omitempty,oneof=admin employee"`
}

type EmployeeResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	BranchID  *uint           `json:"branch_id"`
	CreatedAt string          `json:"created_at"`
}

func toBranchResponse(b models.Branch) BranchResponse {
	return BranchResponse{
		ID:        b.ID,
		Name:      b.Name,
		Address:   b.Address,
		Phone:     b.Phone,
		CreatedAt: b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ----------------------------------------
// ŞUBE CRUD
// ----------------------------------------

// POST /api/admin/branches
func CreateBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBranchRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Şube adı boş olamaz")
		}

		branch := models.Branch{
			Name:    body.Name,
			Address: body.Address,
		}
		if body.Phone != nil {
			branch.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := db.Create(&branch).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şube oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toBranchResponse(branch))
	}
}

// GET /api/admin/branches
func ListBranchesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var branches []models.Branch
		if err := db.Order("name ASC").Find(&branches).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şubeler listelenemedi")
		}

		res := make([]BranchResponse, 0, len(branches))
		for _, b := range branches {
			res = append(res, toBranchResponse(b))
		}
		return c.JSON(res)
	}
}

// PUT /api/admin/branches/:id
func UpdateBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}

		var branch models.Branch
		if err := db.First(&branch, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
		}

		var body UpdateBranchRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Şube adı boş olamaz")
			}
			branch.Name = name
		}
		if body.Address != nil {
			branch.Address = *body.Address
		}
		if body.Phone != nil {
			branch.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := db.Save(&branch).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şube güncellenemedi")
		}
		return c.JSON(toBranchResponse(branch))
	}
}

// DELETE /api/admin/branches/:id
// Şablonu veya çalışanı olan şube silinemez; geçmiş instance'lar şablon üzerinden şubeye bağlıdır.
func DeleteBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return err
		}

		var templates, users int64
		if err := db.Model(&models.Template{}).Where("branch_id = ?", id).Count(&templates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şube silinemedi")
		}
		if err := db.Model(&models.User{}).Where("branch_id = ?", id).Count(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şube silinemedi")
		}
		if templates > 0 || users > 0 {
			return fiber.NewError(fiber.StatusConflict, "Şubeye bağlı şablon veya çalışan var")
		}

		res := db.Delete(&models.Branch{}, "id = ?", id)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şube silinemedi")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// ŞUBE ÇALIŞANLARI
// ----------------------------------------

// POST /api/admin/branches/:id/employees
func CreateEmployeeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := paramID(c, "id")
		if err != nil {
			return err
		}

		var branch models.Branch
		if err := db.First(&branch, "id = ?", branchID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Şube bulunamadı")
		}

		var body CreateEmployeeRequest
		if err := parseBody(c, &body); err != nil {
			return err
		}
		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		body.Name = strings.TrimSpace(body.Name)
		if body.Role == "" {
			body.Role = models.RoleEmployee
		}

		// Email kontrolü
		var exist models.User
		err = db.Where("email = ?", body.Email).First(&exist).Error
		if err == nil {
			return fiber.NewError(fiber.StatusConflict, "Bu email zaten kayıtlı")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı oluşturulamadı")
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre işlenemedi")
		}

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: hash,
			Role:         body.Role,
			BranchID:     &branch.ID,
		}
		if err := db.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toEmployeeResponse(user))
	}
}

// GET /api/admin/branches/:id/employees
func ListEmployeesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := paramID(c, "id")
		if err != nil {
			return err
		}

		var users []models.User
		if err := db.Where("branch_id = ?", branchID).Order("created_at DESC").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çalışanlar listelenemedi")
		}

		res := make([]EmployeeResponse, 0, len(users))
		for _, u := range users {
			res = append(res, toEmployeeResponse(u))
		}
		return c.JSON(res)
	}
}

func toEmployeeResponse(u models.User) EmployeeResponse {
	return EmployeeResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		BranchID:  u.BranchID,
		CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
