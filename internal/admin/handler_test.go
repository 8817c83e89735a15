package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"checklist-backend/internal/auth"
	"checklist-backend/internal/checklist"
	"checklist-backend/internal/models"
	"checklist-backend/internal/testinfra"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const secret = "0123456789abcdef0123456789abcdef"

type harness struct {
	db    *gorm.DB
	app   *fiber.App
	token string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testinfra.NewTestDB(t)

	app := fiber.New()
	g := app.Group("/api/admin", auth.JWTMiddleware(secret), auth.RequireRole(models.RoleAdmin))
	g.Get("/branches", ListBranchesHandler(db))
	g.Post("/branches", CreateBranchHandler(db))
	g.Put("/branches/:id", UpdateBranchHandler(db))
	g.Delete("/branches/:id", DeleteBranchHandler(db))
	g.Get("/branches/:id/employees", ListEmployeesHandler(db))
	g.Post("/branches/:id/employees", CreateEmployeeHandler(db))
	g.Get("/templates", ListTemplatesHandler(db))
	g.Post("/templates", CreateTemplateHandler(db))
	g.Put("/templates/:id/active", SetTemplateActiveHandler(db))

	tok, err := auth.GenerateToken(secret, &models.User{ID: 1, Name: "alice", Role: models.RoleAdmin})
	require.NoError(t, err)
	return &harness{db: db, app: app, token: tok}
}

func (h *harness) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.token)

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestBranchAndEmployees(t *testing.T) {
	h := newHarness(t)

	var br BranchResponse
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/admin/branches", fiber.Map{"name": " Moda ", "address": "Kadıköy"}, &br))
	assert.Equal(t, "Moda", br.Name)

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/admin/branches", fiber.Map{"address": "isimsiz"}, nil))

	var updated BranchResponse
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPut, fmt.Sprintf("/api/admin/branches/%d", br.ID), fiber.Map{"phone": "0216"}, &updated))
	assert.Equal(t, "0216", updated.Phone)
	assert.Equal(t, "Moda", updated.Name)

	var emp EmployeeResponse
	path := fmt.Sprintf("/api/admin/branches/%d/employees", br.ID)
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, path, fiber.Map{"name": "bob", "email": "Bob@Example.com", "password": "uzun-sifre"}, &emp))
	assert.Equal(t, models.RoleEmployee, emp.Role)
	assert.Equal(t, "bob@example.com", emp.Email)
	require.NotNil(t, emp.BranchID)
	assert.Equal(t, br.ID, *emp.BranchID)

	assert.Equal(t, http.StatusConflict, h.do(t, http.MethodPost, path, fiber.Map{"name": "bob2", "email": "bob@example.com", "password": "uzun-sifre"}, nil))
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, path, fiber.Map{"name": "kısa", "email": "k@example.com", "password": "123"}, nil))

	var list []EmployeeResponse
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, path, nil, &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusConflict, h.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/branches/%d", br.ID), nil, nil))

	var empty BranchResponse
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/admin/branches", fiber.Map{"name": "Geçici"}, &empty))
	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/branches/%d", empty.ID), nil, nil))
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/branches/%d", empty.ID), nil, nil))
}

func TestCreateTemplate_BuildsTreeUsableByEngine(t *testing.T) {
	h := newHarness(t)
	branch := models.Branch{Name: "Kadıköy"}
	require.NoError(t, h.db.Create(&branch).Error)
	rec := models.InventoryRecord{BranchID: &branch.ID, Name: "Domates", Unit: "kg", CurrentStock: 20}
	require.NoError(t, h.db.Create(&rec).Error)

	req := fiber.Map{
		"branch_id":       branch.ID,
		"name":            "Açılış",
		"time_slot":       "opening",
		"auto_generate":   true,
		"recurrence_days": []int{1, 3},
		"items": []fiber.Map{
			{"title": "Kasayı aç"},
			{
				"title": "Mutfak",
				"children": []fiber.Map{
					{"title": "Domates sayımı", "links": []fiber.Map{{"kind": "inventory", "target_id": rec.ID}, {"kind": "manual", "target_id": 42}}},
					{"title": "Ocakları kontrol et", "required": false},
				},
			},
		},
	}
	var tpl TemplateResponse
	require.Equal(t, http.StatusCreated, h.do(t, http.MethodPost, "/api/admin/templates", req, &tpl))
	assert.Equal(t, 4, tpl.ItemCount)
	assert.True(t, tpl.IsActive)
	assert.Equal(t, []int{1, 3}, tpl.RecurrenceDays)

	tree, err := checklist.LoadTree(h.db, tpl.ID)
	require.NoError(t, err)
	titles := []string{}
	for _, it := range tree.Items() {
		titles = append(titles, it.Title)
	}
	assert.Equal(t, []string{"Kasayı aç", "Mutfak", "Domates sayımı", "Ocakları kontrol et"}, titles)
	counting := tree.Items()[2]
	require.NotNil(t, counting.ParentID)
	assert.Equal(t, tree.Items()[1].ID, *counting.ParentID)
	assert.Len(t, counting.Links, 2)
	assert.False(t, tree.Items()[3].Required)

	// Tekrar kuralı Pazartesi'yi kapsar
	gen := checklist.NewGenerator(h.db, time.UTC, nil, zap.NewNop())
	res, err := gen.Generate(t.Context(), checklist.GenerateRequest{Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), ByRecurrence: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CreatedCount)

	var audits int64
	h.db.Model(&models.AuditLog{}).Where("entity_type = ? AND entity_id = ?", "template", tpl.ID).Count(&audits)
	assert.Equal(t, int64(1), audits)

	var list []TemplateResponse
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, fmt.Sprintf("/api/admin/templates?branch_id=%d", branch.ID), nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, 4, list[0].ItemCount)

	// Şablonu olan şube silinemez
	assert.Equal(t, http.StatusConflict, h.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/branches/%d", branch.ID), nil, nil))
}

func TestCreateTemplate_Rejections(t *testing.T) {
	h := newHarness(t)
	branch := models.Branch{Name: "Kadıköy"}
	require.NoError(t, h.db.Create(&branch).Error)
	otherBranch := models.Branch{Name: "Beşiktaş"}
	require.NoError(t, h.db.Create(&otherBranch).Error)
	foreign := models.InventoryRecord{BranchID: &otherBranch.ID, Name: "Un", Unit: "kg"}
	require.NoError(t, h.db.Create(&foreign).Error)

	cases := map[string]struct {
		body   fiber.Map
		status int
	}{
		"madde yok": {fiber.Map{"branch_id": branch.ID, "name": "Boş", "time_slot": "opening", "items": []fiber.Map{}}, http.StatusBadRequest},
		"geçersiz bağlantı türü": {fiber.Map{"branch_id": branch.ID, "name": "X", "time_slot": "opening",
			"items": []fiber.Map{{"title": "a", "links": []fiber.Map{{"kind": "recipe", "target_id": 1}}}}}, http.StatusBadRequest},
		"başka şubenin stoku": {fiber.Map{"branch_id": branch.ID, "name": "X", "time_slot": "opening",
			"items": []fiber.Map{{"title": "a", "links": []fiber.Map{{"kind": "inventory", "target_id": foreign.ID}}}}}, http.StatusBadRequest},
		"şube yok": {fiber.Map{"branch_id": 999, "name": "X", "time_slot": "opening", "items": []fiber.Map{{"title": "a"}}}, http.StatusNotFound},
		"geçersiz gün": {fiber.Map{"branch_id": branch.ID, "name": "X", "time_slot": "opening", "recurrence_days": []int{7},
			"items": []fiber.Map{{"title": "a"}}}, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.status, h.do(t, http.MethodPost, "/api/admin/templates", tc.body, nil))
		})
	}

	var n int64
	h.db.Model(&models.Template{}).Count(&n)
	assert.Zero(t, n, "başarısız istekler şablon bırakmamalı")
}

func TestSetTemplateActive(t *testing.T) {
	h := newHarness(t)
	fx := testinfra.SeedFixture(t, h.db)

	var tpl TemplateResponse
	path := fmt.Sprintf("/api/admin/templates/%d/active", fx.Template.ID)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPut, path, fiber.Map{"is_active": false}, &tpl))
	assert.False(t, tpl.IsActive)
	assert.Equal(t, 2, tpl.ItemCount)

	gen := checklist.NewGenerator(h.db, time.UTC, nil, zap.NewNop())
	res, err := gen.Generate(t.Context(), checklist.GenerateRequest{Date: time.Now(), TemplateIDs: []uint{fx.Template.ID}})
	require.NoError(t, err)
	assert.Zero(t, res.CreatedCount)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, checklist.SkipTemplateInactive, res.Skipped[0].Reason)

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPut, path, fiber.Map{}, nil))
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodPut, "/api/admin/templates/999/active", fiber.Map{"is_active": true}, nil))
}
