package main

import (
	"context"
	"log"
	"strings"

	"checklist-backend/internal/admin"
	"checklist-backend/internal/audit"
	"checklist-backend/internal/auth"
	"checklist-backend/internal/checklist"
	"checklist-backend/internal/config"
	"checklist-backend/internal/database"
	"checklist-backend/internal/inventory"
	"checklist-backend/internal/locker"
	"checklist-backend/internal/logger"
	"checklist-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat, "checklist-backend")
	if err != nil {
		log.Fatalf("logger oluşturulamadı: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	db, err := database.Open(cfg, lg)
	if err != nil {
		lg.Fatal("veritabanı açılamadı", zap.Error(err))
	}

	stockSync := inventory.NewSynchronizer(lg.Named("stock"))
	opts := checklist.Options{
		Location: cfg.Location(),
		Sync:     stockSync,
		Resolvers: checklist.Resolvers{
			Inventory: inventory.NewTitleResolver(db),
		},
	}
	lk, rdb, err := locker.Connect(context.Background(), cfg.RedisAddress, lg.Named("locker"))
	if err != nil {
		lg.Warn("redis kullanılamıyor, üretim kilidi devre dışı", zap.Error(err))
	}
	if lk != nil {
		opts.Locker = lk
		defer rdb.Close()
	}

	svc := checklist.NewService(db, opts, lg)
	detector := inventory.NewDetector(db)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			lg.Error("beklenmeyen hata", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/login", auth.LoginHandler(db, cfg.JWTSecret))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// Şubeler ve çalışanlar
	adminRoutes.Get("/branches", admin.ListBranchesHandler(db))
	adminRoutes.Post("/branches", admin.CreateBranchHandler(db))
	adminRoutes.Put("/branches/:id", admin.UpdateBranchHandler(db))
	adminRoutes.Delete("/branches/:id", admin.DeleteBranchHandler(db))
	adminRoutes.Get("/branches/:id/employees", admin.ListEmployeesHandler(db))
	adminRoutes.Post("/branches/:id/employees", admin.CreateEmployeeHandler(db))

	// Şablonlar
	adminRoutes.Get("/templates", admin.ListTemplatesHandler(db))
	adminRoutes.Post("/templates", admin.CreateTemplateHandler(db))
	adminRoutes.Put("/templates/:id/active", admin.SetTemplateActiveHandler(db))
	adminRoutes.Post("/instances/generate", checklist.GenerateInstancesHandler(svc))

	// Stok tanımları
	adminRoutes.Post("/inventory", inventory.CreateRecordHandler(db))
	adminRoutes.Put("/inventory/:id", inventory.UpdateRecordHandler(db))
	adminRoutes.Put("/inventory/:id/count", inventory.CountRecordHandler(db, stockSync))
	adminRoutes.Get("/inventory/stale/export", inventory.StaleExportHandler(detector, cfg.StaleDaysDefault))

	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler(db))

	// Kontrol listeleri
	protected.Get("/instances", checklist.ListInstancesHandler(svc))
	protected.Get("/instances/:id", checklist.GetInstanceHandler(svc))
	protected.Put("/instances/:id/items/:itemId/progress", checklist.SetItemProgressHandler(svc))
	protected.Put("/instances/:id/links/:linkId/progress", checklist.SetLinkProgressHandler(svc))
	protected.Post("/instances/:id/submit", checklist.SubmitInstanceHandler(svc))

	// Stok
	protected.Get("/inventory", inventory.ListRecordsHandler(db))
	protected.Get("/inventory/stale", inventory.StaleInventoryHandler(detector, cfg.StaleDaysDefault))
	protected.Get("/inventory/:id/history", inventory.StockHistoryHandler(db))

	lg.Info("server çalışıyor", zap.String("port", cfg.HTTPPort))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		lg.Fatal("server durdu", zap.Error(err))
	}
}
