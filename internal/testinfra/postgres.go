package testinfra

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"checklist-backend/internal/database"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewPostgresTestDB gerçek Postgres üzerinde test başına ayrı bir şema açar.
// INTEGRATION_TESTS ve TEST_DATABASE_DSN tanımlı değilse test atlanır.
// Bağlantı havuzu paylaşılmaz; satır kilitleri (FOR UPDATE) gerçekten devreye girer.
func NewPostgresTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 and TEST_DATABASE_DSN to run postgres integration tests")
	}
	dsn := strings.TrimSpace(os.Getenv("TEST_DATABASE_DSN"))
	if dsn == "" {
		t.Fatal("INTEGRATION_TESTS açık ama TEST_DATABASE_DSN tanımlı değil")
	}

	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	admin, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		t.Fatalf("postgres bağlantısı açılamadı: %v", err)
	}
	adminSQL, err := admin.DB()
	if err != nil {
		t.Fatalf("sql.DB alınamadı: %v", err)
	}

	schema := fmt.Sprintf("checklist_test_%d", time.Now().UnixNano())
	if err := admin.Exec("CREATE SCHEMA " + schema).Error; err != nil {
		_ = adminSQL.Close()
		t.Fatalf("test şeması oluşturulamadı: %v", err)
	}
	t.Cleanup(func() {
		if err := admin.Exec("DROP SCHEMA " + schema + " CASCADE").Error; err != nil {
			t.Logf("test şeması silinemedi (%s): %v", schema, err)
		}
		_ = adminSQL.Close()
	})

	db, err := gorm.Open(postgres.Open(withSearchPath(dsn, schema)), cfg)
	if err != nil {
		t.Fatalf("test şemasına bağlanılamadı: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB alınamadı: %v", err)
	}
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migration başarısız: %v", err)
	}
	return db
}

// withSearchPath hem URL hem key=value DSN biçimine şema ekler.
func withSearchPath(dsn, schema string) string {
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "search_path=" + schema
	}
	return dsn + " search_path=" + schema
}
