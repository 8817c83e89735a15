package testinfra

import (
	"path/filepath"
	"testing"

	"checklist-backend/internal/database"
	"checklist-backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewTestDB test başına geçici bir sqlite dosyası açar ve migrate eder.
// Tek bağlantı ile tüm işlemler sıralanır; transaction'lar birbirini bekler.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "checklist.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("test veritabanı açılamadı: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB alınamadı: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migration başarısız: %v", err)
	}
	return db
}

// Fixture testlerde kullanılan örnek şablon ve stok kaydı.
//
//	Item A: bağlantısız
//	Item B: stok X + kılavuz Y bağlantılı
type Fixture struct {
	Branch    models.Branch
	Template  models.Template
	ItemA     models.Item
	ItemB     models.Item
	LinkX     models.ExternalLink
	LinkY     models.ExternalLink
	Inventory models.InventoryRecord
}

func SeedFixture(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()

	f := &Fixture{}
	f.Branch = models.Branch{Name: "Kadıköy"}
	must(t, db.Create(&f.Branch).Error)

	branchID := f.Branch.ID
	f.Inventory = models.InventoryRecord{BranchID: &branchID, Name: "Domates", Unit: "kg", CurrentStock: 20, MinStock: 5}
	must(t, db.Create(&f.Inventory).Error)

	f.Template = models.Template{BranchID: f.Branch.ID, Name: "Açılış", TimeSlot: "opening", IsActive: true}
	must(t, db.Create(&f.Template).Error)

	f.ItemA = models.Item{TemplateID: f.Template.ID, SortOrder: 1, Title: "Kasayı aç", Required: true}
	must(t, db.Create(&f.ItemA).Error)
	f.ItemB = models.Item{TemplateID: f.Template.ID, SortOrder: 2, Title: "Domates sayımı", Required: true}
	must(t, db.Create(&f.ItemB).Error)

	f.LinkX = models.ExternalLink{OwnerItemID: f.ItemB.ID, Kind: models.LinkKindInventory, TargetID: f.Inventory.ID, SortOrder: 1}
	must(t, db.Create(&f.LinkX).Error)
	f.LinkY = models.ExternalLink{OwnerItemID: f.ItemB.ID, Kind: models.LinkKindManual, TargetID: 42, SortOrder: 2}
	must(t, db.Create(&f.LinkY).Error)

	return f
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("fixture oluşturulamadı: %v", err)
	}
}
