package inventory

import (
	"context"
	"testing"
	"time"

	"checklist-backend/internal/models"
	"checklist-backend/internal/testinfra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var staleNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return staleNow.Add(-time.Duration(n) * 24 * time.Hour) }

type staleFixture struct {
	db      *gorm.DB
	det     *Detector
	branch1 uint
	branch2 uint
	byName  map[string]models.InventoryRecord
}

// newStaleFixture:
//
//	Domates  şube1, 10 gün önce sayıldı, düşük stok
//	Un       şube1, hiç sayılmadı, 20 gün önce oluşturuldu
//	Peynir   şube1, 2 gün önce sayıldı
//	Zeytin   şube2, 8 gün önce sayıldı, stok = min
//	Çay      şube2, hiç sayılmadı, 3 gün önce oluşturuldu
func newStaleFixture(t *testing.T) *staleFixture {
	t.Helper()
	db := testinfra.NewTestDB(t)

	b1 := models.Branch{Name: "Kadıköy"}
	b2 := models.Branch{Name: "Beşiktaş"}
	require.NoError(t, db.Create(&b1).Error)
	require.NoError(t, db.Create(&b2).Error)

	records := []models.InventoryRecord{
		{BranchID: &b1.ID, Name: "Domates", Unit: "kg", CurrentStock: 2, MinStock: 5, CreatedAt: daysAgo(30), LastUpdated: daysAgo(10), LastUpdatedByName: "bob"},
		{BranchID: &b1.ID, Name: "Un", Unit: "kg", CurrentStock: 10, MinStock: 5, CreatedAt: daysAgo(20)},
		{BranchID: &b1.ID, Name: "Peynir", Unit: "kg", CurrentStock: 8, MinStock: 1, CreatedAt: daysAgo(30), LastUpdated: daysAgo(2)},
		{BranchID: &b2.ID, Name: "Zeytin", Unit: "kg", CurrentStock: 5, MinStock: 5, CreatedAt: daysAgo(30), LastUpdated: daysAgo(8)},
		{BranchID: &b2.ID, Name: "Çay", Unit: "paket", CurrentStock: 4, MinStock: 1, CreatedAt: daysAgo(3)},
	}
	f := &staleFixture{db: db, branch1: b1.ID, branch2: b2.ID, byName: map[string]models.InventoryRecord{}}
	for _, r := range records {
		require.NoError(t, db.Create(&r).Error)
		f.byName[r.Name] = r
	}

	f.det = NewDetector(db)
	f.det.now = func() time.Time { return staleNow }
	return f
}

func names(items []StaleItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestDetector_StaleAcrossBranches(t *testing.T) {
	f := newStaleFixture(t)

	report, err := f.det.Stale(context.Background(), StaleQuery{Days: 7})
	require.NoError(t, err)

	assert.Equal(t, []string{"Un", "Domates", "Zeytin"}, names(report.Items))
	assert.Equal(t, 7, report.Days)
	assert.Equal(t, StaleStats{Total: 3, LowStock: 2, AverageDaysStale: 12.7}, report.Stats)

	un := report.Items[0]
	assert.True(t, un.NeverUpdated)
	assert.Equal(t, 20, un.DaysSinceUpdate)
	assert.False(t, un.IsLowStock)

	domates := report.Items[1]
	assert.False(t, domates.NeverUpdated)
	assert.Equal(t, 10, domates.DaysSinceUpdate)
	assert.True(t, domates.IsLowStock)
	assert.Equal(t, "bob", domates.LastUpdatedByName)

	assert.True(t, report.Items[2].IsLowStock, "stok = min düşük sayılır")
}

func TestDetector_StaleScopedToBranch(t *testing.T) {
	f := newStaleFixture(t)

	report, err := f.det.Stale(context.Background(), StaleQuery{Days: 7, BranchID: &f.branch1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Un", "Domates"}, names(report.Items))
	assert.Equal(t, StaleStats{Total: 2, LowStock: 1, AverageDaysStale: 15}, report.Stats)

	report, err = f.det.Stale(context.Background(), StaleQuery{Days: 7, BranchID: &f.branch2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeytin"}, names(report.Items))
}

func TestDetector_ThresholdAndEmptyResult(t *testing.T) {
	f := newStaleFixture(t)

	report, err := f.det.Stale(context.Background(), StaleQuery{Days: 15})
	require.NoError(t, err)
	assert.Equal(t, []string{"Un"}, names(report.Items))

	report, err = f.det.Stale(context.Background(), StaleQuery{Days: 60})
	require.NoError(t, err)
	assert.Empty(t, report.Items)
	assert.Equal(t, StaleStats{}, report.Stats)

	_, err = f.det.Stale(context.Background(), StaleQuery{Days: 0})
	assert.Error(t, err)
}

func TestDetector_SyncedRecordLeavesStaleList(t *testing.T) {
	f := newStaleFixture(t)

	s := NewSynchronizer(zap.NewNop())
	s.now = func() time.Time { return staleNow.Add(-time.Hour) }
	_, err := s.Sync(context.Background(), f.db, f.byName["Un"].ID, 9, models.Actor{ID: 1, Name: "alice"})
	require.NoError(t, err)

	report, err := f.det.Stale(context.Background(), StaleQuery{Days: 7})
	require.NoError(t, err)
	assert.Equal(t, []string{"Domates", "Zeytin"}, names(report.Items))
}
