package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"checklist-backend/internal/models"
	"checklist-backend/internal/testinfra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func seedRecord(t *testing.T, db *gorm.DB, rec models.InventoryRecord) models.InventoryRecord {
	t.Helper()
	require.NoError(t, db.Create(&rec).Error)
	return rec
}

func TestSynchronizer_ApplyUpdatesStockAndAudit(t *testing.T) {
	db := testinfra.NewTestDB(t)
	rec := seedRecord(t, db, models.InventoryRecord{Name: "Un", Unit: "kg", CurrentStock: 40, MinStock: 10})

	fixed := time.Now().Add(time.Hour).Truncate(time.Second)
	s := NewSynchronizer(zap.NewNop())
	s.now = func() time.Time { return fixed }

	change, err := s.Sync(context.Background(), db, rec.ID, 32.5, models.Actor{ID: 7, Name: "mehmet"})
	require.NoError(t, err)
	assert.Equal(t, 40.0, change.Before)
	assert.Equal(t, 32.5, change.After)
	assert.True(t, fixed.Equal(change.UpdatedAt))

	var got models.InventoryRecord
	require.NoError(t, db.First(&got, rec.ID).Error)
	assert.Equal(t, 32.5, got.CurrentStock)
	assert.True(t, fixed.Equal(got.LastUpdated))
	require.NotNil(t, got.LastUpdatedBy)
	assert.Equal(t, uint(7), *got.LastUpdatedBy)
	assert.Equal(t, "mehmet", got.LastUpdatedByName)

	var logs []models.AuditLog
	require.NoError(t, db.Where("entity_type = ? AND entity_id = ?", "inventory_record", rec.ID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionUpdate, logs[0].Action)
	assert.JSONEq(t, `{"current_stock":40}`, logs[0].BeforeData)
	assert.JSONEq(t, `{"current_stock":32.5}`, logs[0].AfterData)
}

func TestSynchronizer_Rejections(t *testing.T) {
	db := testinfra.NewTestDB(t)
	rec := seedRecord(t, db, models.InventoryRecord{Name: "Un", Unit: "kg", CurrentStock: 40})
	s := NewSynchronizer(zap.NewNop())
	actor := models.Actor{ID: 1, Name: "alice"}

	_, err := s.Sync(context.Background(), db, rec.ID, -1, actor)
	assert.ErrorIs(t, err, ErrInvalidStock)

	_, err = s.Sync(context.Background(), db, rec.ID+100, 5, actor)
	assert.ErrorIs(t, err, ErrRecordNotFound)

	var got models.InventoryRecord
	require.NoError(t, db.First(&got, rec.ID).Error)
	assert.Equal(t, 40.0, got.CurrentStock)

	var count int64
	db.Model(&models.AuditLog{}).Count(&count)
	assert.Zero(t, count)
}

func TestSynchronizer_RollsBackWithCallerTransaction(t *testing.T) {
	db := testinfra.NewTestDB(t)
	rec := seedRecord(t, db, models.InventoryRecord{Name: "Süt", Unit: "lt", CurrentStock: 12})
	s := NewSynchronizer(zap.NewNop())

	boom := errors.New("sonraki adım başarısız")
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.Apply(tx, rec.ID, 3, models.Actor{ID: 1, Name: "alice"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var got models.InventoryRecord
	require.NoError(t, db.First(&got, rec.ID).Error)
	assert.Equal(t, 12.0, got.CurrentStock)
	assert.True(t, got.LastUpdated.Equal(got.CreatedAt), "güncellenmemiş sayılmalı")

	var count int64
	db.Model(&models.AuditLog{}).Count(&count)
	assert.Zero(t, count)
}

func TestSynchronizer_ConcurrentWritesSeeEachOther(t *testing.T) {
	db := testinfra.NewTestDB(t)
	rec := seedRecord(t, db, models.InventoryRecord{Name: "Yağ", Unit: "lt", CurrentStock: 1})
	s := NewSynchronizer(zap.NewNop())

	const n = 8
	changes := make([]StockChange, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := s.Sync(context.Background(), db, rec.ID, float64(10+i), models.Actor{ID: uint(i + 1), Name: "çalışan"})
			assert.NoError(t, err)
			changes[i] = c
		}(i)
	}
	wg.Wait()

	befores := make(map[float64]bool, n)
	for _, c := range changes {
		assert.False(t, befores[c.Before], "aynı before değeri iki kez görüldü: %v", c.Before)
		befores[c.Before] = true
	}
	assert.True(t, befores[1], "ilk yazım başlangıç stokunu görmeli")
}
