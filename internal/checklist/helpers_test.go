package checklist_test

import (
	"testing"
	"time"

	"checklist-backend/internal/checklist"
	"checklist-backend/internal/inventory"
	"checklist-backend/internal/models"
	"checklist-backend/internal/testinfra"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	testLoc = time.FixedZone("TRT", 3*60*60)
	alice   = models.Actor{ID: 1, Name: "alice"}
	bob     = models.Actor{ID: 2, Name: "bob"}
	day     = time.Date(2024, time.January, 15, 0, 0, 0, 0, testLoc) // Pazartesi
)

type env struct {
	db  *gorm.DB
	fx  *testinfra.Fixture
	svc *checklist.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvOn(t, testinfra.NewTestDB(t))
}

func newEnvOn(t *testing.T, db *gorm.DB) *env {
	t.Helper()
	fx := testinfra.SeedFixture(t, db)
	svc := checklist.NewService(db, checklist.Options{
		Location: testLoc,
		Sync:     inventory.NewSynchronizer(zap.NewNop()),
	}, zap.NewNop())
	return &env{db: db, fx: fx, svc: svc}
}

// newInstance fixture şablonu için verilen güne instance üretir.
func (e *env) newInstance(t *testing.T, d time.Time) uint {
	t.Helper()
	res, err := e.svc.Generator.Generate(t.Context(), checklist.GenerateRequest{
		Date:        d,
		TemplateIDs: []uint{e.fx.Template.ID},
	})
	require.NoError(t, err)
	require.Len(t, res.Created, 1)
	return res.Created[0].InstanceID
}

func (e *env) instance(t *testing.T, id uint) models.Instance {
	t.Helper()
	var inst models.Instance
	require.NoError(t, e.db.First(&inst, id).Error)
	return inst
}

func (e *env) stock(t *testing.T) float64 {
	t.Helper()
	var rec models.InventoryRecord
	require.NoError(t, e.db.First(&rec, e.fx.Inventory.ID).Error)
	return rec.CurrentStock
}

func ptr[T any](v T) *T { return &v }
