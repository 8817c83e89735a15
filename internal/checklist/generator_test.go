package checklist_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"checklist-backend/internal/checklist"
	"checklist-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGenerate_SecondCallIsReportedSkip(t *testing.T) {
	e := newEnv(t)
	req := checklist.GenerateRequest{Date: day, TemplateIDs: []uint{e.fx.Template.ID}}

	first, err := e.svc.Generator.Generate(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CreatedCount)
	assert.Equal(t, "2024-01-15", first.Date)
	assert.Empty(t, first.Skipped)

	second, err := e.svc.Generator.Generate(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.CreatedCount)
	assert.Empty(t, second.Created)
	assert.Equal(t, []checklist.SkippedTemplate{
		{TemplateID: e.fx.Template.ID, Reason: checklist.SkipAlreadyExists},
	}, second.Skipped)

	var count int64
	e.db.Model(&models.Instance{}).Where("template_id = ?", e.fx.Template.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGenerate_NormalizesToDayBoundary(t *testing.T) {
	e := newEnv(t)

	morning := time.Date(2024, 1, 15, 8, 30, 0, 0, testLoc)
	// Aynı yerel gün, UTC'de bir önceki güne düşer
	earlyUTC := time.Date(2024, 1, 14, 22, 15, 0, 0, time.UTC)

	id := e.newInstance(t, morning)
	res, err := e.svc.Generator.Generate(t.Context(), checklist.GenerateRequest{
		Date:        earlyUTC,
		TemplateIDs: []uint{e.fx.Template.ID},
	})
	require.NoError(t, err)
	assert.Zero(t, res.CreatedCount)
	require.Len(t, res.Skipped, 1)

	inst := e.instance(t, id)
	local := inst.Date.In(testLoc)
	assert.Equal(t, 0, local.Hour())
	assert.Equal(t, 0, local.Minute())
	assert.Equal(t, 15, local.Day())
}

func TestGenerate_DoesNotPrepopulateProgress(t *testing.T) {
	e := newEnv(t)
	id := e.newInstance(t, day)

	var items, links int64
	e.db.Model(&models.ItemProgress{}).Where("instance_id = ?", id).Count(&items)
	e.db.Model(&models.LinkProgress{}).Where("instance_id = ?", id).Count(&links)
	assert.Zero(t, items)
	assert.Zero(t, links)
}

func TestGenerate_ByRecurrenceFiltersWeekdayAndFlags(t *testing.T) {
	e := newEnv(t)
	branch := e.fx.Branch.ID
	monday := models.NewWeekdaySet(time.Monday, time.Wednesday)
	tuesday := models.NewWeekdaySet(time.Tuesday)

	match := models.Template{BranchID: branch, Name: "Pzt", TimeSlot: "opening", IsActive: true, AutoGenerate: true, RecurrenceDays: monday}
	otherDay := models.Template{BranchID: branch, Name: "Salı", TimeSlot: "opening", IsActive: true, AutoGenerate: true, RecurrenceDays: tuesday}
	manual := models.Template{BranchID: branch, Name: "Elle", TimeSlot: "opening", IsActive: true, RecurrenceDays: monday}
	inactive := models.Template{BranchID: branch, Name: "Pasif", TimeSlot: "opening", AutoGenerate: true, RecurrenceDays: monday}
	for _, tpl := range []*models.Template{&match, &otherDay, &manual, &inactive} {
		require.NoError(t, e.db.Create(tpl).Error)
	}

	res, err := e.svc.Generator.Generate(t.Context(), checklist.GenerateRequest{Date: day, ByRecurrence: true})
	require.NoError(t, err)
	require.Equal(t, 1, res.CreatedCount)
	assert.Equal(t, match.ID, res.Created[0].TemplateID)

	// Tekrar çalıştırma no-op
	res, err = e.svc.Generator.Generate(t.Context(), checklist.GenerateRequest{Date: day, ByRecurrence: true})
	require.NoError(t, err)
	assert.Zero(t, res.CreatedCount)
	assert.Equal(t, []checklist.SkippedTemplate{{TemplateID: match.ID, Reason: checklist.SkipAlreadyExists}}, res.Skipped)
}

func TestGenerate_ExplicitTemplatesReportMissingAndInactive(t *testing.T) {
	e := newEnv(t)
	inactive := models.Template{BranchID: e.fx.Branch.ID, Name: "Pasif", TimeSlot: "closing"}
	require.NoError(t, e.db.Create(&inactive).Error)

	res, err := e.svc.Generator.Generate(t.Context(), checklist.GenerateRequest{
		Date:        day,
		TemplateIDs: []uint{e.fx.Template.ID, 999, inactive.ID, e.fx.Template.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CreatedCount)
	assert.ElementsMatch(t, []checklist.SkippedTemplate{
		{TemplateID: 999, Reason: checklist.SkipTemplateNotFound},
		{TemplateID: inactive.ID, Reason: checklist.SkipTemplateInactive},
	}, res.Skipped)
}

func TestGenerate_RequiresTemplatesOrRecurrence(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Generator.Generate(t.Context(), checklist.GenerateRequest{Date: day})
	assert.ErrorIs(t, err, checklist.ErrInvalidInput)
}

func TestGenerate_ConcurrentRunsCreateOnce(t *testing.T) {
	checkConcurrentGenerateOnce(t, newEnv(t))
}

// checkConcurrentGenerateOnce eşzamanlı üretimlerin tek instance oluşturduğunu doğrular.
func checkConcurrentGenerateOnce(t *testing.T, e *env) {
	t.Helper()
	req := checklist.GenerateRequest{Date: day, TemplateIDs: []uint{e.fx.Template.ID}}

	var wg sync.WaitGroup
	results := make([]*checklist.GenerateResult, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.svc.Generator.Generate(context.Background(), req)
		}(i)
	}
	wg.Wait()

	created, skipped := 0, 0
	for i := range results {
		require.NoError(t, errs[i])
		created += results[i].CreatedCount
		skipped += len(results[i].Skipped)
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 3, skipped)
}

type fakeLocker struct {
	mu       sync.Mutex
	obtained []string
	released int
}

func (f *fakeLocker) Obtain(_ context.Context, key string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obtained = append(f.obtained, key)
	return func() {
		f.mu.Lock()
		f.released++
		f.mu.Unlock()
	}, nil
}

func TestGenerate_UsesLockPerDay(t *testing.T) {
	e := newEnv(t)
	lk := &fakeLocker{}
	gen := checklist.NewGenerator(e.db, testLoc, lk, zap.NewNop())

	_, err := gen.Generate(t.Context(), checklist.GenerateRequest{Date: day, TemplateIDs: []uint{e.fx.Template.ID}})
	require.NoError(t, err)

	assert.Equal(t, []string{"checklist:generate:2024-01-15"}, lk.obtained)
	assert.Equal(t, 1, lk.released)
}
