package checklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checklist-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SkipAlreadyExists    = "already_exists"
	SkipTemplateNotFound = "template_not_found"
	SkipTemplateInactive = "template_inactive"
)

// Locker aynı gün için eşzamanlı üretim çalışmalarını sıralar (opsiyonel).
type Locker interface {
	Obtain(ctx context.Context, key string) (release func(), err error)
}

type GenerateRequest struct {
	Date         time.Time
	TemplateIDs  []uint
	ByRecurrence bool // true ise TemplateIDs yok sayılır
}

type CreatedInstance struct {
	TemplateID uint `json:"template_id"`
	InstanceID uint `json:"instance_id"`
}

type SkippedTemplate struct {
	TemplateID uint   `json:"template_id"`
	Reason     string `json:"reason"`
}

type GenerateResult struct {
	Date         string            `json:"date"`
	CreatedCount int               `json:"created_count"`
	Created      []CreatedInstance `json:"created"`
	Skipped      []SkippedTemplate `json:"skipped"`
}

type Generator struct {
	db     *gorm.DB
	loc    *time.Location
	locker Locker
	log    *zap.Logger
}

func NewGenerator(db *gorm.DB, loc *time.Location, locker Locker, log *zap.Logger) *Generator {
	if loc == nil {
		loc = time.Local
	}
	return &Generator{db: db, loc: loc, locker: locker, log: log}
}

// NormalizeDate verilen anı loc'a göre günün başına (00:00) çeker.
func NormalizeDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Generate her şablon için en fazla bir instance oluşturur.
// Zaten var olan (şablon, gün) çifti hata değil, atlandı olarak raporlanır.
// İlerleme kayıtları önceden oluşturulmaz, ilk işaretlemede oluşur.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	day := NormalizeDate(req.Date, g.loc)
	result := &GenerateResult{
		Date:    day.Format("2006-01-02"),
		Created: []CreatedInstance{},
		Skipped: []SkippedTemplate{},
	}

	if g.locker != nil {
		release, err := g.locker.Obtain(ctx, "checklist:generate:"+result.Date)
		if err != nil {
			return nil, fmt.Errorf("üretim kilidi alınamadı: %w", err)
		}
		defer release()
	}

	templates, err := g.selectTemplates(ctx, day, req, result)
	if err != nil {
		return nil, err
	}

	for _, tpl := range templates {
		inst := models.Instance{TemplateID: tpl.ID, Date: day}
		res := g.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&inst)
		if res.Error != nil && !errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("instance oluşturulamadı (şablon %d): %w", tpl.ID, res.Error)
		}
		if res.Error != nil || res.RowsAffected == 0 {
			result.Skipped = append(result.Skipped, SkippedTemplate{TemplateID: tpl.ID, Reason: SkipAlreadyExists})
			continue
		}
		result.Created = append(result.Created, CreatedInstance{TemplateID: tpl.ID, InstanceID: inst.ID})
	}
	result.CreatedCount = len(result.Created)

	g.log.Info("instance üretimi tamamlandı",
		zap.String("date", result.Date),
		zap.Bool("by_recurrence", req.ByRecurrence),
		zap.Int("created", result.CreatedCount),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

func (g *Generator) selectTemplates(ctx context.Context, day time.Time, req GenerateRequest, result *GenerateResult) ([]models.Template, error) {
	db := g.db.WithContext(ctx)

	if req.ByRecurrence {
		var candidates []models.Template
		err := db.Where("is_active = ? AND auto_generate = ?", true, true).Order("id ASC").Find(&candidates).Error
		if err != nil {
			return nil, fmt.Errorf("şablonlar okunamadı: %w", err)
		}
		out := make([]models.Template, 0, len(candidates))
		for _, t := range candidates {
			if t.RecurrenceDays.Has(day.Weekday()) {
				out = append(out, t)
			}
		}
		return out, nil
	}

	if len(req.TemplateIDs) == 0 {
		return nil, invalid("template_ids veya by_recurrence gerekli")
	}

	var found []models.Template
	if err := db.Where("id IN ?", req.TemplateIDs).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("şablonlar okunamadı: %w", err)
	}
	byID := make(map[uint]models.Template, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}

	seen := make(map[uint]bool, len(req.TemplateIDs))
	out := make([]models.Template, 0, len(found))
	for _, id := range req.TemplateIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		t, ok := byID[id]
		switch {
		case !ok:
			result.Skipped = append(result.Skipped, SkippedTemplate{TemplateID: id, Reason: SkipTemplateNotFound})
		case !t.IsActive:
			result.Skipped = append(result.Skipped, SkippedTemplate{TemplateID: id, Reason: SkipTemplateInactive})
		default:
			out = append(out, t)
		}
	}
	return out, nil
}
