package checklist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checklist-backend/internal/models"

	"gorm.io/gorm"
)

type LinkView struct {
	LinkID          uint            `json:"link_id"`
	Kind            models.LinkKind `json:"kind"`
	TargetID        uint            `json:"target_id"`
	Title           string          `json:"title,omitempty"`
	IsCompleted     bool            `json:"is_completed"`
	CompletedBy     *uint           `json:"completed_by"`
	CompletedByName string          `json:"completed_by_name"`
	CompletedAt     *time.Time      `json:"completed_at"`
	Notes           string          `json:"notes"`
	StockBefore     *float64        `json:"stock_before,omitempty"`
	StockAfter      *float64        `json:"stock_after,omitempty"`
}

type ItemView struct {
	ItemStatus
	ParentID     *uint      `json:"parent_id"`
	Title        string     `json:"title"`
	Instructions string     `json:"instructions"`
	Required     bool       `json:"required"`
	SortOrder    int        `json:"sort_order"`
	Links        []LinkView `json:"links"`
}

type InstanceDetail struct {
	ID           uint       `json:"id"`
	TemplateID   uint       `json:"template_id"`
	TemplateName string     `json:"template_name"`
	TimeSlot     string     `json:"time_slot"`
	BranchID     uint       `json:"branch_id"`
	Date         string     `json:"date"`
	EmployeeID   *uint      `json:"employee_id"`
	IsCompleted  bool       `json:"is_completed"`
	IsSubmitted  bool       `json:"is_submitted"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	Notes        string     `json:"notes"`
	Progress     Progress   `json:"progress"`
	Items        []ItemView `json:"items"`
}

type InstanceSummary struct {
	ID           uint       `json:"id"`
	TemplateID   uint       `json:"template_id"`
	TemplateName string     `json:"template_name"`
	TimeSlot     string     `json:"time_slot"`
	BranchID     uint       `json:"branch_id"`
	Date         string     `json:"date"`
	IsSubmitted  bool       `json:"is_submitted"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	Progress     Progress   `json:"progress"`
}

// Reader instance okuma modelini her çağrıda güncel kayıtlardan üretir.
type Reader struct {
	db        *gorm.DB
	loc       *time.Location
	resolvers Resolvers
}

func NewReader(db *gorm.DB, loc *time.Location, resolvers Resolvers) *Reader {
	if loc == nil {
		loc = time.Local
	}
	return &Reader{db: db, loc: loc, resolvers: resolvers}
}

func (r *Reader) GetInstance(ctx context.Context, instanceID uint) (*InstanceDetail, error) {
	db := r.db.WithContext(ctx)

	var inst models.Instance
	if err := db.First(&inst, "id = ?", instanceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("instance", instanceID)
		}
		return nil, fmt.Errorf("instance okunamadı: %w", err)
	}
	tree, err := LoadTree(db, inst.TemplateID)
	if err != nil {
		return nil, err
	}
	snap, err := loadSnapshot(db, inst.ID)
	if err != nil {
		return nil, err
	}

	detail := &InstanceDetail{
		ID:           inst.ID,
		TemplateID:   inst.TemplateID,
		TemplateName: tree.Template.Name,
		TimeSlot:     tree.Template.TimeSlot,
		BranchID:     tree.Template.BranchID,
		Date:         inst.Date.In(r.loc).Format("2006-01-02"),
		EmployeeID:   inst.EmployeeID,
		IsCompleted:  inst.IsCompleted,
		IsSubmitted:  inst.IsSubmitted,
		SubmittedAt:  inst.SubmittedAt,
		Notes:        inst.Notes,
		Progress:     InstanceProgress(tree, snap),
		Items:        make([]ItemView, 0, tree.Len()),
	}

	for _, it := range tree.Items() {
		view := ItemView{
			ItemStatus:   StatusOf(it, snap),
			ParentID:     it.ParentID,
			Title:        it.Title,
			Instructions: it.Instructions,
			Required:     it.Required,
			SortOrder:    it.SortOrder,
			Links:        make([]LinkView, 0, len(it.Links)),
		}
		for _, l := range it.Links {
			lv := LinkView{LinkID: l.ID, Kind: l.Kind, TargetID: l.TargetID}
			if variant, err := LinkOf(l); err == nil {
				// Çözümlenemeyen başlık okuma modelini bozmaz
				if title, err := r.resolvers.Title(ctx, variant); err == nil {
					lv.Title = title
				}
			}
			if p, ok := snap.Links[l.ID]; ok {
				lv.IsCompleted = p.IsCompleted
				lv.CompletedBy = p.CompletedBy
				lv.CompletedByName = p.CompletedByName
				lv.CompletedAt = p.CompletedAt
				lv.Notes = p.Notes
				lv.StockBefore = p.StockBefore
				lv.StockAfter = p.StockAfter
			}
			view.Links = append(view.Links, lv)
		}
		detail.Items = append(detail.Items, view)
	}
	return detail, nil
}

// InstanceBranch instance'ın şablonunun bağlı olduğu şubeyi döner.
// Şablonun şubesi oluşturulduktan sonra değişmez.
func (r *Reader) InstanceBranch(ctx context.Context, instanceID uint) (uint, error) {
	db := r.db.WithContext(ctx)

	var inst models.Instance
	if err := db.Select("id", "template_id").First(&inst, "id = ?", instanceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, notFound("instance", instanceID)
		}
		return 0, fmt.Errorf("instance okunamadı: %w", err)
	}
	var tpl models.Template
	if err := db.Select("id", "branch_id").First(&tpl, "id = ?", inst.TemplateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, notFound("şablon", inst.TemplateID)
		}
		return 0, fmt.Errorf("şablon okunamadı: %w", err)
	}
	return tpl.BranchID, nil
}

// ListInstances bir güne ait instance'ları ilerleme sayılarıyla listeler.
func (r *Reader) ListInstances(ctx context.Context, date time.Time, branchID *uint) ([]InstanceSummary, error) {
	db := r.db.WithContext(ctx)
	day := NormalizeDate(date, r.loc)

	q := db.Preload("Template").Where("date = ?", day)
	if branchID != nil {
		q = q.Where("template_id IN (?)", db.Model(&models.Template{}).Select("id").Where("branch_id = ?", *branchID))
	}

	var instances []models.Instance
	if err := q.Order("id ASC").Find(&instances).Error; err != nil {
		return nil, fmt.Errorf("instance'lar listelenemedi: %w", err)
	}

	out := make([]InstanceSummary, 0, len(instances))
	for _, inst := range instances {
		tree, err := LoadTree(db, inst.TemplateID)
		if err != nil {
			return nil, err
		}
		snap, err := loadSnapshot(db, inst.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, InstanceSummary{
			ID:           inst.ID,
			TemplateID:   inst.TemplateID,
			TemplateName: inst.Template.Name,
			TimeSlot:     inst.Template.TimeSlot,
			BranchID:     inst.Template.BranchID,
			Date:         day.Format("2006-01-02"),
			IsSubmitted:  inst.IsSubmitted,
			SubmittedAt:  inst.SubmittedAt,
			Progress:     InstanceProgress(tree, snap),
		})
	}
	return out, nil
}
