package checklist

import (
	"errors"
	"fmt"
	"sort"

	"checklist-backend/internal/models"

	"gorm.io/gorm"
)

// Tree şablonun maddelerini id ile indekslenmiş düz bir dizide tutar.
// Ebeveyn/çocuk ilişkisi yükleme sırasında bir kez kurulur; canlı referans izlenmez.
type Tree struct {
	Template models.Template

	items     map[uint]*models.Item
	order     []uint
	children  map[uint][]uint // 0 = kök
	links     map[uint]*models.ExternalLink
	linkOwner map[uint]uint
}

// NewTree maddeleri doğrular ve indeksleri kurar.
// Başka şablona ait ebeveyn ya da döngü içeren ağaç hata döner.
func NewTree(tpl models.Template, items []models.Item) (*Tree, error) {
	t := &Tree{
		Template:  tpl,
		items:     make(map[uint]*models.Item, len(items)),
		children:  make(map[uint][]uint),
		links:     make(map[uint]*models.ExternalLink),
		linkOwner: make(map[uint]uint),
	}

	for i := range items {
		it := items[i]
		if it.TemplateID != tpl.ID {
			return nil, fmt.Errorf("madde %d şablon %d'e ait değil", it.ID, tpl.ID)
		}
		sort.SliceStable(it.Links, func(a, b int) bool {
			if it.Links[a].SortOrder != it.Links[b].SortOrder {
				return it.Links[a].SortOrder < it.Links[b].SortOrder
			}
			return it.Links[a].ID < it.Links[b].ID
		})
		t.items[it.ID] = &it
		for j := range it.Links {
			l := &it.Links[j]
			t.links[l.ID] = l
			t.linkOwner[l.ID] = it.ID
		}
	}

	for id, it := range t.items {
		parent := uint(0)
		if it.ParentID != nil {
			parent = *it.ParentID
			if _, ok := t.items[parent]; !ok {
				return nil, fmt.Errorf("madde %d için ebeveyn %d bulunamadı", id, parent)
			}
		}
		t.children[parent] = append(t.children[parent], id)
	}
	for parent := range t.children {
		ids := t.children[parent]
		sort.Slice(ids, func(a, b int) bool {
			ia, ib := t.items[ids[a]], t.items[ids[b]]
			if ia.SortOrder != ib.SortOrder {
				return ia.SortOrder < ib.SortOrder
			}
			return ia.ID < ib.ID
		})
	}

	// Kökten derinlik öncelikli sıra; ulaşılamayan madde döngü demektir
	var walk func(parent uint)
	walk = func(parent uint) {
		for _, id := range t.children[parent] {
			t.order = append(t.order, id)
			walk(id)
		}
	}
	walk(0)
	if len(t.order) != len(t.items) {
		return nil, fmt.Errorf("şablon %d madde ağacında döngü var", tpl.ID)
	}

	return t, nil
}

// LoadTree şablonu maddeleri ve bağlantılarıyla birlikte yükler.
func LoadTree(db *gorm.DB, templateID uint) (*Tree, error) {
	var tpl models.Template
	if err := db.First(&tpl, "id = ?", templateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("şablon", templateID)
		}
		return nil, err
	}

	var items []models.Item
	if err := db.Preload("Links").Where("template_id = ?", templateID).Find(&items).Error; err != nil {
		return nil, err
	}
	return NewTree(tpl, items)
}

func (t *Tree) Item(id uint) (*models.Item, bool) {
	it, ok := t.items[id]
	return it, ok
}

// Items maddeleri görüntüleme sırasında (derinlik öncelikli) döner.
func (t *Tree) Items() []*models.Item {
	out := make([]*models.Item, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.items[id])
	}
	return out
}

// ChildrenOf nil için kök maddeleri döner.
func (t *Tree) ChildrenOf(parentID *uint) []*models.Item {
	key := uint(0)
	if parentID != nil {
		key = *parentID
	}
	ids := t.children[key]
	out := make([]*models.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.items[id])
	}
	return out
}

// Link bağlantıyı ve sahibi olan maddeyi döner.
func (t *Tree) Link(id uint) (*models.ExternalLink, *models.Item, bool) {
	l, ok := t.links[id]
	if !ok {
		return nil, nil, false
	}
	return l, t.items[t.linkOwner[id]], true
}

func (t *Tree) Len() int { return len(t.items) }
