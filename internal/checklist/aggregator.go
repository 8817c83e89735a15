package checklist

import (
	"time"

	"checklist-backend/internal/models"
)

type State string

const (
	StateIncomplete State = "incomplete"
	StateComplete   State = "complete"
)

// Snapshot bir instance'ın o anki tüm ilerleme kayıtları.
type Snapshot struct {
	Items map[uint]models.ItemProgress // item_id -> kayıt
	Links map[uint]models.LinkProgress // link_id -> kayıt
}

func NewSnapshot(items []models.ItemProgress, links []models.LinkProgress) Snapshot {
	s := Snapshot{
		Items: make(map[uint]models.ItemProgress, len(items)),
		Links: make(map[uint]models.LinkProgress, len(links)),
	}
	for _, p := range items {
		s.Items[p.ItemID] = p
	}
	for _, p := range links {
		s.Links[p.LinkID] = p
	}
	return s
}

// ItemState bağlantılı madde tüm bağlantıları tamamlanınca, bağlantısız madde
// kendi kaydı tamamlanınca tamamdır. Kaydı olmayan madde tamamlanmamış sayılır.
func ItemState(item *models.Item, snap Snapshot) State {
	if len(item.Links) == 0 {
		if p, ok := snap.Items[item.ID]; ok && p.IsCompleted {
			return StateComplete
		}
		return StateIncomplete
	}
	for _, l := range item.Links {
		p, ok := snap.Links[l.ID]
		if !ok || !p.IsCompleted {
			return StateIncomplete
		}
	}
	return StateComplete
}

// ItemStatus maddenin türetilmiş görünümü. Saklanmaz, her okumada yeniden hesaplanır.
type ItemStatus struct {
	ItemID          uint       `json:"item_id"`
	State           State      `json:"state"`
	CompletedBy     *uint      `json:"completed_by"`
	CompletedByName string     `json:"completed_by_name"`
	CompletedAt     *time.Time `json:"completed_at"`
	Notes           string     `json:"notes"`
	LinksDone       int        `json:"links_done"`
	LinksTotal      int        `json:"links_total"`
}

// StatusOf bağlantılı maddede kim/ne zaman bilgisini en son tamamlanan
// bağlantıdan alır; hiçbiri tamamlanmadıysa boş kalır.
func StatusOf(item *models.Item, snap Snapshot) ItemStatus {
	st := ItemStatus{
		ItemID:     item.ID,
		State:      ItemState(item, snap),
		LinksTotal: len(item.Links),
	}

	if len(item.Links) == 0 {
		if p, ok := snap.Items[item.ID]; ok {
			st.Notes = p.Notes
			if p.IsCompleted {
				st.CompletedBy = p.CompletedBy
				st.CompletedByName = p.CompletedByName
				st.CompletedAt = p.CompletedAt
			}
		}
		return st
	}

	for _, l := range item.Links {
		p, ok := snap.Links[l.ID]
		if !ok || !p.IsCompleted {
			continue
		}
		st.LinksDone++
		if p.CompletedAt != nil && (st.CompletedAt == nil || p.CompletedAt.After(*st.CompletedAt)) {
			st.CompletedBy = p.CompletedBy
			st.CompletedByName = p.CompletedByName
			st.CompletedAt = p.CompletedAt
			st.Notes = p.Notes
		}
	}
	return st
}

type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

func (p Progress) Done() bool { return p.Completed == p.Total }

// InstanceProgress şablondaki her maddenin durumunu toplar.
func InstanceProgress(tree *Tree, snap Snapshot) Progress {
	p := Progress{Total: tree.Len()}
	for _, it := range tree.Items() {
		if ItemState(it, snap) == StateComplete {
			p.Completed++
		}
	}
	return p
}

// IncompleteItems tamamlanmamış maddelerin id'lerini ağaç sırasıyla döner.
func IncompleteItems(tree *Tree, snap Snapshot) []uint {
	var ids []uint
	for _, it := range tree.Items() {
		if ItemState(it, snap) != StateComplete {
			ids = append(ids, it.ID)
		}
	}
	return ids
}
