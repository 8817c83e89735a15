package models

import "time"

// Instance: Bir şablonun belirli bir güne ait kopyası.
// (template_id, date) çifti tekildir.
type Instance struct {
	ID          uint      `gorm:"primaryKey"`
	TemplateID  uint      `gorm:"not null;uniqueIndex:idx_instances_template_date"`
	Template    Template
	Date        time.Time `gorm:"not null;uniqueIndex:idx_instances_template_date"` // gün başı (00:00)
	EmployeeID  *uint     `gorm:"index"`
	IsCompleted bool      `gorm:"not null;default:false"` // Arayüz için kolaylık bayrağı, gönderimde kullanılmaz
	IsSubmitted bool      `gorm:"not null;default:false"`
	SubmittedAt *time.Time
	SubmittedBy *uint
	Notes       string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemProgress: Bağlantısız bir maddenin instance içindeki tamamlanma kaydı
type ItemProgress struct {
	ID         uint `gorm:"primaryKey"`
	InstanceID uint `gorm:"not null;uniqueIndex:idx_item_progress_key"`
	ItemID     uint `gorm:"not null;uniqueIndex:idx_item_progress_key"`
	Completion
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LinkProgress: Bir dış bağlantının instance içindeki tamamlanma kaydı.
// Stok bağlantılarında sayım öncesi/sonrası değerler de tutulur.
type LinkProgress struct {
	ID         uint `gorm:"primaryKey"`
	InstanceID uint `gorm:"not null;uniqueIndex:idx_link_progress_key"`
	LinkID     uint `gorm:"not null;uniqueIndex:idx_link_progress_key;index"`
	Completion
	StockBefore *float64
	StockAfter  *float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Completion: ItemProgress ve LinkProgress ortak alanları
type Completion struct {
	IsCompleted     bool `gorm:"not null;default:false"`
	CompletedBy     *uint
	CompletedByName string `gorm:"size:100"`
	CompletedAt     *time.Time
	Notes           string `gorm:"type:text"`
}

// Toggle tamamlanma durumunu uygular.
// false -> true geçişinde kim/ne zaman yazılır, true -> false geçişinde temizlenir.
// Aynı değer tekrar gönderilirse kim/ne zaman korunur; not verilmişse güncellenir.
func (c *Completion) Toggle(completed bool, actor Actor, notes *string, now time.Time) {
	if notes != nil {
		c.Notes = *notes
	}
	if completed == c.IsCompleted {
		return
	}
	c.IsCompleted = completed
	if completed {
		id := actor.ID
		t := now
		c.CompletedBy = &id
		c.CompletedByName = actor.Name
		c.CompletedAt = &t
		return
	}
	c.CompletedBy = nil
	c.CompletedByName = ""
	c.CompletedAt = nil
}
