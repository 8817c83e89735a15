package models

import "time"

// Item: Şablonun bir satırı. ParentID ile başka bir maddenin altına yerleşebilir.
type Item struct {
	ID           uint   `gorm:"primaryKey"`
	TemplateID   uint   `gorm:"index;not null"`
	ParentID     *uint  `gorm:"index"`
	SortOrder    int    `gorm:"not null;default:0"`
	Title        string `gorm:"size:255;not null"`
	Required     bool   `gorm:"not null"`
	Instructions string `gorm:"type:text"`

	Links     []ExternalLink `gorm:"foreignKey:OwnerItemID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type LinkKind string

const (
	LinkKindInventory  LinkKind = "inventory"
	LinkKindPrecaution LinkKind = "precaution"
	LinkKindManual     LinkKind = "manual"
)

func (k LinkKind) Valid() bool {
	switch k {
	case LinkKindInventory, LinkKindPrecaution, LinkKindManual:
		return true
	}
	return false
}

// ExternalLink: Maddeden stok/önlem/kılavuz kaydına tipli referans.
// TargetID için veritabanı seviyesinde foreign key yok.
type ExternalLink struct {
	ID          uint     `gorm:"primaryKey"`
	OwnerItemID uint     `gorm:"index;not null"`
	Kind        LinkKind `gorm:"size:20;not null"`
	TargetID    uint     `gorm:"not null"`
	SortOrder   int      `gorm:"not null;default:0"`
	CreatedAt   time.Time
}
