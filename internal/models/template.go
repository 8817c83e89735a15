package models

import "time"

// WeekdaySet: Haftanın günleri bit maskesi (bit 0 = Pazar ... bit 6 = Cumartesi)
type WeekdaySet uint8

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Template: Tekrar kullanılabilir kontrol listesi tanımı
type Template struct {
	ID       uint   `gorm:"primaryKey"`
	BranchID uint   `gorm:"index;not null"`
	Branch   Branch
	Name     string `gorm:"size:150;not null"`
	TimeSlot string `gorm:"size:30;not null"` // açılış, kapanış vs.
	IsActive bool   `gorm:"not null"`

	// Haftalık tekrar kuralı (opsiyonel)
	AutoGenerate   bool       `gorm:"not null;default:false"`
	RecurrenceDays WeekdaySet `gorm:"not null;default:0"`
	RecurrenceTime string     `gorm:"size:5"` // "HH:MM"

	Items     []Item `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
