package checklist

import (
	"context"
	"fmt"

	"checklist-backend/internal/models"
)

// Link dış bağlantının tipli hali. Yalnızca bu paketteki üç varyant uygular.
type Link interface {
	LinkID() uint
	Kind() models.LinkKind
	TargetID() uint
	isLink()
}

type InventoryLink struct {
	ID          uint
	InventoryID uint
}

type PrecautionLink struct {
	ID           uint
	PrecautionID uint
}

type ManualLink struct {
	ID       uint
	ManualID uint
}

func (l InventoryLink) LinkID() uint          { return l.ID }
func (l InventoryLink) Kind() models.LinkKind { return models.LinkKindInventory }
func (l InventoryLink) TargetID() uint        { return l.InventoryID }
func (InventoryLink) isLink()                 {}

func (l PrecautionLink) LinkID() uint          { return l.ID }
func (l PrecautionLink) Kind() models.LinkKind { return models.LinkKindPrecaution }
func (l PrecautionLink) TargetID() uint        { return l.PrecautionID }
func (PrecautionLink) isLink()                 {}

func (l ManualLink) LinkID() uint          { return l.ID }
func (l ManualLink) Kind() models.LinkKind { return models.LinkKindManual }
func (l ManualLink) TargetID() uint        { return l.ManualID }
func (ManualLink) isLink()                 {}

// LinkOf veritabanı kaydını varyanta çevirir. Tür string'i yalnızca burada okunur.
func LinkOf(l models.ExternalLink) (Link, error) {
	switch l.Kind {
	case models.LinkKindInventory:
		return InventoryLink{ID: l.ID, InventoryID: l.TargetID}, nil
	case models.LinkKindPrecaution:
		return PrecautionLink{ID: l.ID, PrecautionID: l.TargetID}, nil
	case models.LinkKindManual:
		return ManualLink{ID: l.ID, ManualID: l.TargetID}, nil
	}
	return nil, fmt.Errorf("bilinmeyen bağlantı tipi: %q (ID: %d)", l.Kind, l.ID)
}

// Resolver bir bağlantı hedefini okunabilir başlığa çevirir.
type Resolver interface {
	Resolve(ctx context.Context, targetID uint) (string, error)
}

// Resolvers her varyant için ayrı çözümleyici taşır. Boş olanlar için
// "<tür> #<id>" başlığı üretilir.
type Resolvers struct {
	Inventory  Resolver
	Precaution Resolver
	Manual     Resolver
}

func (r Resolvers) Title(ctx context.Context, l Link) (string, error) {
	var res Resolver
	switch l.(type) {
	case InventoryLink:
		res = r.Inventory
	case PrecautionLink:
		res = r.Precaution
	case ManualLink:
		res = r.Manual
	}
	if res == nil {
		return fmt.Sprintf("%s #%d", l.Kind(), l.TargetID()), nil
	}
	return res.Resolve(ctx, l.TargetID())
}
