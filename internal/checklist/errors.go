package checklist

import (
	"errors"
	"fmt"

	"checklist-backend/internal/inventory"
)

var (
	ErrNotFound         = errors.New("kayıt bulunamadı")
	ErrAlreadySubmitted = errors.New("kontrol listesi zaten gönderilmiş")
	ErrIncompleteItems  = errors.New("tamamlanmamış maddeler var")
	ErrInvalidInput     = errors.New("geçersiz istek")
	ErrSyncFailure      = inventory.ErrSyncFailure
)

// IncompleteItemsError gönderim sırasında tamamlanmamış tüm maddeleri taşır.
type IncompleteItemsError struct {
	ItemIDs []uint
}

func (e *IncompleteItemsError) Error() string {
	return fmt.Sprintf("%s: %v", ErrIncompleteItems.Error(), e.ItemIDs)
}

func (e *IncompleteItemsError) Unwrap() error { return ErrIncompleteItems }

func notFound(what string, id uint) error {
	return fmt.Errorf("%w: %s (ID: %d)", ErrNotFound, what, id)
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
