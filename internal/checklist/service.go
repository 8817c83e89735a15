package checklist

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service kontrol listesi motorunun bileşenlerini bir arada tutar.
// Bileşenler arası paylaşılan tek durum veritabanıdır.
type Service struct {
	Generator *Generator
	Recorder  *Recorder
	Gate      *Gate
	Reader    *Reader
	Location  *time.Location
}

type Options struct {
	Location  *time.Location
	Locker    Locker
	Sync      StockSynchronizer
	Resolvers Resolvers
}

func NewService(db *gorm.DB, opts Options, log *zap.Logger) *Service {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		Generator: NewGenerator(db, loc, opts.Locker, log.Named("generator")),
		Recorder:  NewRecorder(db, opts.Sync, log.Named("recorder")),
		Gate:      NewGate(db, log.Named("gate")),
		Reader:    NewReader(db, loc, opts.Resolvers),
		Location:  loc,
	}
}
