// generate zamanlanmış görevden (cron) çağrılan instance üretim aracı.
//
//	generate                       # bugün, tekrar kuralına göre
//	generate -date 2025-12-09      # belirli gün, tekrar kuralına göre
//	generate -templates 3,5        # belirli şablonlar
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"checklist-backend/internal/checklist"
	"checklist-backend/internal/config"
	"checklist-backend/internal/database"
	"checklist-backend/internal/locker"
	"checklist-backend/internal/logger"

	"go.uber.org/zap"
)

func main() {
	dateFlag := flag.String("date", "", "gün (YYYY-MM-DD), boşsa bugün")
	templatesFlag := flag.String("templates", "", "virgülle ayrılmış şablon id'leri, boşsa tekrar kuralı kullanılır")
	flag.Parse()

	cfg := config.Load()
	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat, "checklist-generate")
	if err != nil {
		log.Fatalf("logger oluşturulamadı: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	loc := cfg.Location()
	day := time.Now().In(loc)
	if *dateFlag != "" {
		day, err = time.ParseInLocation("2006-01-02", *dateFlag, loc)
		if err != nil {
			lg.Fatal("tarih formatı 'YYYY-MM-DD' olmalı", zap.String("date", *dateFlag))
		}
	}

	req := checklist.GenerateRequest{Date: day, ByRecurrence: true}
	if *templatesFlag != "" {
		ids, err := parseIDs(*templatesFlag)
		if err != nil {
			lg.Fatal("şablon id'leri okunamadı", zap.Error(err))
		}
		req.TemplateIDs = ids
		req.ByRecurrence = false
	}

	db, err := database.Open(cfg, lg)
	if err != nil {
		lg.Fatal("veritabanı açılamadı", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var lk checklist.Locker
	l, rdb, err := locker.Connect(ctx, cfg.RedisAddress, lg)
	if err != nil {
		lg.Warn("redis kullanılamıyor, kilitsiz devam ediliyor", zap.Error(err))
	}
	if l != nil {
		lk = l
		defer rdb.Close()
	}

	gen := checklist.NewGenerator(db, loc, lk, lg)
	res, err := gen.Generate(ctx, req)
	if err != nil {
		lg.Fatal("instance üretimi başarısız", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
}

func parseIDs(s string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint(n))
	}
	return ids, nil
}
