package inventory

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const staleSheet = "Bayat Stok"

// WriteStaleReportXLSX bayat stok raporunu Excel dosyası olarak yazar.
func WriteStaleReportXLSX(w io.Writer, r *StaleReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", staleSheet); err != nil {
		return err
	}

	headers := []interface{}{"ID", "Ürün", "Birim", "Mevcut Stok", "Min Stok", "Son Güncelleme", "Güncelleyen", "Gün", "Düşük Stok"}
	if err := f.SetSheetRow(staleSheet, "A1", &headers); err != nil {
		return err
	}

	for i, it := range r.Items {
		low := "Hayır"
		if it.IsLowStock {
			low = "Evet"
		}
		row := []interface{}{
			it.ID,
			it.Name,
			it.Unit,
			it.CurrentStock,
			it.MinStock,
			it.LastUpdated.Format("2006-01-02 15:04"),
			it.LastUpdatedByName,
			it.DaysSinceUpdate,
			low,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(staleSheet, cell, &row); err != nil {
			return err
		}
	}

	// Özet satırları
	summaryRow := len(r.Items) + 3
	summary := [][]interface{}{
		{"Toplam", r.Stats.Total},
		{"Düşük Stok", r.Stats.LowStock},
		{"Ortalama Gün", r.Stats.AverageDaysStale},
	}
	for i, s := range summary {
		cell, err := excelize.CoordinatesToCellName(1, summaryRow+i)
		if err != nil {
			return err
		}
		row := s
		if err := f.SetSheetRow(staleSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("excel yazılamadı: %w", err)
	}
	return nil
}
