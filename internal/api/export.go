package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"barberbridge/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	exportSheet      = "Appointments"
	exportFileBase   = "appointments"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportTimeLayout = time.RFC3339
)

var exportHeader = []string{"ID", "Phone", "Client", "Service", "Date", "Time", "Status", "Created At"}

func exportRecord(a *models.Appointment) []string {
	return []string{
		a.ID,
		a.Phone,
		a.ClientName,
		a.Service,
		a.Date,
		a.Time,
		a.Status,
		a.CreatedAt.UTC().Format(exportTimeLayout),
	}
}

// handleExportCSV writes all appointments, newest first.
func (s *HTTPServer) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	appts, err := s.deps.Ledger.Export(r.Context())
	if err != nil {
		s.internalError(w, r, err, "failed to export appointments")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, exportFileBase))

	cw := csv.NewWriter(w)
	_ = cw.Write(exportHeader)
	for _, a := range appts {
		_ = cw.Write(exportRecord(a))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Error().Err(err).Msg("failed to write csv export")
	}
}

func (s *HTTPServer) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	appts, err := s.deps.Ledger.Export(r.Context())
	if err != nil {
		s.internalError(w, r, err, "failed to export appointments")
		return
	}

	f, err := buildWorkbook(appts)
	if err != nil {
		s.internalError(w, r, err, "failed to build workbook")
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, exportFileBase))
	if err := f.Write(w); err != nil {
		s.logger.Error().Err(err).Msg("failed to write xlsx export")
	}
}

func buildWorkbook(appts []*models.Appointment) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := setRow(f, 1, exportHeader); err != nil {
		return nil, err
	}
	for i, a := range appts {
		if err := setRow(f, i+2, exportRecord(a)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(exportSheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}
