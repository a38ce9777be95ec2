package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mbshop/MIM-egistration-2027/internal/repository"
)

// Service is a tiny façade over the participant repository that produces
// XLSX bytes for exports.
type Service struct {
	repo   repository.ParticipantRepository
	logger *slog.Logger
}

func NewService(repo repository.ParticipantRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportParticipantsXLSX returns an XLSX workbook (as bytes) with one row per
// registered participant, newest first. An empty query exports everyone.
func (s *Service) ExportParticipantsXLSX(ctx context.Context, query string) ([]byte, error) {
	start := time.Now()

	recs, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Participants"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"ID",
		"Document Number",
		"Surname",
		"Given Name",
		"Birth Date",
		"Sex",
		"Country",
		"City",
		"Registered At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, p := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, p.ID.String())
		write(2, p.DocumentNumber)
		write(3, p.Surname)
		write(4, p.GivenName)
		write(5, p.BirthDate)
		write(6, p.Sex)
		write(7, p.Country)
		write(8, p.City)
		write(9, p.CreatedAt.UTC().Format("2006-01-02 15:04:05"))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 38) // uuid
	_ = f.SetColWidth(sheet, "B", "B", 18) // document number
	_ = f.SetColWidth(sheet, "C", "D", 22) // names
	_ = f.SetColWidth(sheet, "E", "E", 12) // birth date
	_ = f.SetColWidth(sheet, "G", "H", 18) // country, city
	_ = f.SetColWidth(sheet, "I", "I", 20) // timestamp

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
