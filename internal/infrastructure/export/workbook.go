package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/vlaamswoordenboek/woordenboek/internal/domain/entity"
)

// Sheet names of the editorial queue workbook
const (
	ArticlesSheet = "Artikels"
	SummarySheet  = "Overzicht"
)

var articleHeader = []interface{}{"ID", "Woord", "Beschrijving", "Voorbeeld", "Kenmerken", "Status", "Redacteur", "Aangemaakt", "Bijgewerkt"}

// QueueExporter writes the editorial queue as an xlsx workbook
type QueueExporter struct {
	logger *zap.Logger
}

// NewQueueExporter creates a new exporter
func NewQueueExporter(logger *zap.Logger) *QueueExporter {
	return &QueueExporter{logger: logger}
}

// Write renders one row per article plus a per-state summary sheet
func (e *QueueExporter) Write(w io.Writer, articles []*entity.Article, counts []entity.StateCount) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ArticlesSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, ArticlesSheet, 1, articleHeader); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(articleHeader))
	if err := f.SetCellStyle(ArticlesSheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, a := range articles {
		editor := ""
		if a.EditorID != nil {
			editor = fmt.Sprint(*a.EditorID)
		}
		row := []interface{}{
			a.ID,
			a.Word,
			a.Description,
			a.DisplayExample(),
			a.Characteristics,
			a.State.Label(),
			editor,
			a.CreatedAt.Format("2006-01-02 15:04"),
			a.UpdatedAt.Format("2006-01-02 15:04"),
		}
		if err := writeRow(f, ArticlesSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := writeRow(f, SummarySheet, 1, []interface{}{"Status", "Aantal"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	for i, c := range counts {
		if err := writeRow(f, SummarySheet, i+2, []interface{}{c.Label, c.Count}); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Editorial queue exported",
		zap.Int("articles", len(articles)),
		zap.Int("states", len(counts)))
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
