package cli

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/healthlens/internal/core/domain"
)

const exportSheet = "Reports"

// Fixed columns before the lab parameters.
var exportLeading = []string{"ID", "#", "File", "Ingested"}

// writeWorkbook writes one row per record, oldest first, with a column per
// lab parameter followed by notes and symptoms. Low and high values get
// their own fill.
func writeWorkbook(w io.Writer, records []domain.ReportRecord) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // In-memory workbook.

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	params := domain.AllLabParameters()
	header := make([]any, 0, len(exportLeading)+len(params)+2)
	for _, h := range exportLeading {
		header = append(header, h)
	}
	for _, p := range params {
		header = append(header, fmt.Sprintf("%s (%s)", p.Label(), p.Unit()))
	}
	header = append(header, "Notes", "Symptoms")
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	flagStyles, err := rangeStyles(f)
	if err != nil {
		return err
	}

	for i := range records {
		r := &records[i]
		row := i + 2
		values := []any{r.ID, r.Seq, r.FileName, r.CreatedAt.UTC().Format("2006-01-02 15:04:05")}
		for _, p := range params {
			if v := r.ParsedData.Value(p); v != nil {
				values = append(values, *v)
			} else {
				values = append(values, nil)
			}
		}
		values = append(values, r.ParsedData.Notes(), r.Symptoms)

		start, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, start, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}

		for j, p := range params {
			v := r.ParsedData.Value(p)
			if v == nil {
				continue
			}
			style, ok := flagStyles[p.NormalRange().Classify(*v)]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(len(exportLeading)+j+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(exportSheet, cell, cell, style); err != nil {
				return fmt.Errorf("style %s: %w", cell, err)
			}
		}
	}

	if err := f.SetColWidth(exportSheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("set widths: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func rangeStyles(f *excelize.File) (map[domain.RangeStatus]int, error) {
	fills := map[domain.RangeStatus][2]string{
		domain.RangeLow:  {"DDEBF7", "1F4E78"},
		domain.RangeHigh: {"FFC7CE", "9C0006"},
	}
	styles := make(map[domain.RangeStatus]int, len(fills))
	for status, c := range fills {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{c[0]}},
			Font: &excelize.Font{Color: c[1], Bold: true},
		})
		if err != nil {
			return nil, fmt.Errorf("create %s style: %w", status, err)
		}
		styles[status] = id
	}
	return styles, nil
}
