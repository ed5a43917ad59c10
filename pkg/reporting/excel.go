package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/transit-ga/pkg/optimization"
)

const (
	roundsSheet  = "Rounds"
	summarySheet = "Summary"
)

// WriteRoundsXLSX writes the metrics table to a workbook with a styled header
// and a summary sheet for the run
func WriteRoundsXLSX(rounds []optimization.RoundMetrics, summary RunSummary, path string) error {
	if err := EnsureDirectoryExists(path); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), roundsSheet)
	if _, err := fx.NewSheet(summarySheet); err != nil {
		return err
	}

	styles, err := createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := writeRoundsSheet(fx, rounds, styles); err != nil {
		return err
	}
	if err := writeSummarySheet(fx, summary, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	border := []excelize.Border{
		{Type: "left", Color: "E0E0E0", Style: 1},
		{Type: "right", Color: "E0E0E0", Style: 1},
		{Type: "bottom", Color: "E0E0E0", Style: 1},
	}

	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	fmtFloat := "0.0000"
	styles.NumberStyle, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: &fmtFloat,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       border,
	})
	if err != nil {
		return styles, err
	}

	styles.IntegerStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    1,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    border,
	})
	if err != nil {
		return styles, err
	}

	// best fitness column stands out
	styles.BestStyle, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: &fmtFloat,
		Font:         &excelize.Font{Bold: true, Color: "006100"},
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       border,
	})
	if err != nil {
		return styles, err
	}

	styles.LabelStyle, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: border,
	})
	return styles, err
}

func writeRoundsSheet(fx *excelize.File, rounds []optimization.RoundMetrics, styles ExcelStyles) error {
	header := RoundsHeader()
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := fx.SetCellValue(roundsSheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := fx.SetCellStyle(roundsSheet, "A1", last, styles.HeaderStyle); err != nil {
		return err
	}
	if err := fx.SetRowHeight(roundsSheet, 1, 30); err != nil {
		return err
	}

	for i, r := range rounds {
		row := i + 2
		values := []interface{}{r.Generation, r.BestIndex, r.BestID, r.BestFitness}
		for _, v := range metricValues(r) {
			values = append(values, v)
		}
		values = append(values, r.CrossoverFailures, r.Fallbacks, r.Duration.Seconds())

		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := fx.SetCellValue(roundsSheet, cell, v); err != nil {
				return err
			}
			style := styles.NumberStyle
			switch v.(type) {
			case int:
				style = styles.IntegerStyle
			case string:
				style = styles.LabelStyle
			}
			if col == 3 {
				style = styles.BestStyle
			}
			if err := fx.SetCellStyle(roundsSheet, cell, cell, style); err != nil {
				return err
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := fx.SetColWidth(roundsSheet, "A", lastCol, 14); err != nil {
		return err
	}
	if err := fx.SetColWidth(roundsSheet, "C", "C", 38); err != nil {
		return err
	}
	return fx.SetPanes(roundsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummarySheet(fx *excelize.File, s RunSummary, styles ExcelStyles) error {
	rows := [][]interface{}{
		{"Run", s.Name},
		{"Initial network", s.NetworkID},
		{"Population", s.Population},
		{"Generations", s.Generations},
		{"Seed", s.Seed},
		{"Coverage weight", s.Weights.Coverage},
		{"Ridership density weight", s.Weights.RidershipDensity},
		{"Zone weight", s.Weights.Zone},
		{"Extreme trips weight", s.Weights.ExtremeTrips},
		{"Best chromosome", s.BestID},
		{"Best lineage", s.BestLineage},
		{"Best fitness", s.BestFitness.Total},
		{"Initial fitness", s.Initial.Total},
		{"Improvement", s.Improvement()},
		{"Crossover failures", s.Crossovers},
		{"Fallbacks", s.Fallbacks},
		{"Cache hits (route/stop)", fmt.Sprintf("%d / %d", s.Cache.RouteHits, s.Cache.StopHits)},
		{"Duration (s)", s.Duration.Seconds()},
	}

	for i, r := range rows {
		row := i + 1
		label, _ := excelize.CoordinatesToCellName(1, row)
		value, _ := excelize.CoordinatesToCellName(2, row)
		if err := fx.SetCellValue(summarySheet, label, r[0]); err != nil {
			return err
		}
		if err := fx.SetCellValue(summarySheet, value, r[1]); err != nil {
			return err
		}
		if err := fx.SetCellStyle(summarySheet, label, label, styles.LabelStyle); err != nil {
			return err
		}
	}
	return fx.SetColWidth(summarySheet, "A", "B", 30)
}
