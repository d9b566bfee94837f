// Package exporter 把计划结果导出为 Excel 工作簿
package exporter

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/BerniceZTT/territory_end/models"
)

// 工作表名
const (
	PlanSheet   = "Plan"
	MonthsSheet = "Months"
)

// ContentType xlsx 的 MIME 类型
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var planHeader = []string{
	"Region", "Brand", "Owner", "Fact", "Potential", "Growth %", "Plan",
	"Base", "Share", "Width", "Velocity", "Acquisition",
	"Q1", "Q2", "Q3", "Q4",
}

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// WritePlan 写出计划工作簿：Plan 表为年度计划及增长因子，Months 表为月度拆分
func WritePlan(w io.Writer, rows []models.PlanRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PlanSheet); err != nil {
		return fmt.Errorf("重命名工作表失败: %w", err)
	}
	if _, err := f.NewSheet(MonthsSheet); err != nil {
		return fmt.Errorf("创建工作表失败: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("创建样式失败: %w", err)
	}

	if err := writePlanSheet(f, rows, headerStyle); err != nil {
		return err
	}
	if err := writeMonthsSheet(f, rows, headerStyle); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("写出工作簿失败: %w", err)
	}
	return nil
}

func writePlanSheet(f *excelize.File, rows []models.PlanRow, style int) error {
	if err := writeHeader(f, PlanSheet, planHeader, style); err != nil {
		return err
	}
	for i, r := range rows {
		values := []interface{}{
			r.Region, r.Brand, r.Owner,
			round2(r.Fact), round2(r.Potential), round2(r.Result.GrowthPct), round2(r.Result.Plan),
			round2(r.Result.Factors.Base), round2(r.Result.Factors.Share), round2(r.Result.Factors.Width),
			round2(r.Result.Factors.Velocity), round2(r.Result.Factors.Acquisition),
		}
		for _, q := range r.Quarterly {
			values = append(values, round2(q))
		}
		if err := writeRow(f, PlanSheet, i+2, values); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(PlanSheet, "A", "C", 18); err != nil {
		return err
	}
	return f.SetPanes(PlanSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeMonthsSheet(f *excelize.File, rows []models.PlanRow, style int) error {
	header := append([]string{"Region", "Brand"}, monthNames...)
	if err := writeHeader(f, MonthsSheet, header, style); err != nil {
		return err
	}
	for i, r := range rows {
		values := []interface{}{r.Region, r.Brand}
		for _, m := range r.Monthly {
			values = append(values, round2(m))
		}
		if err := writeRow(f, MonthsSheet, i+2, values); err != nil {
			return err
		}
	}
	return f.SetColWidth(MonthsSheet, "A", "B", 18)
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	values := make([]interface{}, len(header))
	for i, h := range header {
		values[i] = h
	}
	if err := writeRow(f, sheet, 1, values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("写入单元格 %s!%s 失败: %w", sheet, cell, err)
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
