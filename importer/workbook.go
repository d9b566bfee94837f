// Package importer 读取销售明细工作簿并聚合为分析快照。
package importer

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// 默认工作表
const (
	SalesSheet = "sales"
	OKBSheet   = "okb"
)

// Progress 进度回调，progressbar.ProgressBar 满足该接口
type Progress interface {
	Add(num int) error
}

// Row 一行销售明细
type Row struct {
	Line       int
	Region     string
	Owner      string
	Brand      string
	Packaging  string
	ClientKey  string
	ClientName string
	Address    string
	Lat        *float64
	Lon        *float64
	Channel    string
	Date       time.Time
	Volume     float64
	Potential  float64
	Matched    bool
}

// RowError 被跳过的行
type RowError struct {
	Sheet string `json:"sheet,omitempty"` // 空表示明细工作表
	Line  int    `json:"line"`
	Err   string `json:"error"`
}

// Workbook 解析结果
type Workbook struct {
	Rows      []Row
	RegionOKB map[string]int
	Skipped   []RowError
}

// 列名及别名
var columnAliases = map[string][]string{
	"region":      {"region", "регион", "区域"},
	"owner":       {"rm", "owner", "manager", "区域经理"},
	"brand":       {"brand", "品牌"},
	"packaging":   {"packaging", "package", "sku", "包装"},
	"client_key":  {"client_key", "client_id", "客户编码"},
	"client_name": {"client_name", "client", "客户名称"},
	"address":     {"address", "地址"},
	"lat":         {"lat", "latitude"},
	"lon":         {"lon", "lng", "longitude"},
	"channel":     {"channel", "type", "渠道"},
	"date":        {"date", "日期"},
	"volume":      {"volume", "fact", "销量"},
	"potential":   {"potential", "潜力"},
	"matched":     {"matched", "okb", "匹配"},
}

var requiredColumns = []string{"region", "brand", "client_key", "date", "volume"}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "02.01.2006", "2006-01-02 15:04:05", time.RFC3339}

// ReadWorkbook 解析工作簿。sheet 为空时读取 "sales"，"okb" 工作表（区域, 数量）可选。
// 无法解析的行被跳过并记录在 Skipped 中；缺少必需列时返回错误。
func ReadWorkbook(r io.Reader, sheet string, progress Progress) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("打开工作簿失败: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = SalesSheet
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("读取工作表 %s 失败: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("工作表 %s 为空", sheet)
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	wb := &Workbook{RegionOKB: map[string]int{}}
	for i, cells := range rows[1:] {
		line := i + 2
		if progress != nil {
			_ = progress.Add(1)
		}
		if blank(cells) {
			continue
		}
		row, err := parseRow(cells, cols)
		if err != nil {
			wb.Skipped = append(wb.Skipped, RowError{Line: line, Err: err.Error()})
			continue
		}
		row.Line = line
		wb.Rows = append(wb.Rows, row)
	}

	okb, skipped, err := readOKB(f)
	if err != nil {
		return nil, err
	}
	wb.RegionOKB = okb
	wb.Skipped = append(wb.Skipped, skipped...)
	return wb, nil
}

// CountRows 返回工作表数据行数，用于初始化进度条
func CountRows(r io.Reader, sheet string) (int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, fmt.Errorf("打开工作簿失败: %w", err)
	}
	defer f.Close()
	if sheet == "" {
		sheet = SalesSheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return len(rows) - 1, nil
}

func headerIndex(header []string) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := make(map[string]int)
	for col, aliases := range columnAliases {
		for _, alias := range aliases {
			if idx, ok := byName[alias]; ok {
				cols[col] = idx
				break
			}
		}
	}
	for _, col := range requiredColumns {
		if _, ok := cols[col]; !ok {
			return nil, fmt.Errorf("缺少必需列: %s", col)
		}
	}
	return cols, nil
}

func parseRow(cells []string, cols map[string]int) (Row, error) {
	get := func(col string) string {
		idx, ok := cols[col]
		if !ok || idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	row := Row{
		Region:     get("region"),
		Owner:      get("owner"),
		Brand:      get("brand"),
		Packaging:  get("packaging"),
		ClientKey:  get("client_key"),
		ClientName: get("client_name"),
		Address:    get("address"),
		Channel:    get("channel"),
	}
	if row.Region == "" || row.Brand == "" || row.ClientKey == "" {
		return row, fmt.Errorf("region, brand and client_key are required")
	}
	if row.ClientName == "" {
		row.ClientName = row.ClientKey
	}

	date, err := parseDate(get("date"))
	if err != nil {
		return row, err
	}
	row.Date = date

	if row.Volume, err = parseNumber(get("volume")); err != nil {
		return row, fmt.Errorf("volume: %w", err)
	}
	if v := get("potential"); v != "" {
		if row.Potential, err = parseNumber(v); err != nil {
			return row, fmt.Errorf("potential: %w", err)
		}
	}
	row.Lat = parseCoordinate(get("lat"), 90)
	row.Lon = parseCoordinate(get("lon"), 180)
	row.Matched = parseBool(get("matched"))
	return row, nil
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return truncateDay(t), nil
		}
	}
	// 原始单元格值为 Excel 日期序列号
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return truncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", v)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseNumber(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	v = strings.ReplaceAll(strings.ReplaceAll(v, " ", ""), ",", ".")
	return strconv.ParseFloat(v, 64)
}

func parseCoordinate(v string, limit float64) *float64 {
	if v == "" {
		return nil
	}
	f, err := parseNumber(v)
	if err != nil || f == 0 || f < -limit || f > limit {
		return nil
	}
	return &f
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "да", "是":
		return true
	}
	return false
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// readOKB 读取区域潜在客户总数
func readOKB(f *excelize.File) (map[string]int, []RowError, error) {
	out := make(map[string]int)
	idx, err := f.GetSheetIndex(OKBSheet)
	if err != nil || idx < 0 {
		return out, nil, nil
	}
	rows, err := f.GetRows(OKBSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("读取工作表 %s 失败: %w", OKBSheet, err)
	}

	var skipped []RowError
	for i, cells := range rows {
		if blank(cells) {
			continue
		}
		region := strings.TrimSpace(cells[0])
		raw := ""
		if len(cells) > 1 {
			raw = strings.TrimSpace(cells[1])
		}
		n, err := parseNumber(raw)
		if raw == "" {
			err = fmt.Errorf("缺少数量")
		}
		if err != nil {
			// 第一行可能是表头
			if i == 0 {
				continue
			}
			skipped = append(skipped, RowError{Sheet: OKBSheet, Line: i + 1, Err: fmt.Sprintf("无效的数量 %q", raw)})
			continue
		}
		if region == "" {
			skipped = append(skipped, RowError{Sheet: OKBSheet, Line: i + 1, Err: "缺少区域"})
			continue
		}
		if n < 0 || n != math.Trunc(n) {
			skipped = append(skipped, RowError{Sheet: OKBSheet, Line: i + 1, Err: fmt.Sprintf("数量必须为非负整数: %v", n)})
			continue
		}
		out[region] += int(n)
	}
	return out, skipped, nil
}
