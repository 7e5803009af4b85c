package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/bitfantasy/nimo-mes/internal/mes/engine"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// ExportService 检验报告导出
type ExportService struct {
	inspectionSvc *InspectionService
}

// NewExportService 创建导出服务
func NewExportService(inspectionSvc *InspectionService) *ExportService {
	return &ExportService{inspectionSvc: inspectionSvc}
}

var reportHeaders = []string{"检验组", "检验项", "类型", "检验要求", "必检", "下限", "上限", "单位", "实测值", "判定", "缺陷", "照片数"}

var kindLabels = map[engine.Kind]string{
	engine.KindQualitative:  "定性",
	engine.KindQuantitative: "定量",
}

var resultLabels = map[engine.Result]string{
	engine.ResultUnset: "未判定",
	engine.ResultOK:    "OK",
	engine.ResultNG:    "NG",
}

// reportRows flattens a snapshot into one row per item, in group order.
func reportRows(snap engine.Snapshot) [][]string {
	var rows [][]string
	for _, g := range snap.Groups {
		for _, it := range g.Items {
			mandatory := ""
			if it.Mandatory {
				mandatory = "是"
			}
			var lower, upper, unit, measured string
			if q := it.Quantitative; q != nil {
				lower = strconv.FormatFloat(q.LowerLimit, 'f', -1, 64)
				upper = strconv.FormatFloat(q.UpperLimit, 'f', -1, 64)
				unit = q.Unit
				measured = strings.Join(q.MeasuredValues, " / ")
			}
			defects := make([]string, 0, len(it.Defects))
			for _, d := range it.Defects {
				defects = append(defects, fmt.Sprintf("%s %s×%d", d.Code, d.Name, d.Count))
			}
			rows = append(rows, []string{
				g.Name,
				it.Name,
				kindLabels[it.Kind],
				it.Requirement,
				mandatory,
				lower,
				upper,
				unit,
				measured,
				resultLabels[it.Result],
				strings.Join(defects, "; "),
				strconv.Itoa(len(it.Photos)),
			})
		}
	}
	return rows
}

func reportFilename(view *TaskView, ext string) string {
	return fmt.Sprintf("FQC检验报告_%s.%s", view.Task.TaskCode, ext)
}

// ExportXLSX 导出Excel检验报告
func (s *ExportService) ExportXLSX(ctx context.Context, taskID string) (*excelize.File, string, error) {
	view, err := s.inspectionSvc.Report(ctx, taskID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheet := "检验报告"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	ngStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#C00000"},
	})

	// 任务头
	header := [][2]string{
		{"任务编号", view.Task.TaskCode},
		{"工单号", view.Task.WorkOrderNo},
		{"产品", fmt.Sprintf("%s %s", view.Task.ProductCode, view.Task.ProductName)},
		{"批次", view.Task.BatchNo},
		{"状态", view.Task.Status},
		{"结论", view.Task.Result},
		{"进度", fmt.Sprintf("%d/%d", view.Inspection.Summary.Progress, view.Inspection.Summary.Total)},
	}
	for i, kv := range header {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", i+1), kv[0])
		f.SetCellValue(sheet, fmt.Sprintf("B%d", i+1), kv[1])
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", i+1), fmt.Sprintf("A%d", i+1), boldStyle)
	}

	start := len(header) + 2
	for i, h := range reportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s%d", col, start)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	resultCol, _ := excelize.ColumnNumberToName(10)
	for r, row := range reportRows(view.Inspection) {
		line := start + 1 + r
		for i, v := range row {
			col, _ := excelize.ColumnNumberToName(i + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, line), v)
		}
		if row[9] == string(engine.ResultNG) {
			cell := fmt.Sprintf("%s%d", resultCol, line)
			f.SetCellStyle(sheet, cell, cell, ngStyle)
		}
	}

	widths := []float64{14, 18, 8, 30, 6, 10, 10, 8, 28, 10, 36, 8}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	return f, reportFilename(view, "xlsx"), nil
}

// ExportCSV exports the report as GBK-encoded CSV so spreadsheet tools on
// Chinese Windows open it without mojibake. Characters outside GBK, such as
// Ø in a diameter requirement, are written as the substitute byte 0x1A.
func (s *ExportService) ExportCSV(ctx context.Context, taskID string) ([]byte, string, error) {
	view, err := s.inspectionSvc.Report(ctx, taskID)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	gbk := transform.NewWriter(&buf, encoding.ReplaceUnsupported(simplifiedchinese.GBK.NewEncoder()))
	w := csv.NewWriter(gbk)
	if err := w.Write(reportHeaders); err != nil {
		return nil, "", err
	}
	if err := w.WriteAll(reportRows(view.Inspection)); err != nil {
		return nil, "", fmt.Errorf("write csv: %w", err)
	}
	if err := gbk.Close(); err != nil {
		return nil, "", fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), reportFilename(view, "csv"), nil
}
