package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pragavigithub/emerging-wms/internal/wms/repository"
)

// 收货台账导出列
var receiptExportHeaders = []string{
	"单据编码", "采购订单号", "供应商编码", "供应商名称", "状态",
	"行数", "总数量", "QC人", "QC时间", "ERP单号", "创建人", "创建时间",
}

// ExportService 收货台账导出
type ExportService struct {
	repos *repository.Repositories
}

func NewExportService(repos *repository.Repositories) *ExportService {
	return &ExportService{repos: repos}
}

// ExportReceipts 导出收货台账为xlsx
func (s *ExportService) ExportReceipts(ctx context.Context, filters map[string]string) (*excelize.File, string, error) {
	docs, _, err := s.repos.Receipt.FindAll(ctx, 1, 10000, filters)
	if err != nil {
		return nil, "", fmt.Errorf("查询收货单失败: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Receipts"
	f.SetSheetName("Sheet1", sheet)

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range receiptExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx, doc := range docs {
		row := rowIdx + 2
		var totalQty float64
		for _, l := range doc.Lines {
			totalQty += l.Quantity
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), doc.DocCode)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), doc.PODocNum)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), doc.CardCode)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), doc.CardName)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), doc.Status)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), len(doc.Lines))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), totalQty)
		if doc.QCBy != nil {
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), *doc.QCBy)
		}
		if doc.QCAt != nil {
			f.SetCellValue(sheet, fmt.Sprintf("I%d", row), doc.QCAt.Format("2006-01-02 15:04"))
		}
		if doc.ERPDocNum != nil {
			f.SetCellValue(sheet, fmt.Sprintf("J%d", row), *doc.ERPDocNum)
		}
		f.SetCellValue(sheet, fmt.Sprintf("K%d", row), doc.CreatedBy)
		f.SetCellValue(sheet, fmt.Sprintf("L%d", row), doc.CreatedAt.Format("2006-01-02 15:04"))
	}

	colWidths := []float64{16, 12, 12, 24, 10, 6, 10, 12, 16, 12, 12, 16}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("Receipts_%s.xlsx", time.Now().Format("20060102"))
	return f, filename, nil
}
