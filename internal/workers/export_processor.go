// internal/workers/export_processor.go
package workers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var salesHeaders = []string{
	"Sale ID", "Date", "Item", "Kind", "Quantity", "Unit Price", "Subtotal", "Sale Total",
}

// ExportProcessor renders an owner's sales ledger as a spreadsheet
type ExportProcessor struct {
	sales   ports.SaleService
	storage ports.FileStorage
	runner  jobRunner
	logger  *slog.Logger
}

// NewExportProcessor creates a new export processor
func NewExportProcessor(sales ports.SaleService, storage ports.FileStorage, jobs ports.JobStore, logger *slog.Logger) *ExportProcessor {
	logger = logger.With(slog.String("processor", "export"))
	return &ExportProcessor{
		sales:   sales,
		storage: storage,
		runner:  newJobRunner(jobs, logger),
		logger:  logger,
	}
}

// ProcessSalesExport handles export:sales tasks
func (p *ExportProcessor) ProcessSalesExport(ctx context.Context, t *asynq.Task) error {
	return p.runner.run(ctx, t, domain.JobSalesExport, p.export)
}

func (p *ExportProcessor) export(ctx context.Context, job *domain.Job) error {
	sales, err := p.sales.ListSales(ctx, job.OwnerID, ports.SaleFilter{From: job.From, To: job.To})
	if errors.Is(err, domain.ErrOwnerNotFound) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("failed to load sales: %w", err)
	}

	data, err := generateSalesWorkbook(sales, job.From, job.To)
	if err != nil {
		return err
	}

	job.ObjectKey = fmt.Sprintf("exports/%s/%s.xlsx", job.OwnerID, job.ID)
	if _, err := p.storage.Upload(ctx, job.ObjectKey, bytes.NewReader(data), xlsxContentType); err != nil {
		return fmt.Errorf("failed to upload export: %w", err)
	}

	lines := 0
	for _, s := range sales {
		lines += len(s.Items)
	}
	job.Result = map[string]int{"sales": len(sales), "lines": lines}

	p.logger.InfoContext(ctx, "sales export completed",
		slog.String("job_id", job.ID),
		slog.Int("sales", len(sales)),
		slog.Int("bytes", len(data)))
	return nil
}

// generateSalesWorkbook writes one row per sale line plus a totals sheet
func generateSalesWorkbook(sales []*domain.Sale, from, to time.Time) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Sales")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}
	addHeaderRow(sheet, salesHeaders)

	revenue := decimal.Zero
	units := 0
	for _, sale := range sales {
		for _, line := range sale.Items {
			row := sheet.AddRow()
			row.AddCell().SetString(sale.ID.String())
			row.AddCell().SetDateTime(sale.CreatedAt)
			row.AddCell().SetString(line.Name)
			row.AddCell().SetString(string(line.Kind))
			row.AddCell().SetInt(line.Quantity)
			addMoneyCell(row, line.UnitPrice)
			addMoneyCell(row, line.Subtotal)
			addMoneyCell(row, sale.TotalPrice)
			units += line.Quantity
		}
		revenue = revenue.Add(sale.TotalPrice)
	}
	sheet.SetColWidth(1, len(salesHeaders), 18)

	totals, err := file.AddSheet("Summary")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}
	addHeaderRow(totals, []string{"Metric", "Value"})
	addPair := func(label string, fill func(*xlsx.Cell)) {
		row := totals.AddRow()
		row.AddCell().SetString(label)
		fill(row.AddCell())
	}
	addPair("From", func(c *xlsx.Cell) { c.SetString(rangeBound(from)) })
	addPair("To", func(c *xlsx.Cell) { c.SetString(rangeBound(to)) })
	addPair("Sales", func(c *xlsx.Cell) { c.SetInt(len(sales)) })
	addPair("Units Sold", func(c *xlsx.Cell) { c.SetInt(units) })
	addPair("Revenue", func(c *xlsx.Cell) { c.SetFloatWithFormat(revenue.InexactFloat64(), "0.00") })

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}
	return buffer.Bytes(), nil
}

func addHeaderRow(sheet *xlsx.Sheet, headers []string) {
	row := sheet.AddRow()
	for _, header := range headers {
		cell := row.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}
}

func addMoneyCell(row *xlsx.Row, amount decimal.Decimal) {
	row.AddCell().SetFloatWithFormat(amount.InexactFloat64(), "0.00")
}

func rangeBound(t time.Time) string {
	if t.IsZero() {
		return "all"
	}
	return t.Format(time.RFC3339)
}
