// internal/workers/import_parsers.go
package workers

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
	"github.com/ammerola/stockledger-be/internal/core/services"
)

// ParseReport is what a parser made of an uploaded file
type ParseReport struct {
	Drafts  []ports.ProductInput
	Rows    int
	Skipped []string
}

func (r *ParseReport) skip(format string, args ...any) {
	r.Skipped = append(r.Skipped, fmt.Sprintf(format, args...))
}

// ParseImportFile reads product drafts from an xlsx workbook or a PDF price list
func ParseImportFile(format string, data []byte) (*ParseReport, error) {
	switch format {
	case services.ImportFormatXLSX:
		return parseSpreadsheet(data)
	case services.ImportFormatPDF:
		return parsePriceList(data)
	default:
		return nil, fmt.Errorf("unsupported import format %q", format)
	}
}

// Spreadsheet columns, located by header name
const (
	colName = iota
	colPurchasePrice
	colSalePrice
	colQuantity
)

var headerAliases = map[string]int{
	"name":           colName,
	"product":        colName,
	"item":           colName,
	"purchase price": colPurchasePrice,
	"purchase":       colPurchasePrice,
	"cost":           colPurchasePrice,
	"sale price":     colSalePrice,
	"price":          colSalePrice,
	"quantity":       colQuantity,
	"qty":            colQuantity,
	"stock":          colQuantity,
}

// parseSpreadsheet reads products from the first sheet. The first row is a header;
// unrecognised headers fall back to name, purchase price, sale price, quantity.
func parseSpreadsheet(data []byte) (*ParseReport, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	if len(file.Sheets) == 0 {
		return &ParseReport{}, nil
	}

	report := &ParseReport{}
	columns := []int{0, 1, 2, 3}
	rowIdx := 0

	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		rowIdx++
		get := func(col int) string {
			c := r.GetCell(columns[col])
			if c == nil {
				return ""
			}
			return strings.TrimSpace(c.String())
		}

		if rowIdx == 1 {
			if mapped, ok := mapHeader(r); ok {
				columns = mapped
			}
			return nil
		}

		name := get(colName)
		if name == "" {
			return nil
		}
		report.Rows++

		purchase, err := parseCurrency(get(colPurchasePrice))
		if err != nil {
			report.skip("row %d: purchase price: %v", rowIdx, err)
			return nil
		}
		sale, err := parseCurrency(get(colSalePrice))
		if err != nil {
			report.skip("row %d: sale price: %v", rowIdx, err)
			return nil
		}
		qty, err := parseQuantity(get(colQuantity))
		if err != nil {
			report.skip("row %d: quantity: %v", rowIdx, err)
			return nil
		}

		report.Drafts = append(report.Drafts, ports.ProductInput{
			Name:          truncateName(name),
			PurchasePrice: purchase,
			SalePrice:     sale,
			Quantity:      qty,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process Excel rows: %w", err)
	}

	return report, nil
}

func mapHeader(r *xlsx.Row) ([]int, bool) {
	columns := []int{-1, -1, -1, -1}
	found := 0
	for i := 0; i < 16; i++ {
		c := r.GetCell(i)
		if c == nil {
			continue
		}
		col, ok := headerAliases[strings.ToLower(strings.TrimSpace(c.String()))]
		if !ok || columns[col] >= 0 {
			continue
		}
		columns[col] = i
		found++
	}
	if columns[colName] < 0 || found < len(columns) {
		return nil, false
	}
	return columns, true
}

var (
	priceListHeaderRe = regexp.MustCompile(`(?i)(ITEM|DESCRIPTION|PRODUCT).*(PRICE|COST)`)
	priceListFooterRe = regexp.MustCompile(`(?i)^\s*(SUBTOTAL|TOTAL|A payment of)`)
	// description, optional quantity, purchase price, optional sale price
	priceLineRe = regexp.MustCompile(
		`^(.*?)\s+(?:(\d{1,6})\s+)?\$?\s*(\d{1,3}(?:,\d{3})*\.\d{2})(?:\s+\$?\s*(\d{1,3}(?:,\d{3})*\.\d{2}))?\s*$`)
	leadingNumberRe = regexp.MustCompile(`^\d+[.)]?\s+`)
	fillerRe        = regexp.MustCompile(`-{3,}|\.{3,}`)
	spacesRe        = regexp.MustCompile(`\s+`)
)

// parsePriceList extracts the text of a supplier price list PDF and parses its lines
func parsePriceList(data []byte) (*ParseReport, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var lines []string
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", pageNum, err)
		}
		lines = append(lines, strings.Split(text, "\n")...)
	}

	return parsePriceListLines(lines), nil
}

// parsePriceListLines reads the items table between the header and the totals.
// A line ending in a price closes the item; earlier lines without one continue
// its description. A missing sale price defaults to the purchase price and a
// missing quantity to one.
func parsePriceListLines(lines []string) *ParseReport {
	report := &ParseReport{}

	start := 0
	for i, line := range lines {
		if priceListHeaderRe.MatchString(line) {
			start = i + 1
			break
		}
	}

	var descBuffer []string
	for i := start; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if priceListFooterRe.MatchString(line) {
			break
		}

		m := priceLineRe.FindStringSubmatch(line)
		if m == nil {
			descBuffer = append(descBuffer, line)
			continue
		}

		desc := cleanDescription(strings.Join(append(descBuffer, m[1]), " "))
		descBuffer = descBuffer[:0]
		if desc == "" {
			continue
		}
		report.Rows++

		purchase, err := parseCurrency(m[3])
		if err != nil {
			report.skip("line %d: purchase price: %v", i+1, err)
			continue
		}
		sale := purchase
		if m[4] != "" {
			if sale, err = parseCurrency(m[4]); err != nil {
				report.skip("line %d: sale price: %v", i+1, err)
				continue
			}
		}
		qty := 1
		if m[2] != "" {
			qty, _ = strconv.Atoi(m[2])
		}

		report.Drafts = append(report.Drafts, ports.ProductInput{
			Name:          truncateName(desc),
			PurchasePrice: purchase,
			SalePrice:     sale,
			Quantity:      qty,
		})
	}

	return report
}

func cleanDescription(desc string) string {
	desc = leadingNumberRe.ReplaceAllString(strings.TrimSpace(desc), "")
	desc = fillerRe.ReplaceAllString(desc, "")
	desc = spacesRe.ReplaceAllString(desc, " ")
	return strings.TrimSpace(desc)
}

// parseCurrency accepts "$1,234.50" style amounts. Empty is zero.
func parseCurrency(val string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(val, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", val)
	}
	return d.Round(domain.MoneyScale), nil
}

func parseQuantity(val string) (int, error) {
	if val == "" {
		return 0, nil
	}
	// spreadsheets often store whole numbers as "3.0"
	d, err := decimal.NewFromString(val)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("invalid quantity %q", val)
	}
	return int(d.IntPart()), nil
}

// truncateName keeps the first sentence, cut to the maximum item name length
func truncateName(desc string) string {
	name := strings.TrimSpace(desc)
	if idx := strings.Index(name, ". "); idx > 0 {
		name = name[:idx]
	}
	if utf8.RuneCountInString(name) > domain.MaxItemNameLength {
		name = strings.TrimSpace(string([]rune(name)[:domain.MaxItemNameLength]))
	}
	return name
}
