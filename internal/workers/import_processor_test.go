// internal/workers/import_processor_test.go
package workers_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/ports"
	"github.com/ammerola/stockledger-be/internal/core/services"
	"github.com/ammerola/stockledger-be/internal/workers"
	"github.com/ammerola/stockledger-be/test/helpers"
	"github.com/ammerola/stockledger-be/test/mocks"
)

func buildWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	require.NoError(t, err)
	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, file.Write(&buf))
	return buf.Bytes()
}

func (f *jobFixture) stageImport(t *testing.T, ownerID uuid.UUID, format string, data []byte) *domain.Job {
	t.Helper()
	return f.saveJob(t, domain.JobProductImport, ownerID, func(j *domain.Job) {
		j.Format = format
		j.ObjectKey = fmt.Sprintf("imports/%s/%s.%s", ownerID, j.ID, format)
		_, err := f.store.Upload(context.Background(), j.ObjectKey, bytes.NewReader(data), "")
		require.NoError(t, err)
	})
}

func TestImportProcessor_ProcessProductImport(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()

	ctrl := gomock.NewController(t)
	catalog := mocks.NewMockCatalogService(ctrl)
	f := newJobFixture(t)

	job := f.stageImport(t, ownerID, services.ImportFormatXLSX, buildWorkbook(t, [][]string{
		{"Quantity", "Name", "Sale Price", "Purchase Price"},
		{"3", "Hammer", "$12.50", "7.00"},
		{"0", "Chisel", "9", "4.25"},
		{"two", "Saw", "20", "11"},
		{"", "", "", ""},
	}))

	catalog.EXPECT().
		ImportProducts(gomock.Any(), ownerID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, drafts []ports.ProductInput) (int, error) {
			require.Len(t, drafts, 2)
			assert.Equal(t, "Hammer", drafts[0].Name)
			assert.True(t, drafts[0].PurchasePrice.Equal(decimal.NewFromInt(7)))
			assert.True(t, drafts[0].SalePrice.Equal(decimal.RequireFromString("12.50")))
			assert.Equal(t, 3, drafts[0].Quantity)
			assert.Equal(t, "Chisel", drafts[1].Name)
			assert.Equal(t, 0, drafts[1].Quantity)
			return len(drafts), nil
		})

	p := workers.NewImportProcessor(catalog, f.store, f.jobs, helpers.TestLogger())
	require.NoError(t, p.ProcessProductImport(ctx, jobTask(t, workers.TypeProductImport, job)))

	got, err := f.jobs.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, got.Status)
	assert.Equal(t, map[string]int{"rows": 3, "imported": 2, "skipped": 1}, got.Result)
	assert.Contains(t, got.Meta["skipped_1"], "row 4: quantity")
}

func TestImportProcessor_Failures(t *testing.T) {
	ownerID := uuid.New()

	tests := []struct {
		name          string
		format        string
		data          func(t *testing.T) []byte
		setupMocks    func(catalog *mocks.MockCatalogService)
		skipRetry     bool
		errorContains string
	}{
		{
			name:   "empty_sheet_fails",
			format: services.ImportFormatXLSX,
			data: func(t *testing.T) []byte {
				return buildWorkbook(t, [][]string{{"Name", "Purchase Price", "Sale Price", "Quantity"}})
			},
			setupMocks:    func(*mocks.MockCatalogService) {},
			skipRetry:     true,
			errorContains: "no products found",
		},
		{
			name:          "unreadable_spreadsheet_fails",
			format:        services.ImportFormatXLSX,
			data:          func(*testing.T) []byte { return []byte("not a zip") },
			setupMocks:    func(*mocks.MockCatalogService) {},
			skipRetry:     true,
			errorContains: "failed to open Excel file",
		},
		{
			name:          "unreadable_pdf_fails",
			format:        services.ImportFormatPDF,
			data:          func(*testing.T) []byte { return []byte("not a pdf") },
			setupMocks:    func(*mocks.MockCatalogService) {},
			skipRetry:     true,
			errorContains: "failed to open PDF",
		},
		{
			name:   "invalid_row_rejects_the_batch",
			format: services.ImportFormatXLSX,
			data: func(t *testing.T) []byte {
				return buildWorkbook(t, [][]string{
					{"Name", "Purchase Price", "Sale Price", "Quantity"},
					{"Hammer", "-1", "5", "1"},
				})
			},
			setupMocks: func(catalog *mocks.MockCatalogService) {
				catalog.EXPECT().
					ImportProducts(gomock.Any(), ownerID, gomock.Any()).
					Return(0, domain.NewValidationError("prices cannot be negative"))
			},
			skipRetry:     true,
			errorContains: "prices cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			catalog := mocks.NewMockCatalogService(ctrl)
			tt.setupMocks(catalog)
			f := newJobFixture(t)
			job := f.stageImport(t, ownerID, tt.format, tt.data(t))

			p := workers.NewImportProcessor(catalog, f.store, f.jobs, helpers.TestLogger())
			err := p.ProcessProductImport(context.Background(), jobTask(t, workers.TypeProductImport, job))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
			assert.Equal(t, tt.skipRetry, errorIsSkipRetry(err))

			got, err := f.jobs.Get(context.Background(), job.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.JobFailed, got.Status)
			assert.NotContains(t, got.Error, "skip retry")
		})
	}
}
