package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger-be/internal/core/domain"
	"github.com/ammerola/stockledger-be/internal/core/services"
	"github.com/ammerola/stockledger-be/test/helpers"
	"github.com/ammerola/stockledger-be/test/mocks"
)

func TestJobService_GetJob(t *testing.T) {
	ownerID := uuid.New()

	completedExport := domain.NewJob(domain.JobSalesExport, ownerID, time.Now())
	completedExport.ObjectKey = "exports/x.xlsx"
	completedExport.Complete(time.Now())

	queuedImport := domain.NewJob(domain.JobProductImport, ownerID, time.Now())

	tests := []struct {
		name          string
		job           *domain.Job
		requester     uuid.UUID
		setupMocks    func(storage *mocks.MockFileStorage)
		expectedURL   string
		expectedError error
	}{
		{
			name:      "completed_export_has_download_url",
			job:       completedExport,
			requester: ownerID,
			setupMocks: func(storage *mocks.MockFileStorage) {
				storage.EXPECT().GetPresignedURL(gomock.Any(), "exports/x.xlsx", gomock.Any()).Return("https://signed", nil)
			},
			expectedURL: "https://signed",
		},
		{
			name:       "queued_import_has_no_url",
			job:        queuedImport,
			requester:  ownerID,
			setupMocks: func(*mocks.MockFileStorage) {},
		},
		{
			name:          "other_owner_cannot_see_job",
			job:           queuedImport,
			requester:     uuid.New(),
			setupMocks:    func(*mocks.MockFileStorage) {},
			expectedError: domain.ErrJobNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			jobs := mocks.NewMockJobStore(ctrl)
			storage := mocks.NewMockFileStorage(ctrl)
			tt.setupMocks(storage)
			jobs.EXPECT().Get(gomock.Any(), tt.job.ID).Return(tt.job, nil)

			svc := services.NewJobService(jobs, storage, helpers.TestLogger())
			job, url, err := svc.GetJob(context.Background(), tt.requester, tt.job.ID)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.job.ID, job.ID)
			assert.Equal(t, tt.expectedURL, url)
		})
	}
}
