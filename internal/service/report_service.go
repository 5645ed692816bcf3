package service

import (
	"context"

	"github.com/climcare/repair-service/internal/reporting"
	"github.com/climcare/repair-service/internal/repository"
	apperrors "github.com/climcare/repair-service/pkg/util/errorutil"
)

// ReportService computes reporting aggregates on demand. Nothing is
// cached: every call scans the register and folds it in memory.
type ReportService struct {
	requests repository.RequestRepository
}

// NewReportService constructs the service.
func NewReportService(requests repository.RequestRepository) *ReportService {
	return &ReportService{requests: requests}
}

// Statistics returns the derived aggregates over the whole register.
func (s *ReportService) Statistics(ctx context.Context) (reporting.Statistics, error) {
	requests, err := s.requests.ListAll(ctx)
	if err != nil {
		return reporting.Statistics{}, apperrors.MapError(err)
	}
	return reporting.Compute(requests), nil
}
