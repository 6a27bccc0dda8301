package flows

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound/internal/backend"
	"github.com/campuslf/lostfound/internal/models"
)

// DetailFlow retrieves a single report by id.
type DetailFlow struct {
	reports backend.Reports
}

func NewDetailFlow(reports backend.Reports) *DetailFlow {
	return &DetailFlow{reports: reports}
}

// Get returns the report with the given id. An empty id fails fast
// with ErrNotFound and issues no request. Zero rows is ErrNotFound, a
// normal terminal state; a store failure is ErrTransportFailure and is
// logged.
func (f *DetailFlow) Get(ctx context.Context, id string) (*models.ItemReport, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing report id", backend.ErrNotFound)
	}

	report, err := f.reports.Get(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("report_id", id).Msg("Failed to load report")
		return nil, fmt.Errorf("%w: %v", backend.ErrTransportFailure, err)
	}
	if report == nil {
		return nil, backend.ErrNotFound
	}

	report.Normalize()
	return report, nil
}
