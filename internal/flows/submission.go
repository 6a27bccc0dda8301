package flows

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound/internal/backend"
	"github.com/campuslf/lostfound/internal/models"
)

// SubmissionFlow creates new item reports: upload first, insert
// second, abort the insert on upload failure.
type SubmissionFlow struct {
	reports backend.Reports
	blobs   backend.Blobs
}

func NewSubmissionFlow(reports backend.Reports, blobs backend.Blobs) *SubmissionFlow {
	return &SubmissionFlow{reports: reports, blobs: blobs}
}

// Submit persists a new report for the session's user. Without a
// session it returns ErrAuthorizationRequired before any I/O. The
// returned report's status feeds the confirmation message.
func (f *SubmissionFlow) Submit(ctx context.Context, sess *backend.Session, input models.ReportInput, image *ImageAttachment) (*models.ItemReport, error) {
	if sess == nil {
		return nil, backend.ErrAuthorizationRequired
	}

	imageURL, err := UploadImage(ctx, f.blobs, image, sess.UserID)
	if err != nil {
		return nil, err
	}

	report, err := models.NewItemReport(input, imageURL, sess.UserID)
	if err != nil {
		return nil, err
	}

	if err := f.reports.Insert(ctx, report); err != nil {
		return nil, fmt.Errorf("%w: %v", backend.ErrPersistenceFailure, err)
	}

	log.Info().
		Str("report_id", report.ID).
		Str("status", string(report.Status)).
		Str("user_id", report.UserID).
		Msg("Item report submitted")

	return report, nil
}

// Confirmation is the user-facing submission confirmation, echoing the
// report's status.
func Confirmation(status models.Status) string {
	if status == models.StatusLost {
		return "Item Lost Report Submitted"
	}
	return "Item Found Report Submitted"
}
