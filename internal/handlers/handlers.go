package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound/internal/backend"
	"github.com/campuslf/lostfound/internal/events"
	"github.com/campuslf/lostfound/internal/flows"
	"github.com/campuslf/lostfound/internal/models"
)

// maxUploadSize caps multipart submissions.
const maxUploadSize = 10 << 20 // 10 MB

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Handler contains all HTTP handlers.
type Handler struct {
	auth    backend.Auth
	reports backend.Reports
	blobs   backend.Blobs
	events  *events.Publisher
	checks  map[string]HealthCheck

	submission *flows.SubmissionFlow
	detail     *flows.DetailFlow
}

// NewHandler creates a new handler instance. publisher may be nil;
// checks may be empty.
func NewHandler(auth backend.Auth, reports backend.Reports, blobs backend.Blobs, publisher *events.Publisher, checks map[string]HealthCheck) *Handler {
	return &Handler{
		auth:       auth,
		reports:    reports,
		blobs:      blobs,
		events:     publisher,
		checks:     checks,
		submission: flows.NewSubmissionFlow(reports, blobs),
		detail:     flows.NewDetailFlow(reports),
	}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpHandler handles POST /api/auth/signup.
func (h *Handler) SignUpHandler(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}

	sess, err := h.auth.SignUp(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		if errors.Is(err, backend.ErrEmailInUse) {
			jsonError(w, http.StatusConflict, "email already registered")
			return
		}
		log.Error().Err(err).Msg("Sign-up failed")
		jsonError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{"session": sess})
}

// SignInHandler handles POST /api/auth/login.
func (h *Handler) SignInHandler(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}

	sess, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, backend.ErrInvalidCredentials) {
			jsonError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		log.Error().Err(err).Msg("Sign-in failed")
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"session": sess})
}

// SessionHandler handles GET /api/auth/session: the current session,
// or null when the token is absent, expired or revoked.
func (h *Handler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := h.auth.Session(r.Context(), bearerToken(r))
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve session")
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"session": sess})
}

// SignOutHandler handles POST /api/auth/logout.
func (h *Handler) SignOutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), bearerToken(r)); err != nil {
		log.Error().Err(err).Msg("Sign-out failed")
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListReportsHandler handles GET /api/reports?status=&search=&category=.
// The status partition is fetched in full; search and category filter
// it without another store round-trip.
func (h *Handler) ListReportsHandler(w http.ResponseWriter, r *http.Request) {
	status, err := models.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "status must be 'lost' or 'found'")
		return
	}
	search := r.URL.Query().Get("search")
	category := r.URL.Query().Get("category")

	flow := flows.NewListingFlow(h.reports, status)
	if err := flow.Fetch(r.Context()); err != nil {
		log.Error().Err(err).Str("status", string(status)).Msg("Failed to list reports")
		jsonError(w, http.StatusInternalServerError, "Failed to load items. Please try again later.")
		return
	}

	items := flow.Filter(search, category)
	if items == nil {
		items = []models.ItemReport{}
	}
	reason := flow.Empty(search, category)

	jsonResponse(w, http.StatusOK, map[string]any{
		"items":         items,
		"empty_reason":  reason,
		"empty_message": flows.EmptyMessage(reason, status),
	})
}

// CreateReportHandler handles POST /api/reports. Requires a session
// (enforced by RequireSession). Accepts multipart form data with an
// optional image, or a plain JSON body for image-less reports.
func (h *Handler) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	var input models.ReportInput
	var image *flows.ImageAttachment

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(r, &input); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			jsonError(w, http.StatusBadRequest, "failed to parse form")
			return
		}

		input = models.ReportInput{
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Category:    r.FormValue("category"),
			Location:    r.FormValue("location"),
			Date:        r.FormValue("date"),
			Time:        r.FormValue("time"),
			ContactInfo: r.FormValue("contact_info"),
			Status:      r.FormValue("status"),
		}

		file, header, err := r.FormFile("image")
		if err == nil {
			defer file.Close()

			contentType := header.Header.Get("Content-Type")
			if !strings.HasPrefix(contentType, "image/") {
				jsonError(w, http.StatusBadRequest, "only image files are allowed")
				return
			}
			image = &flows.ImageAttachment{
				Reader:      file,
				Filename:    header.Filename,
				Size:        header.Size,
				ContentType: contentType,
			}
		} else if err != http.ErrMissingFile {
			jsonError(w, http.StatusBadRequest, "failed to read image")
			return
		}
	}

	report, err := h.submission.Submit(r.Context(), sess, input, image)
	if err != nil {
		switch {
		case errors.Is(err, backend.ErrAuthorizationRequired):
			jsonError(w, http.StatusUnauthorized, "You must be logged in to submit an item")
		case errors.Is(err, backend.ErrUploadFailure):
			log.Error().Err(err).Msg("Failed to upload image")
			jsonError(w, http.StatusInternalServerError, "Failed to upload image")
		case errors.Is(err, backend.ErrPersistenceFailure):
			log.Error().Err(err).Msg("Failed to save report")
			jsonError(w, http.StatusInternalServerError, "Failed to submit your report. Please try again.")
		default:
			jsonError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	if err := h.events.ReportSubmitted(r.Context(), report); err != nil {
		// Don't fail the request - report is already persisted
		log.Error().Err(err).Msg("Failed to publish report.submitted event")
	}

	jsonResponse(w, http.StatusCreated, map[string]any{
		"report":  report,
		"message": flows.Confirmation(report.Status),
	})
}

// GetReportHandler handles GET /api/reports/{id}.
func (h *Handler) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	report, err := h.detail.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			jsonError(w, http.StatusNotFound, "Item not found. It may have been deleted.")
			return
		}
		jsonError(w, http.StatusInternalServerError, "Could not load item details. Please try again later.")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{"report": report})
}

// DeleteReportHandler handles DELETE /api/reports/{id}. Requires a
// session. The store delete is followed by a reconciling refetch of
// the report's status partition; the surviving working set is echoed
// back so the caller can replace its view.
func (h *Handler) DeleteReportHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	report, err := h.reports.Get(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("report_id", id).Msg("Failed to look up report")
		jsonError(w, http.StatusInternalServerError, "Failed to delete item. Please try again.")
		return
	}
	if report == nil {
		jsonError(w, http.StatusNotFound, "Item not found. It may have been deleted.")
		return
	}

	flow := flows.NewListingFlow(h.reports, report.Status)
	if err := flow.Fetch(r.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to load working set")
		jsonError(w, http.StatusInternalServerError, "Failed to delete item. Please try again.")
		return
	}

	if err := flow.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Str("report_id", id).Msg("Failed to delete report")
		jsonError(w, http.StatusInternalServerError, "Failed to delete item. Please try again.")
		return
	}

	if err := h.events.ReportDeleted(r.Context(), id, report.Status); err != nil {
		log.Error().Err(err).Msg("Failed to publish report.deleted event")
	}

	items := flow.WorkingSet()
	if items == nil {
		items = []models.ItemReport{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"message": string(report.Status) + " item deleted successfully",
		"items":   items,
	})
}

// CategoriesHandler handles GET /api/categories: the fixed category
// and location sets the submission form offers.
func (h *Handler) CategoriesHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"categories":        models.Categories,
		"filter_categories": append([]string{models.AllCategories}, models.Categories...),
		"locations":         models.Locations,
	})
}

// HealthCheckHandler returns health status
func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := "healthy"
	checks := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		checks[name] = "ok"
		if err := check(ctx); err != nil {
			status = "unhealthy"
			checks[name] = err.Error()
		}
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	jsonResponse(w, statusCode, map[string]any{
		"status": status,
		"checks": checks,
	})
}
