// Package backend defines the capability surface the flows depend on:
// authentication, the report record store, and the blob store. Flows
// receive these as explicit dependencies so tests can substitute the
// in-memory implementations in backend/fake.
package backend

import (
	"context"
	"io"
	"time"

	"github.com/campuslf/lostfound/internal/models"
)

// Session is proof of authentication. Its presence gates submission.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Auth is the authentication capability.
type Auth interface {
	// SignUp registers a new account and returns a fresh session.
	SignUp(ctx context.Context, email, password, fullName string) (*Session, error)
	// SignIn exchanges credentials for a session.
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// Session resolves a token to the current session. Returns
	// (nil, nil) when no valid session exists for the token.
	Session(ctx context.Context, token string) (*Session, error)
	// SignOut invalidates the session behind the token.
	SignOut(ctx context.Context, token string) error
}

// Reports is the tabular persistence capability for item reports.
type Reports interface {
	// ListByStatus returns every report in the given status partition,
	// newest first.
	ListByStatus(ctx context.Context, status models.Status) ([]models.ItemReport, error)
	// Get returns the report with the given id, or (nil, nil) when no
	// row matches. Zero rows is a normal outcome, not an error.
	Get(ctx context.Context, id string) (*models.ItemReport, error)
	// Insert persists a new report.
	Insert(ctx context.Context, report *models.ItemReport) error
	// Delete removes the report with the given id. Deleting a row that
	// does not exist is an error.
	Delete(ctx context.Context, id string) error
}

// Blobs is the binary object storage capability.
type Blobs interface {
	// Upload stores the object under key.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// PublicURL resolves the publicly reachable URL for a stored
	// object. Pure; never fails for a valid key.
	PublicURL(key string) string
}
