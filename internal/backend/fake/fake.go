// Package fake provides in-memory implementations of the backend
// capabilities for tests.
package fake

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campuslf/lostfound/internal/backend"
	"github.com/campuslf/lostfound/internal/models"
)

// Auth is an in-memory auth capability. Passwords are kept in plain
// text; this never leaves tests.
type Auth struct {
	mu       sync.Mutex
	users    map[string]user // keyed by email
	sessions map[string]backend.Session
}

type user struct {
	id       string
	password string
	fullName string
}

func NewAuth() *Auth {
	return &Auth{
		users:    make(map[string]user),
		sessions: make(map[string]backend.Session),
	}
}

func (a *Auth) SignUp(ctx context.Context, email, password, fullName string) (*backend.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.users[email]; ok {
		return nil, backend.ErrEmailInUse
	}
	a.users[email] = user{id: uuid.New().String(), password: password, fullName: fullName}
	return a.newSessionLocked(email), nil
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u, ok := a.users[email]
	if !ok || u.password != password {
		return nil, backend.ErrInvalidCredentials
	}
	return a.newSessionLocked(email), nil
}

func (a *Auth) Session(ctx context.Context, token string) (*backend.Session, error) {
	a.mu.Lock()
	sess, ok := a.sessions[token]
	a.mu.Unlock()

	if !ok || time.Now().After(sess.ExpiresAt) {
		return nil, nil
	}
	return &sess, nil
}

func (a *Auth) SignOut(ctx context.Context, token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, token)
	return nil
}

func (a *Auth) newSessionLocked(email string) *backend.Session {
	u := a.users[email]
	sess := backend.Session{
		Token:     uuid.New().String(),
		UserID:    u.id,
		Email:     email,
		FullName:  u.fullName,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	a.sessions[sess.Token] = sess
	return &sess
}

// Reports is an in-memory record store. The error fields, when set,
// force the corresponding operation to fail.
type Reports struct {
	mu      sync.Mutex
	records map[string]models.ItemReport

	ListErr   error
	GetErr    error
	InsertErr error
	DeleteErr error
}

func NewReports() *Reports {
	return &Reports{records: make(map[string]models.ItemReport)}
}

func (r *Reports) ListByStatus(ctx context.Context, status models.Status) ([]models.ItemReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ListErr != nil {
		return nil, r.ListErr
	}
	var out []models.ItemReport
	for _, rec := range r.records {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Reports) Get(ctx context.Context, id string) (*models.ItemReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.GetErr != nil {
		return nil, r.GetErr
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *Reports) Insert(ctx context.Context, report *models.ItemReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.InsertErr != nil {
		return r.InsertErr
	}
	r.records[report.ID] = *report
	return nil
}

func (r *Reports) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	if _, ok := r.records[id]; !ok {
		return fmt.Errorf("no report with id %s", id)
	}
	delete(r.records, id)
	return nil
}

// Len returns the number of stored records across all partitions.
func (r *Reports) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Blobs is an in-memory blob store.
type Blobs struct {
	mu      sync.Mutex
	objects map[string][]byte

	BaseURL   string
	UploadErr error
}

func NewBlobs() *Blobs {
	return &Blobs{objects: make(map[string][]byte), BaseURL: "https://blobs.test"}
}

func (b *Blobs) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if b.UploadErr != nil {
		return b.UploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.objects[key] = data
	b.mu.Unlock()
	return nil
}

func (b *Blobs) PublicURL(key string) string {
	return b.BaseURL + "/" + key
}

// Has reports whether an object exists under key.
func (b *Blobs) Has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}
