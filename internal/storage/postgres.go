package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound/internal/models"
)

// PostgresStorage is the record store behind the Reports and auth
// capabilities.
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(host, port, user, password, dbName, sslMode string) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbName, sslMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	storage := &PostgresStorage{db: db}
	if err := storage.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize db schema: %w", err)
	}

	return storage, nil
}

// Init creates necessary tables
func (s *PostgresStorage) Init() error {
	query := `
	CREATE TABLE IF NOT EXISTS item_reports (
		id VARCHAR(36) PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		category VARCHAR(100) NOT NULL,
		location VARCHAR(100) NOT NULL,
		report_date DATE NOT NULL,
		report_time TIME NOT NULL,
		image_url TEXT,
		status VARCHAR(10) NOT NULL,
		user_id VARCHAR(36) NOT NULL,
		contact_info TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_item_reports_status ON item_reports(status);

	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS revoked_tokens (
		jti VARCHAR(64) PRIMARY KEY,
		expires_at TIMESTAMP NOT NULL
	);`

	_, err := s.db.Exec(query)
	return err
}

// ListByStatus returns every report in the status partition, newest
// first. Date and time come back with whatever precision the driver
// gives; callers normalize on read.
func (s *PostgresStorage) ListByStatus(ctx context.Context, status models.Status) ([]models.ItemReport, error) {
	query := `
	SELECT id, title, description, category, location, report_date, report_time,
		   image_url, status, user_id, contact_info, created_at
	FROM item_reports
	WHERE status = $1
	ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var reports []models.ItemReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}

// Get retrieves a report by ID. Returns (nil, nil) when no row matches.
func (s *PostgresStorage) Get(ctx context.Context, id string) (*models.ItemReport, error) {
	query := `
	SELECT id, title, description, category, location, report_date, report_time,
		   image_url, status, user_id, contact_info, created_at
	FROM item_reports WHERE id = $1`

	report, err := scanReport(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting report: %w", err)
	}
	return report, nil
}

// Insert persists a new report. An absent image is stored as NULL,
// never as an empty string.
func (s *PostgresStorage) Insert(ctx context.Context, report *models.ItemReport) error {
	query := `
	INSERT INTO item_reports (
		id, title, description, category, location, report_date, report_time,
		image_url, status, user_id, contact_info, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		report.ID, report.Title, report.Description, report.Category, report.Location,
		report.Date, report.Time, nullIfEmpty(report.ImageURL), report.Status,
		report.UserID, report.ContactInfo, report.CreatedAt,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to save report to postgres")
		return fmt.Errorf("inserting report: %w", err)
	}
	return nil
}

// Delete removes a report. Zero affected rows is an error so a repeat
// delete for the same id is reported as a store rejection.
func (s *PostgresStorage) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM item_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no report with id %s", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*models.ItemReport, error) {
	report := &models.ItemReport{}
	var date time.Time
	var clock string
	var imageURL sql.NullString

	err := row.Scan(
		&report.ID, &report.Title, &report.Description, &report.Category, &report.Location,
		&date, &clock, &imageURL, &report.Status, &report.UserID, &report.ContactInfo,
		&report.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	report.Date = date.Format("2006-01-02")
	report.Time = clock
	report.ImageURL = imageURL.String
	return report, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateUser creates a new account row.
func (s *PostgresStorage) CreateUser(ctx context.Context, email, passwordHash, fullName string) (*models.User, error) {
	user := &models.User{
		ID:        uuid.New().String(),
		Email:     email,
		FullName:  fullName,
		CreatedAt: time.Now(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, email, fullName, passwordHash, user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	user.PasswordHash = passwordHash
	return user, nil
}

// GetUserByEmail returns a user by email, or (nil, nil) when none.
func (s *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	var fullName sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &fullName, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	u.FullName = fullName.String
	return u, nil
}

// RevokeToken adds a token's JTI to the revocation list.
func (s *PostgresStorage) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES ($1, $2) ON CONFLICT (jti) DO NOTHING`,
		jti, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	// Opportunistically clean up expired revocations.
	_, _ = s.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, time.Now())

	return nil
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func (s *PostgresStorage) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = $1`, jti,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return count > 0, nil
}

// HealthCheck verifies the database connection.
func (s *PostgresStorage) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
