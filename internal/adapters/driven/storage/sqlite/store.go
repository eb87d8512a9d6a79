package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite" // SQLite driver
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/custodia-labs/healthlens/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/healthlens/internal/core/domain"
	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "reports.db"

// Store is the SQLite-backed report store.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ driven.ReportStore = (*Store)(nil)

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.healthlens/data/reports.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".healthlens", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
		now:  func() time.Time { return time.Now().UTC() },
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations and records each applied version.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_create_reports.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

const reportColumns = `seq, id, user, file_name, file_type, content_hash, raw_text,
	parsed_data, symptoms, created_at, updated_at`

// Insert appends a record. Seq comes from the AUTOINCREMENT key.
func (s *Store) Insert(ctx context.Context, record *domain.ReportRecord) error {
	if record == nil || record.User == "" {
		return fmt.Errorf("%w: record requires a user", domain.ErrInvalidInput)
	}

	parsed, err := marshalParsed(record.ParsedData)
	if err != nil {
		return err
	}

	inserted := *record
	if inserted.ID == "" {
		inserted.ID = uuid.NewString()
	}
	now := s.now()
	if inserted.CreatedAt.IsZero() {
		inserted.CreatedAt = now
	}
	inserted.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, user, file_name, file_type, content_hash, raw_text,
			parsed_data, symptoms, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, inserted.ID, inserted.User, inserted.FileName, inserted.FileType, inserted.ContentHash,
		inserted.RawText, parsed, inserted.Symptoms, inserted.CreatedAt, inserted.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicate, inserted.FileName)
		}
		return fmt.Errorf("inserting report: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading report seq: %w", err)
	}
	inserted.Seq = seq
	*record = inserted
	return nil
}

// UpdateSymptoms overwrites symptoms on the user's highest-seq record.
func (s *Store) UpdateSymptoms(ctx context.Context, user, symptoms string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reports SET symptoms = ?, updated_at = ?
		WHERE seq = (SELECT MAX(seq) FROM reports WHERE user = ?)
	`, symptoms, s.now(), user)
	if err != nil {
		return fmt.Errorf("updating symptoms: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating symptoms: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByUser returns the user's records in insertion order.
func (s *Store) ListByUser(ctx context.Context, user string) ([]domain.ReportRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+reportColumns+" FROM reports WHERE user = ? ORDER BY seq", user)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	records := []domain.ReportRecord{}
	for rows.Next() {
		record, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reports: %w", err)
	}
	return records, nil
}

// Latest returns the user's most recent record.
func (s *Store) Latest(ctx context.Context, user string) (*domain.ReportRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+reportColumns+" FROM reports WHERE user = ? ORDER BY seq DESC LIMIT 1", user)
	return scanReport(row)
}

// Get returns one of the user's records by ID.
func (s *Store) Get(ctx context.Context, user, id string) (*domain.ReportRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+reportColumns+" FROM reports WHERE user = ? AND id = ?", user, id)
	return scanReport(row)
}

// FindByHash returns the user's record with the given content hash.
func (s *Store) FindByHash(ctx context.Context, user, hash string) (*domain.ReportRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+reportColumns+" FROM reports WHERE user = ? AND content_hash = ?", user, hash)
	return scanReport(row)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*domain.ReportRecord, error) {
	var record domain.ReportRecord
	var parsed sql.NullString

	err := row.Scan(&record.Seq, &record.ID, &record.User, &record.FileName, &record.FileType,
		&record.ContentHash, &record.RawText, &parsed, &record.Symptoms,
		&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning report: %w", err)
	}

	if parsed.Valid && parsed.String != "" {
		var data domain.ParsedData
		if err := json.Unmarshal([]byte(parsed.String), &data); err != nil {
			return nil, fmt.Errorf("unmarshaling parsed data: %w", err)
		}
		record.ParsedData = &data
	}
	return &record, nil
}

func marshalParsed(data *domain.ParsedData) (sql.NullString, error) {
	if data == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshalling parsed data: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
