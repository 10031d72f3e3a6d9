package wakeword

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

// ErrNotFound is returned when no profile has the requested ID.
var ErrNotFound = errors.New("wakeword: profile not found")

// DefaultSensitivity is the match threshold for new profiles.
const DefaultSensitivity = 0.55

// timeLayout is fixed-width so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS wake_profiles (
	id             TEXT PRIMARY KEY,
	phrase         TEXT NOT NULL,
	enabled        INTEGER NOT NULL DEFAULT 0,
	sensitivity    REAL NOT NULL,
	custom_trained INTEGER NOT NULL DEFAULT 0,
	template       BLOB,
	created_at     TEXT NOT NULL
);`

// Store persists wake word profiles, the gateway's only durable state.
// Invariant: at most one row has enabled=1; Enable swaps atomically and
// Open self-heals a violated invariant rather than refusing to start.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the profile database.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("wakeword: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("wakeword: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("wakeword: create schema: %w", err)
	}

	s := &Store{db: db}
	if err := s.heal(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// heal enforces the single-enabled invariant in production: when more
// than one profile is enabled, the newest keeps its flag and the rest
// are disabled with a logged warning.
func (s *Store) heal() error {
	var enabled int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM wake_profiles WHERE enabled = 1`).Scan(&enabled); err != nil {
		return fmt.Errorf("wakeword: count enabled: %w", err)
	}
	if enabled <= 1 {
		return nil
	}

	_, err := s.db.Exec(`
		UPDATE wake_profiles SET enabled = 0
		WHERE enabled = 1 AND id NOT IN (
			SELECT id FROM wake_profiles WHERE enabled = 1
			ORDER BY created_at DESC LIMIT 1
		)`)
	if err != nil {
		return fmt.Errorf("wakeword: heal enabled invariant: %w", err)
	}
	fmt.Fprintf(os.Stderr, "wakeword: %d profiles were enabled simultaneously, kept newest\n", enabled)
	return nil
}

// Create inserts a new, disabled profile with its template in one
// statement; enrollment either fully commits or leaves nothing behind.
func (s *Store) Create(phrase string, sensitivity float64, customTrained bool, template []float64) (model.WakeWordProfile, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return model.WakeWordProfile{}, fmt.Errorf("wakeword: phrase is required")
	}
	if sensitivity <= 0 || sensitivity > 1 {
		sensitivity = DefaultSensitivity
	}

	p := model.WakeWordProfile{
		ID:            uuid.NewString(),
		Phrase:        phrase,
		Sensitivity:   sensitivity,
		CustomTrained: customTrained,
		CreatedAt:     time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO wake_profiles (id, phrase, enabled, sensitivity, custom_trained, template, created_at)
		 VALUES (?, ?, 0, ?, ?, ?, ?)`,
		p.ID, p.Phrase, p.Sensitivity, boolInt(p.CustomTrained),
		EncodeTemplate(template), p.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return model.WakeWordProfile{}, fmt.Errorf("wakeword: insert profile: %w", err)
	}
	return p, nil
}

// Enable turns on one profile and disables every other in a single
// transaction, preserving the at-most-one-enabled invariant.
func (s *Store) Enable(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("wakeword: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE wake_profiles SET enabled = 0 WHERE enabled = 1`); err != nil {
		return fmt.Errorf("wakeword: disable others: %w", err)
	}
	res, err := tx.Exec(`UPDATE wake_profiles SET enabled = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("wakeword: enable: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// Disable turns off one profile.
func (s *Store) Disable(id string) error {
	res, err := s.db.Exec(`UPDATE wake_profiles SET enabled = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("wakeword: disable: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetSensitivity tunes a profile's match threshold.
func (s *Store) SetSensitivity(id string, sensitivity float64) error {
	if sensitivity <= 0 || sensitivity > 1 {
		return fmt.Errorf("wakeword: sensitivity must be in (0, 1]")
	}
	res, err := s.db.Exec(`UPDATE wake_profiles SET sensitivity = ? WHERE id = ?`, sensitivity, id)
	if err != nil {
		return fmt.Errorf("wakeword: set sensitivity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a profile.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM wake_profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("wakeword: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all profiles, newest first.
func (s *Store) List() ([]model.WakeWordProfile, error) {
	rows, err := s.db.Query(
		`SELECT id, phrase, enabled, sensitivity, custom_trained, created_at
		 FROM wake_profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("wakeword: list: %w", err)
	}
	defer rows.Close()

	var out []model.WakeWordProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Enabled returns the single enabled profile and its template, or
// (zero, nil, false) when no profile is enabled.
func (s *Store) Enabled() (model.WakeWordProfile, []float64, bool, error) {
	row := s.db.QueryRow(
		`SELECT id, phrase, enabled, sensitivity, custom_trained, template, created_at
		 FROM wake_profiles WHERE enabled = 1 LIMIT 1`)

	var (
		p         model.WakeWordProfile
		enabled   int
		trained   int
		blob      []byte
		createdAt string
	)
	err := row.Scan(&p.ID, &p.Phrase, &enabled, &p.Sensitivity, &trained, &blob, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.WakeWordProfile{}, nil, false, nil
	}
	if err != nil {
		return model.WakeWordProfile{}, nil, false, fmt.Errorf("wakeword: enabled profile: %w", err)
	}
	p.Enabled = enabled != 0
	p.CustomTrained = trained != 0
	p.CreatedAt, _ = time.Parse(timeLayout, createdAt)

	template, err := DecodeTemplate(blob)
	if err != nil {
		return model.WakeWordProfile{}, nil, false, err
	}
	return p, template, true, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func scanProfile(rows *sql.Rows) (model.WakeWordProfile, error) {
	var (
		p         model.WakeWordProfile
		enabled   int
		trained   int
		createdAt string
	)
	if err := rows.Scan(&p.ID, &p.Phrase, &enabled, &p.Sensitivity, &trained, &createdAt); err != nil {
		return p, fmt.Errorf("wakeword: scan profile: %w", err)
	}
	p.Enabled = enabled != 0
	p.CustomTrained = trained != 0
	p.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return p, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
