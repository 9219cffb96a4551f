// Package provenance implements a W3C PROV-O provenance/lineage engine:
// agents, activities, entities, and typed relationships recorded in SQLite,
// with chronological, lineage, and graph read views on top.
package provenance

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Service owns the provenance database. Construct one at process startup and
// pass it into request-handling code; there is no package-level instance.
type Service struct {
	db *sql.DB
}

// Open creates or opens the provenance database at dbPath and applies the
// schema. The database runs in WAL mode with foreign keys enforced.
func Open(dbPath string) (*Service, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open provenance db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Service{db: db}, nil
}

func (s *Service) DB() *sql.DB { return s.db }

func (s *Service) Close() error {
	return s.db.Close()
}

// dbtx is the subset of sql.DB / sql.Tx the engine writes against, so the
// same routines serve both direct calls and transactional groups.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Tx groups engine writes into one all-or-nothing unit. Multi-step tracking
// helpers use it so a failed entity creation rolls back the activity that
// was opened for it.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a transaction, committing on nil and rolling back on
// error or panic.
func (s *Service) WithTx(fn func(*Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin provenance tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit provenance tx: %w", err)
	}
	return nil
}

// --- Settings ---

// Setting keys for the two deletion/visibility defaults.
const (
	SettingPurgeOnDelete   = "purge_on_delete"
	SettingShowInvalidated = "show_invalidated"
)

// GetSetting returns a setting value by key.
func (s *Service) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", err
	}
	return val, nil
}

// SetSetting persists a setting value.
func (s *Service) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	return err
}

// PurgeOnDelete reports whether deletions default to hard purge.
// Defaults to false, so ModeDefault resolves to invalidation.
func (s *Service) PurgeOnDelete() bool {
	val, err := s.GetSetting(SettingPurgeOnDelete)
	if err != nil {
		return false
	}
	return val == "true"
}

// ShowInvalidated reports whether timelines include invalidated entities by
// default. Defaults to false.
func (s *Service) ShowInvalidated() bool {
	val, err := s.GetSetting(SettingShowInvalidated)
	if err != nil {
		return false
	}
	return val == "true"
}

// Stats returns row counts across the four record tables.
func (s *Service) Stats() (*Stats, error) {
	st := &Stats{}
	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM agents`, &st.Agents},
		{`SELECT COUNT(*) FROM activities`, &st.Activities},
		{`SELECT COUNT(*) FROM activities WHERE status = 'active'`, &st.ActiveActivities},
		{`SELECT COUNT(*) FROM activities WHERE status = 'failed'`, &st.FailedActivities},
		{`SELECT COUNT(*) FROM entities`, &st.Entities},
		{`SELECT COUNT(*) FROM entities WHERE invalidated_at IS NOT NULL`, &st.InvalidatedEntities},
		{`SELECT COUNT(*) FROM relationships`, &st.Relationships},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}
	return st, nil
}

// nullable maps "" to NULL for optional TEXT foreign keys.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
