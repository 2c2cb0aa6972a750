// Package store keeps result envelopes in SQLite so runs can be listed, reloaded and
// replayed without the simulator.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/iafilius/EpiViewer/src/results"
)

// ErrNotFound is returned when no stored run matches.
var ErrNotFound = errors.New("run not found")

// Kinds of stored payloads.
const (
	KindSim       = "sim"
	KindScenarios = "scenarios"
)

func nowUTC() string { return time.Now().UTC().Format("2006-01-02T15:04:05.000000Z") }

// RunInfo is the listing view of one stored envelope.
type RunInfo struct {
	ID        string
	RunID     string
	RunTag    string
	Kind      string
	Label     string
	Scenario  string
	Seed      int64
	CreatedAt string
}

// SQLStore persists envelopes in a single SQLite table.
type SQLStore struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path, creating its folder, and migrates it.
func Open(path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite has a single writer
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SQLStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	results.Debugf("[store] opened %s", path)
	return s, nil
}

// Path returns the database file.
func (s *SQLStore) Path() string { return s.path }

// Close closes the database.
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableCount == 0 {
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", currentSchemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}
	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		v = currentSchemaVersion
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", v); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != currentSchemaVersion {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// SchemaVersion returns the version recorded in the database.
func (s *SQLStore) SchemaVersion() (int, error) {
	var v int
	if err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// Save stores one envelope under a fresh id and returns it. Missing meta is filled in.
func (s *SQLStore) Save(env *results.Envelope) (string, error) {
	if env == nil || (env.Sim == nil && env.Scenarios == nil) {
		return "", errors.New("save: envelope has no payload")
	}
	if env.Meta == nil {
		env.Meta = &results.Meta{SchemaVersion: results.SchemaVersion}
	}
	kind, label := KindSim, env.Meta.Label
	if env.Sim != nil {
		if label == "" {
			label = env.Sim.Label
		}
	} else {
		kind = KindScenarios
		if label == "" {
			label = env.Scenarios.Label
		}
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO runs(id, run_id, run_tag, kind, label, scenario, seed, schema_version, created_at, payload)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, env.Meta.RunID, env.Meta.RunTag, kind, label, env.Meta.Scenario, env.Meta.Seed,
		env.Meta.SchemaVersion, nowUTC(), payload,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Load returns the envelope stored under id.
func (s *SQLStore) Load(id string) (*results.Envelope, error) {
	var payload []byte
	err := s.db.QueryRow("SELECT payload FROM runs WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return decode(payload)
}

// Find returns the most recent sim stored with label and seed.
func (s *SQLStore) Find(label string, seed int64) (*results.Sim, error) {
	var payload []byte
	err := s.db.QueryRow(
		`SELECT payload FROM runs WHERE kind = ? AND label = ? AND seed = ?
		 ORDER BY rowid DESC LIMIT 1`,
		KindSim, label, seed,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: label %q seed %d", ErrNotFound, label, seed)
	}
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	env, err := decode(payload)
	if err != nil {
		return nil, err
	}
	return env.Sim, nil
}

// Filter narrows List. Empty fields match everything; Limit <= 0 means no limit.
type Filter struct {
	Kind  string
	Label string
	RunID string
	Limit int
}

// List returns stored runs, newest first.
func (s *SQLStore) List(f Filter) ([]RunInfo, error) {
	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Label != "" {
		where = append(where, "label = ?")
		args = append(args, f.Label)
	}
	if f.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, f.RunID)
	}
	q := "SELECT id, run_id, run_tag, kind, label, scenario, seed, created_at FROM runs"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY rowid DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var out []RunInfo
	for rows.Next() {
		var ri RunInfo
		if err := rows.Scan(&ri.ID, &ri.RunID, &ri.RunTag, &ri.Kind, &ri.Label, &ri.Scenario, &ri.Seed, &ri.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, ri)
	}
	return out, rows.Err()
}

// ImportJSONL saves every envelope of a results file and returns how many were stored.
func (s *SQLStore) ImportJSONL(path string) (int, error) {
	defer results.TimeTrack(time.Now(), "store import "+path)
	envs, err := results.ReadEnvelopes(path, results.SchemaVersion, 0)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	n := 0
	for _, env := range envs {
		if _, err := s.Save(env); err != nil {
			return n, err
		}
		n++
	}
	results.Infof("[store] imported %d envelopes from %s", n, path)
	return n, nil
}

func decode(payload []byte) (*results.Envelope, error) {
	var env results.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}
