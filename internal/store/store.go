// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists profiles in SQLite keyed by their natural
// identity (name, platform) and serves filtered lookups for the
// pipeline's pre-acquisition check and the store CLI.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/lead-engine/pkg/types"
)

const dbFile = "leads.db"

// Store manages the profile SQLite database.
type Store struct {
	db         *sql.DB
	dataDir    string
	maxResults int
}

// New opens or creates the profile database at dataDir/leads.db and
// creates the schema if it does not exist.
func New(cfg types.StoreConfig) (*Store, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dataDir: dataDir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			username TEXT,
			bio TEXT,
			platform TEXT NOT NULL,
			tags TEXT,
			score REAL,
			fit_summary TEXT,
			profile_url TEXT,
			avatar_url TEXT,
			followers INTEGER,
			following INTEGER,
			location TEXT,
			public_repos INTEGER,
			last_updated TEXT,
			created_at TEXT,
			updated_at TEXT,
			UNIQUE(name, platform)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_platform ON profiles(platform)`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_score ON profiles(score)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='profiles_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE profiles_fts USING fts5(name, bio, content=profiles, content_rowid=rowid)`,
			`CREATE TRIGGER profiles_ai AFTER INSERT ON profiles BEGIN
				INSERT INTO profiles_fts(rowid, name, bio) VALUES (new.rowid, new.name, new.bio);
			END`,
			`CREATE TRIGGER profiles_ad AFTER DELETE ON profiles BEGIN
				INSERT INTO profiles_fts(profiles_fts, rowid, name, bio) VALUES('delete', old.rowid, old.name, old.bio);
			END`,
			`CREATE TRIGGER profiles_au AFTER UPDATE ON profiles BEGIN
				INSERT INTO profiles_fts(profiles_fts, rowid, name, bio) VALUES('delete', old.rowid, old.name, old.bio);
				INSERT INTO profiles_fts(rowid, name, bio) VALUES (new.rowid, new.name, new.bio);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Upsert writes profiles keyed by (name, platform). An existing record
// keeps its created_at and original id; everything else is replaced.
// Scores are clamped into [0, 1] on the way in.
func (s *Store) Upsert(ctx context.Context, profiles ...types.Profile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range profiles {
		if !p.Platform.Valid() {
			return fmt.Errorf("profile %q has invalid platform %q", p.DisplayName(), p.Platform)
		}
		tagsJSON, _ := json.Marshal(p.Tags)
		now := time.Now().UTC()
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO profiles (id, name, username, bio, platform, tags, score, fit_summary,
				profile_url, avatar_url, followers, following, location, public_repos,
				last_updated, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(name, platform) DO UPDATE SET
				username=excluded.username, bio=excluded.bio, tags=excluded.tags,
				score=excluded.score, fit_summary=excluded.fit_summary,
				profile_url=excluded.profile_url, avatar_url=excluded.avatar_url,
				followers=excluded.followers, following=excluded.following,
				location=excluded.location, public_repos=excluded.public_repos,
				last_updated=excluded.last_updated, updated_at=excluded.updated_at`,
			p.ID, p.DisplayName(), p.Username, p.Bio, string(p.Platform),
			string(tagsJSON), types.ClampScore(p.Score), p.FitSummary,
			p.ProfileURL, p.AvatarURL, p.Followers, p.Following, p.Location, p.PublicRepos,
			p.LastUpdated.UTC().Format(time.RFC3339Nano),
			createdAt.UTC().Format(time.RFC3339Nano),
			now.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("upserting profile %q: %w", p.DisplayName(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// Filter holds parameters for store queries. Zero values mean "no
// constraint"; an empty filter returns the highest-scored profiles.
type Filter struct {
	// Platform restricts results to one platform.
	Platform types.Platform

	// MinScore drops profiles scored below the threshold.
	MinScore float64

	// Tag requires the tag to appear in the profile's tag list.
	Tag string

	// Text is an FTS5 full-text search over name and bio.
	Text string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Query returns profiles matching the filter, ranked by text relevance
// for full-text queries or by score descending otherwise.
func (s *Store) Query(ctx context.Context, f Filter) ([]types.Profile, error) {
	maxResults := f.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = f.Text != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT p.id, p.name, p.username, p.bio, p.platform, p.tags, p.score,
				p.fit_summary, p.profile_url, p.avatar_url, p.followers, p.following,
				p.location, p.public_repos, p.last_updated, p.created_at, p.updated_at
			FROM profiles_fts
			JOIN profiles p ON p.rowid = profiles_fts.rowid
			WHERE profiles_fts MATCH ?`)
		args = append(args, f.Text)
	} else {
		qb.WriteString(
			`SELECT p.id, p.name, p.username, p.bio, p.platform, p.tags, p.score,
				p.fit_summary, p.profile_url, p.avatar_url, p.followers, p.following,
				p.location, p.public_repos, p.last_updated, p.created_at, p.updated_at
			FROM profiles p
			WHERE 1=1`)
	}

	if f.Platform != "" {
		qb.WriteString(` AND p.platform = ?`)
		args = append(args, string(f.Platform))
	}

	if f.MinScore > 0 {
		qb.WriteString(` AND p.score >= ?`)
		args = append(args, f.MinScore)
	}

	if f.Tag != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(p.tags) WHERE value = ?)`)
		args = append(args, strings.ToLower(f.Tag))
	}

	if useFTS {
		qb.WriteString(` ORDER BY profiles_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.score DESC, p.name`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	var profiles []types.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading profile rows: %w", err)
	}
	return profiles, nil
}

// ListByPlatform returns all persisted profiles for a platform, ordered
// by name. Used by refresh to refetch records by username.
func (s *Store) ListByPlatform(ctx context.Context, platform types.Platform) ([]types.Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.username, p.bio, p.platform, p.tags, p.score,
			p.fit_summary, p.profile_url, p.avatar_url, p.followers, p.following,
			p.location, p.public_repos, p.last_updated, p.created_at, p.updated_at
		FROM profiles p WHERE p.platform = ? ORDER BY p.name`,
		string(platform))
	if err != nil {
		return nil, fmt.Errorf("listing %s profiles: %w", platform, err)
	}
	defer rows.Close()

	var profiles []types.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading profile rows: %w", err)
	}
	return profiles, nil
}

// Stats returns the profile count per platform.
func (s *Store) Stats(ctx context.Context) (map[types.Platform]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT platform, count(*) FROM profiles GROUP BY platform`)
	if err != nil {
		return nil, fmt.Errorf("counting profiles: %w", err)
	}
	defer rows.Close()

	stats := make(map[types.Platform]int)
	for rows.Next() {
		var platform string
		var count int
		if err := rows.Scan(&platform, &count); err != nil {
			return nil, fmt.Errorf("scanning stats row: %w", err)
		}
		stats[types.Platform(platform)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading stats rows: %w", err)
	}
	return stats, nil
}

func scanProfile(rows *sql.Rows) (types.Profile, error) {
	var (
		p                                 types.Profile
		platform, tagsJSON                string
		lastUpdated, createdAt, updatedAt string
	)
	err := rows.Scan(&p.ID, &p.Name, &p.Username, &p.Bio, &platform, &tagsJSON, &p.Score,
		&p.FitSummary, &p.ProfileURL, &p.AvatarURL, &p.Followers, &p.Following,
		&p.Location, &p.PublicRepos, &lastUpdated, &createdAt, &updatedAt)
	if err != nil {
		return types.Profile{}, fmt.Errorf("scanning profile row: %w", err)
	}

	p.Platform = types.Platform(platform)
	if tagsJSON != "" && tagsJSON != "null" {
		if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
			return types.Profile{}, fmt.Errorf("parsing tags for %q: %w", p.Name, err)
		}
	}
	p.LastUpdated, _ = time.Parse(time.RFC3339Nano, lastUpdated)
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return p, nil
}
