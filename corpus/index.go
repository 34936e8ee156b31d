// Package corpus keeps an sqlite index of replay metadata so that generators
// only draw from files in which the target player actually has ships.
package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/Noofbiz/haliteGen/datasets"
	"github.com/Noofbiz/haliteGen/replay"
)

// Index is an sqlite-backed catalogue of replay files.
type Index struct {
	db  *sql.DB
	log zerolog.Logger
}

// RefreshStats summarises one Refresh call.
type RefreshStats struct {
	Scanned int
	Updated int
	Failed  int
	Removed int
}

// Open opens or creates the index database at path.
func Open(ctx context.Context, path string, logger zerolog.Logger) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{
		db:  db,
		log: logger.With().Str("component", "corpus").Logger(),
	}, nil
}

func initPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS replays (
			path TEXT PRIMARY KEY,
			size INTEGER NOT NULL,
			mod_time INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			frames INTEGER NOT NULL,
			error TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS replay_players (
			path TEXT NOT NULL REFERENCES replays(path) ON DELETE CASCADE,
			player_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			base_name TEXT NOT NULL,
			roster_frames INTEGER NOT NULL,
			PRIMARY KEY (path, player_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_replay_players_name ON replay_players(name);`,
		`CREATE INDEX IF NOT EXISTS idx_replay_players_base ON replay_players(base_name);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (x *Index) Close() error {
	return x.db.Close()
}

type fileStamp struct {
	size, modTime int64
}

// Refresh scans dir for files matching pattern. New or changed files are
// summarised; files that fail to parse are recorded with their error and never
// returned by Eligible. Indexed files under dir that no longer match are removed.
func (x *Index) Refresh(ctx context.Context, dir, pattern string) (RefreshStats, error) {
	var stats RefreshStats
	files, err := datasets.DirSource{Dir: dir, Pattern: pattern}.Files()
	if err != nil {
		return stats, err
	}

	known, err := x.stamps(ctx)
	if err != nil {
		return stats, err
	}

	seen := make(map[string]bool, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Scanned++
		seen[path] = true

		info, err := os.Stat(path)
		if err != nil {
			return stats, err
		}
		stamp := fileStamp{size: info.Size(), modTime: info.ModTime().UnixNano()}
		if old, ok := known[path]; ok && old == stamp {
			continue
		}

		sum, sumErr := summarize(path)
		if sumErr != nil {
			stats.Failed++
			x.log.Warn().Err(sumErr).Str("file", path).Msg("replay not indexable")
		}
		if err := x.store(ctx, path, stamp, sum, sumErr); err != nil {
			return stats, err
		}
		stats.Updated++
	}

	prefix := filepath.Clean(dir) + string(filepath.Separator)
	for path := range known {
		if seen[path] || !strings.HasPrefix(path, prefix) {
			continue
		}
		if _, err := x.db.ExecContext(ctx, `DELETE FROM replays WHERE path = ?`, path); err != nil {
			return stats, fmt.Errorf("remove %s: %w", path, err)
		}
		stats.Removed++
	}

	x.log.Info().
		Int("scanned", stats.Scanned).
		Int("updated", stats.Updated).
		Int("failed", stats.Failed).
		Int("removed", stats.Removed).
		Msg("refreshed replay index")
	return stats, nil
}

func summarize(path string) (*replay.Summary, error) {
	raw, err := replay.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return replay.Summarize(raw)
}

func (x *Index) stamps(ctx context.Context) (map[string]fileStamp, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT path, size, mod_time FROM replays`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]fileStamp)
	for rows.Next() {
		var (
			path  string
			stamp fileStamp
		)
		if err := rows.Scan(&path, &stamp.size, &stamp.modTime); err != nil {
			return nil, err
		}
		out[path] = stamp
	}
	return out, rows.Err()
}

func (x *Index) store(ctx context.Context, path string, stamp fileStamp, sum *replay.Summary, sumErr error) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM replays WHERE path = ?`, path); err != nil {
		return err
	}

	var (
		w, h, frames int
		errText      sql.NullString
	)
	if sumErr != nil {
		errText = sql.NullString{String: sumErr.Error(), Valid: true}
	} else {
		w, h, frames = sum.Width, sum.Height, sum.NumFrames
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO replays (path, size, mod_time, width, height, frames, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		path, stamp.size, stamp.modTime, w, h, frames, errText); err != nil {
		return fmt.Errorf("index %s: %w", path, err)
	}

	if sum != nil {
		for _, p := range sum.Players {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO replay_players (path, player_id, name, base_name, roster_frames) VALUES (?, ?, ?, ?, ?)`,
				path, p.ID, p.Name, replay.BaseName(p.Name), p.RosterFrames); err != nil {
				return fmt.Errorf("index %s player %d: %w", path, p.ID, err)
			}
		}
	}
	return tx.Commit()
}

// Eligible returns the indexed files, sorted, in which player had at least
// one ship. Names match exactly or without the trailing version token.
func (x *Index) Eligible(ctx context.Context, player string) ([]string, error) {
	rows, err := x.db.QueryContext(ctx, `
		SELECT DISTINCT r.path FROM replays r
		JOIN replay_players p ON p.path = r.path
		WHERE r.error IS NULL AND p.roster_frames > 0 AND (p.name = ? OR p.base_name = ?)
		ORDER BY r.path`, player, player)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	return out, rows.Err()
}

// Source adapts the index to datasets.ReplaySource for one player.
func (x *Index) Source(player string) datasets.ReplaySource {
	return playerSource{idx: x, player: player}
}

type playerSource struct {
	idx    *Index
	player string
}

func (s playerSource) Files() ([]string, error) {
	files, err := s.idx.Eligible(context.Background(), s.player)
	if err != nil {
		return nil, fmt.Errorf("query replay index: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no indexed replay has ships of %q", datasets.ErrEmptyCorpus, s.player)
	}
	return files, nil
}
