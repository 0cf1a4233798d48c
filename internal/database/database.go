// Package database is the Postgres persistence layer: registered
// players and finished match results. Sessions themselves live only in
// memory; nothing here sits on the turn-loop hot path.
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/swex-camp2024-copilot/swex-camp-spellcaster-sub001/internal/models"
)

// Store wraps the connection pool. A nil *Store is a valid, disabled
// store: lookups miss and writes are dropped.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens the pool and verifies the connection. An empty URL
// returns (nil, nil).
func Connect(ctx context.Context, url string) (*Store, error) {
	if url == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	log.Info("connected to postgres")
	return &Store{pool: pool}, nil
}

// EnsureSchema creates the tables this service owns if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			id           TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS game_results (
			session_id    UUID PRIMARY KEY,
			winner_id     TEXT,
			loser_id      TEXT,
			kind          TEXT NOT NULL,
			end_condition TEXT NOT NULL,
			total_turns   INT NOT NULL,
			first_mover   TEXT NOT NULL,
			stats         JSONB NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL
		);`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// GetPlayer looks a player up by id. A miss is (nil, nil), not an error.
// Implements game.PlayerStore.
func (s *Store) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	if s == nil {
		return nil, nil
	}
	var p models.Player
	err := s.pool.QueryRow(ctx,
		`SELECT id, display_name, created_at FROM players WHERE id = $1`, id).
		Scan(&p.ID, &p.DisplayName, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get player %q: %w", id, err)
	}
	return &p, nil
}

// ListPlayers returns all registered players ordered by id.
func (s *Store) ListPlayers(ctx context.Context) ([]models.Player, error) {
	if s == nil {
		return []models.Player{}, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, display_name, created_at FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

// UpsertPlayer registers a player, updating the display name on conflict.
func (s *Store) UpsertPlayer(ctx context.Context, p models.Player) error {
	if s == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO players (id, display_name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name`,
		p.ID, p.DisplayName, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert player %q: %w", p.ID, err)
	}
	return nil
}

// StoreResult records a finished match. Implements game.ResultSink; the
// stats map rides along as JSONB.
func (s *Store) StoreResult(ctx context.Context, sessionID uuid.UUID, r *models.GameResult) error {
	if s == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO game_results
			(session_id, winner_id, loser_id, kind, end_condition, total_turns, first_mover, stats, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO NOTHING`,
		sessionID, r.WinnerID, r.LoserID, string(r.Kind), r.EndCondition,
		r.TotalTurns, r.FirstMoverID, r.Stats, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("store result for %s: %w", sessionID, err)
	}
	return nil
}

// Close releases the pool. Safe on a nil store.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}
