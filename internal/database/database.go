package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const DefaultResultsLimit = 20

var ErrUnavailable = errors.New("ARCHIVE_UNAVAILABLE: results archive is not configured")

type ResultPlayer struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Finished int    `json:"finished"`
	Left     bool   `json:"left"`
}

// GameResult is one finished game as stored in the archive.
type GameResult struct {
	ID          int64          `json:"id"`
	RoomID      int            `json:"roomId"`
	RoomName    string         `json:"roomName"`
	WinnerID    int            `json:"winnerId"`
	WinnerName  string         `json:"winnerName"`
	WinnerColor string         `json:"winnerColor"`
	Players     []ResultPlayer `json:"players"`
	StartedAt   time.Time      `json:"startedAt"`
	FinishedAt  time.Time      `json:"finishedAt"`
}

type Service interface {
	Health(ctx context.Context) map[string]string
	RecordResult(ctx context.Context, result GameResult) (int64, error)
	RecentResults(ctx context.Context, limit int) ([]GameResult, error)
	Close()
}

type postgresService struct {
	pool *pgxpool.Pool
}

// New migrates the database at url and returns a pooled archive.
func New(ctx context.Context, url string) (Service, error) {
	if err := Migrate(url); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}
	return &postgresService{pool: pool}, nil
}

func (s *postgresService) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	stats := make(map[string]string)
	if err := s.pool.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	st := s.pool.Stat()
	stats["status"] = "up"
	stats["total_connections"] = fmt.Sprint(st.TotalConns())
	stats["idle_connections"] = fmt.Sprint(st.IdleConns())
	stats["acquired_connections"] = fmt.Sprint(st.AcquiredConns())
	return stats
}

func (s *postgresService) RecordResult(ctx context.Context, result GameResult) (int64, error) {
	players, err := json.Marshal(result.Players)
	if err != nil {
		return 0, fmt.Errorf("failed to encode players: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO game_results
			(room_id, room_name, winner_id, winner_name, winner_color, players, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		result.RoomID, result.RoomName, result.WinnerID, result.WinnerName, result.WinnerColor,
		players, result.StartedAt, result.FinishedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to record result for room %d: %w", result.RoomID, err)
	}
	return id, nil
}

// RecentResults returns the newest results first. Non-positive limits use
// DefaultResultsLimit.
func (s *postgresService) RecentResults(ctx context.Context, limit int) ([]GameResult, error) {
	if limit <= 0 {
		limit = DefaultResultsLimit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, room_id, room_name, winner_id, winner_name, winner_color, players, started_at, finished_at
		FROM game_results
		ORDER BY finished_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := make([]GameResult, 0, limit)
	for rows.Next() {
		var (
			r       GameResult
			players []byte
		)
		if err := rows.Scan(&r.ID, &r.RoomID, &r.RoomName, &r.WinnerID, &r.WinnerName,
			&r.WinnerColor, &players, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if err := json.Unmarshal(players, &r.Players); err != nil {
			return nil, fmt.Errorf("failed to decode players of result %d: %w", r.ID, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *postgresService) Close() {
	s.pool.Close()
}

// Disabled is the archive used when no database is configured. Writes are
// dropped and reads fail with ErrUnavailable.
type Disabled struct{}

func (Disabled) Health(context.Context) map[string]string {
	return map[string]string{"status": "disabled"}
}

func (Disabled) RecordResult(context.Context, GameResult) (int64, error) {
	return 0, ErrUnavailable
}

func (Disabled) RecentResults(context.Context, int) ([]GameResult, error) {
	return nil, ErrUnavailable
}

func (Disabled) Close() {}
