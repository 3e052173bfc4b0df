package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SearchLogEntry records the outcome of one finished search.
type SearchLogEntry struct {
	ID                int64
	Character         string
	Start             uint32 // packed point
	Target            uint32 // packed point
	State             string
	PathLength        int
	Reached           bool
	NodesChecked      int
	TransportsChecked int
	Elapsed           time.Duration
	CreatedAt         time.Time
}

// SearchLogRepository stores search outcomes for later inspection.
type SearchLogRepository struct {
	pool *pgxpool.Pool
}

// NewSearchLogRepository creates a new SearchLogRepository.
func NewSearchLogRepository(pool *pgxpool.Pool) *SearchLogRepository {
	return &SearchLogRepository{pool: pool}
}

// Insert stores e and returns its id.
func (r *SearchLogRepository) Insert(ctx context.Context, e SearchLogEntry) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO search_log (character_name, start_point, target_point, final_state,
		                         path_length, reached, nodes_checked, transports_checked, elapsed_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		normalizeName(e.Character), int64(e.Start), int64(e.Target), e.State,
		e.PathLength, e.Reached, e.NodesChecked, e.TransportsChecked, e.Elapsed.Milliseconds(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting search log: %w", err)
	}
	return id, nil
}

// Recent returns up to limit entries of a character, newest first.
func (r *SearchLogRepository) Recent(ctx context.Context, character string, limit int) ([]SearchLogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, character_name, start_point, target_point, final_state, path_length,
		        reached, nodes_checked, transports_checked, elapsed_ms, created_at
		 FROM search_log
		 WHERE character_name = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		normalizeName(character), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying search log: %w", err)
	}
	defer rows.Close()

	entries := make([]SearchLogEntry, 0, limit)
	for rows.Next() {
		var (
			e             SearchLogEntry
			start, target int64
			elapsedMs     int64
		)
		if err := rows.Scan(&e.ID, &e.Character, &start, &target, &e.State, &e.PathLength,
			&e.Reached, &e.NodesChecked, &e.TransportsChecked, &elapsedMs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning search log row: %w", err)
		}
		e.Start = uint32(start)
		e.Target = uint32(target)
		e.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search log rows: %w", err)
	}
	return entries, nil
}
