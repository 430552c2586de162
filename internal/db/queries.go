package db

import (
	"context"
	"fmt"
	"time"

	"github.com/HanTheDev/complexity-analyzer/internal/models"
)

func (db *DB) LogAccess(ctx context.Context, log *models.AccessLog) error {
	query := `
        INSERT INTO analysis_logs (request_id, model, code_length, cache_status, status_code, response_time_ms, client_addr)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `

	_, err := db.Pool.Exec(ctx, query,
		log.RequestID,
		log.Model,
		log.CodeLength,
		string(log.CacheStatus),
		log.StatusCode,
		log.ResponseTimeMs,
		log.ClientAddr,
	)

	return err
}

// GetAnalytics aggregates the access log. from and to are optional
// "2006-01-02" dates; to is inclusive.
func (db *DB) GetAnalytics(ctx context.Context, from, to string) (*models.Analytics, error) {
	start, end, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}

	query := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE cache_status = 'HIT'),
               COUNT(*) FILTER (WHERE status_code >= 500),
               COALESCE(AVG(response_time_ms), 0)
        FROM analysis_logs
        WHERE timestamp >= $1 AND timestamp < $2
    `

	var stats models.Analytics
	err = db.Pool.QueryRow(ctx, query, start, end).Scan(
		&stats.TotalRequests,
		&stats.CacheHits,
		&stats.Errors,
		&stats.AvgResponseTimeMs,
	)
	if err != nil {
		return nil, err
	}

	rows, err := db.Pool.Query(ctx, `
        SELECT model, COUNT(*)
        FROM analysis_logs
        WHERE timestamp >= $1 AND timestamp < $2
        GROUP BY model
        ORDER BY COUNT(*) DESC, model
    `, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats.ByModel = []models.ModelUsage{}
	for rows.Next() {
		var u models.ModelUsage
		if err := rows.Scan(&u.Model, &u.Requests); err != nil {
			return nil, err
		}
		stats.ByModel = append(stats.ByModel, u)
	}

	return &stats, rows.Err()
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	start := time.Unix(0, 0).UTC()
	end := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return start, end, fmt.Errorf("invalid from date %q: %w", from, err)
		}
		start = t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return start, end, fmt.Errorf("invalid to date %q: %w", to, err)
		}
		end = t.AddDate(0, 0, 1)
	}
	return start, end, nil
}
