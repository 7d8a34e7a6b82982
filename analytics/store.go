package analytics

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides database operations for analytics. Visit data lives in
// its own database, separate from content, so it can be wiped or rotated
// without touching posts.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed creates) the analytics database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visitor_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			browser TEXT NOT NULL,
			os TEXT NOT NULL,
			device TEXT NOT NULL,
			path TEXT NOT NULL,
			referrer TEXT,
			screen_size TEXT,
			timestamp DATETIME NOT NULL,
			duration_sec INTEGER DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS bot_visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bot_name TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			user_agent TEXT NOT NULL,
			path TEXT NOT NULL,
			timestamp DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_visits_timestamp ON visits(timestamp);
		CREATE INDEX IF NOT EXISTS idx_visits_visitor_id ON visits(visitor_id);
		CREATE INDEX IF NOT EXISTS idx_visits_path ON visits(path);

		CREATE INDEX IF NOT EXISTS idx_bot_visits_timestamp ON bot_visits(timestamp);
		CREATE INDEX IF NOT EXISTS idx_bot_visits_name ON bot_visits(bot_name);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// GetSetting retrieves a setting value by key. Returns empty string if not found.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return val, err
}

// SetSetting stores a setting value by key (upsert).
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

// SaveVisit stores a new visit.
func (s *Store) SaveVisit(v *Visit) error {
	_, err := s.db.Exec(`
		INSERT INTO visits (visitor_id, session_id, ip_hash, browser, os, device,
			path, referrer, screen_size, timestamp, duration_sec)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.VisitorID, v.SessionID, v.IPHash, v.Browser, v.OS, v.Device,
		v.Path, v.Referrer, v.ScreenSize, v.Timestamp.UTC(), v.DurationSec)
	return err
}

// UpdateVisitDuration updates the duration of the most recent visit for a visitor+path.
func (s *Store) UpdateVisitDuration(visitorID, path string, durationSec int) error {
	_, err := s.db.Exec(`
		UPDATE visits SET duration_sec = ?
		WHERE id = (
			SELECT id FROM visits
			WHERE visitor_id = ? AND path = ?
			ORDER BY timestamp DESC LIMIT 1
		)`,
		durationSec, visitorID, path)
	return err
}

// SaveBotVisit stores a new crawler visit.
func (s *Store) SaveBotVisit(bv *BotVisit) error {
	_, err := s.db.Exec(`
		INSERT INTO bot_visits (bot_name, ip_hash, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		bv.BotName, bv.IPHash, bv.UserAgent, bv.Path, bv.Timestamp.UTC())
	return err
}

// bucketExpr returns the strftime expression for the requested granularity.
func bucketExpr(hourly, monthly bool) string {
	switch {
	case hourly:
		return "strftime('%H:00', timestamp)"
	case monthly:
		return "strftime('%Y-%m', timestamp)"
	default:
		return "strftime('%Y-%m-%d', timestamp)"
	}
}

func (s *Store) queryDimension(query string, from, to time.Time) ([]DimensionStat, error) {
	rows, err := s.db.Query(query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []DimensionStat{}
	for rows.Next() {
		var d DimensionStat
		if err := rows.Scan(&d.Name, &d.Count); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *Store) queryPages(query string, from, to time.Time) ([]PageStat, error) {
	rows, err := s.db.Query(query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []PageStat{}
	for rows.Next() {
		var p PageStat
		if err := rows.Scan(&p.Path, &p.Views); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) querySeries(table string, hourly, monthly bool, from, to time.Time) ([]DailyView, error) {
	query := fmt.Sprintf(`
		SELECT %s AS bucket, COUNT(*)
		FROM %s
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY bucket ORDER BY bucket`, bucketExpr(hourly, monthly), table)
	rows, err := s.db.Query(query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []DailyView{}
	for rows.Next() {
		var v DailyView
		if err := rows.Scan(&v.Date, &v.Views); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

// GetStats returns aggregated statistics for the given time range. The
// independent aggregate queries run concurrently against the pool.
func (s *Store) GetStats(from, to time.Time, hourly, monthly bool) (*Stats, error) {
	stats := &Stats{
		Period:      from.Format("2006-01-02") + " to " + to.Format("2006-01-02"),
		TopPages:    []PageStat{},
		LatestPages: []LatestPageVisit{},
		DailyViews:  []DailyView{},
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", name, err)
				}
				mu.Unlock()
			}
		}()
	}

	run("count views", func() error {
		return s.db.QueryRow(`SELECT COUNT(*) FROM visits WHERE timestamp >= ? AND timestamp < ?`,
			from, to).Scan(&stats.TotalViews)
	})
	run("count unique visitors", func() error {
		return s.db.QueryRow(`SELECT COUNT(DISTINCT visitor_id) FROM visits WHERE timestamp >= ? AND timestamp < ?`,
			from, to).Scan(&stats.UniqueVisitors)
	})
	run("avg duration", func() error {
		var avg sql.NullFloat64
		err := s.db.QueryRow(`SELECT AVG(duration_sec) FROM visits WHERE timestamp >= ? AND timestamp < ? AND duration_sec > 0`,
			from, to).Scan(&avg)
		if err != nil {
			return err
		}
		if avg.Valid {
			mu.Lock()
			stats.AvgDuration = int(avg.Float64)
			mu.Unlock()
		}
		return nil
	})
	run("top pages", func() error {
		pages, err := s.queryPages(`
			SELECT path, COUNT(*) AS views FROM visits
			WHERE timestamp >= ? AND timestamp < ?
			GROUP BY path ORDER BY views DESC LIMIT 10`, from, to)
		if err != nil {
			return err
		}
		mu.Lock()
		stats.TopPages = pages
		mu.Unlock()
		return nil
	})
	run("latest pages", func() error {
		rows, err := s.db.Query(`
			SELECT path, timestamp, browser FROM visits
			WHERE timestamp >= ? AND timestamp < ?
			ORDER BY timestamp DESC LIMIT 10`, from, to)
		if err != nil {
			return err
		}
		defer rows.Close()
		latest := []LatestPageVisit{}
		for rows.Next() {
			var path, browser string
			var ts time.Time
			if err := rows.Scan(&path, &ts, &browser); err != nil {
				return err
			}
			latest = append(latest, LatestPageVisit{
				Path:      path,
				Timestamp: ts.Format("2006-01-02 15:04:05"),
				Browser:   browser,
			})
		}
		if err := rows.Err(); err != nil {
			return err
		}
		mu.Lock()
		stats.LatestPages = latest
		mu.Unlock()
		return nil
	})

	dimensions := []struct {
		name   string
		column string
		dest   *[]DimensionStat
	}{
		{"browser stats", "browser", &stats.BrowserStats},
		{"os stats", "os", &stats.OSStats},
		{"device stats", "device", &stats.DeviceStats},
		{"referrer stats", "referrer", &stats.ReferrerStats},
	}
	for _, dim := range dimensions {
		dim := dim
		run(dim.name, func() error {
			query := fmt.Sprintf(`
				SELECT %s, COUNT(*) AS cnt FROM visits
				WHERE timestamp >= ? AND timestamp < ?
				GROUP BY %s ORDER BY cnt DESC LIMIT 10`, dim.column, dim.column)
			result, err := s.queryDimension(query, from, to)
			if err != nil {
				return err
			}
			mu.Lock()
			*dim.dest = result
			mu.Unlock()
			return nil
		})
	}

	run("views series", func() error {
		series, err := s.querySeries("visits", hourly, monthly, from, to)
		if err != nil {
			return err
		}
		mu.Lock()
		stats.DailyViews = series
		mu.Unlock()
		return nil
	})

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return stats, nil
}

// GetBotStats returns aggregated crawler statistics for the given time range.
func (s *Store) GetBotStats(from, to time.Time, hourly, monthly bool) (*BotStats, error) {
	stats := &BotStats{
		Period:      from.Format("2006-01-02") + " to " + to.Format("2006-01-02"),
		TopBots:     []DimensionStat{},
		TopPages:    []PageStat{},
		DailyVisits: []DailyView{},
	}

	err := s.db.QueryRow(`SELECT COUNT(*) FROM bot_visits WHERE timestamp >= ? AND timestamp < ?`,
		from, to).Scan(&stats.TotalVisits)
	if err != nil {
		return nil, fmt.Errorf("count bot visits: %w", err)
	}

	stats.TopBots, err = s.queryDimension(`
		SELECT bot_name, COUNT(*) AS cnt FROM bot_visits
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY bot_name ORDER BY cnt DESC LIMIT 10`, from, to)
	if err != nil {
		return nil, fmt.Errorf("top bots: %w", err)
	}

	stats.TopPages, err = s.queryPages(`
		SELECT path, COUNT(*) AS views FROM bot_visits
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY path ORDER BY views DESC LIMIT 10`, from, to)
	if err != nil {
		return nil, fmt.Errorf("top bot pages: %w", err)
	}

	stats.DailyVisits, err = s.querySeries("bot_visits", hourly, monthly, from, to)
	if err != nil {
		return nil, fmt.Errorf("bot visit series: %w", err)
	}

	return stats, nil
}

// CleanupOldVisits removes visits and bot visits older than the retention period.
func (s *Store) CleanupOldVisits(retentionDays int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	if _, err := s.db.Exec(`DELETE FROM visits WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup visits: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM bot_visits WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup bot_visits: %w", err)
	}
	return nil
}

// StartCleanupScheduler runs periodic cleanup of old data. Returns a stop function.
func (s *Store) StartCleanupScheduler(retentionDays int, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := s.CleanupOldVisits(retentionDays); err != nil {
					log.Printf("analytics cleanup: %v", err)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

// GetRealtimeVisitors returns the number of unique visitors in the last 5 minutes.
func (s *Store) GetRealtimeVisitors() (int, error) {
	cutoff := time.Now().UTC().Add(-5 * time.Minute)
	var count int
	err := s.db.QueryRow(`SELECT COUNT(DISTINCT visitor_id) FROM visits WHERE timestamp >= ?`, cutoff).Scan(&count)
	return count, err
}
