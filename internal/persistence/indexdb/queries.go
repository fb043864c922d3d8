package indexdb

import (
	"database/sql"
)

type RunRow struct {
	RunID     string `json:"run_id"`
	Mode      string `json:"mode"`
	MapName   string `json:"map_name"`
	Seed      int64  `json:"seed"`
	Agents    int    `json:"agents"`
	StartedAt string `json:"started_at"`
	Ticks     int64  `json:"ticks"`
}

type ResultRow struct {
	Agent   string `json:"agent"`
	Rank    int    `json:"rank"`
	Score   int    `json:"score"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason"`
	EndTick int64  `json:"end_tick"`
}

type FragCount struct {
	Agent string `json:"agent"`
	Kills int    `json:"kills"`
}

// Runs lists indexed runs, newest first.
func (s *SQLiteIndex) Runs(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT r.run_id, r.mode, r.map_name, r.seed, r.agents, r.started_at,
			(SELECT COUNT(*) FROM ticks t WHERE t.run_id = r.run_id)
		FROM runs r
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.RunID, &r.Mode, &r.MapName, &r.Seed, &r.Agents, &r.StartedAt, &r.Ticks); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) Results(runID string) ([]ResultRow, error) {
	rows, err := s.db.Query(`
		SELECT agent, rank, score, outcome, reason, end_tick
		FROM results WHERE run_id = ?
		ORDER BY rank ASC, agent ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ResultRow
	for rows.Next() {
		var r ResultRow
		if err := rows.Scan(&r.Agent, &r.Rank, &r.Score, &r.Outcome, &r.Reason, &r.EndTick); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// FragsBy counts kills per assailant. Frags without an assailant are skipped.
func (s *SQLiteIndex) FragsBy(runID string) ([]FragCount, error) {
	rows, err := s.db.Query(`
		SELECT assailant, COUNT(*) FROM frags
		WHERE run_id = ? AND assailant <> ''
		GROUP BY assailant
		ORDER BY COUNT(*) DESC, assailant ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FragCount
	for rows.Next() {
		var f FragCount
		if err := rows.Scan(&f.Agent, &f.Kills); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DB exposes the handle for ad-hoc queries.
func (s *SQLiteIndex) DB() *sql.DB { return s.db }
